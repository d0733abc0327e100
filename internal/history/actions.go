// Package history prints the ingest log kept in the SQLite database.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/markdownizer/internal/common"
	dbpkg "github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Options select what HistoryAction prints. RequestID wins over Stats.
type Options struct {
	Limit     int
	RequestID string
	Stats     bool
	Format    string
}

func HistoryAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		common.UsageError("history", err.Error())
	}

	database, err := dbpkg.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	out, err := Render(database, Options{
		Limit:     c.Int("limit"),
		RequestID: c.String("request"),
		Stats:     c.Bool("stats"),
		Format:    c.String("format"),
	})
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// Render reads the requested slice of history and encodes it.
func Render(database *dbpkg.DB, opts Options) ([]byte, error) {
	var v any
	switch {
	case opts.RequestID != "":
		rec, err := database.GetIngest(opts.RequestID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("no ingest with request id %q", opts.RequestID)
		}
		v = rec
	case opts.Stats:
		stats, err := database.IngestStats()
		if err != nil {
			return nil, err
		}
		v = stats
	default:
		recs, err := database.ListIngests(opts.Limit)
		if err != nil {
			return nil, err
		}
		if recs == nil {
			recs = []dbpkg.IngestRecord{}
		}
		v = recs
	}

	if strings.EqualFold(opts.Format, "json") {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(v)
}
