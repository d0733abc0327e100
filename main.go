package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/markdownizer/internal/convert"
	"github.com/dtnitsch/markdownizer/internal/history"
	"github.com/dtnitsch/markdownizer/internal/serve"
	"github.com/dtnitsch/markdownizer/internal/server"
	"github.com/dtnitsch/markdownizer/pkg/help"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "markdownizer",
		Usage:   "Pick the better of two captures of a web page and convert it to Markdown",
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "db-path", Usage: "history database (default: next to the binary)"},
			&cli.BoolFlag{Name: "no-history", Usage: "do not record ingests"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "log errors only"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug output"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP ingest service for the browser extension",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "listen host (default 127.0.0.1)"},
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (default 5050)"},
					&cli.BoolFlag{Name: "no-probe", Usage: "never run the blocker probe"},
				},
			},
			{
				Name:   "convert",
				Usage:  "Convert pages from the command line",
				Action: convert.ConvertAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "urls", Aliases: []string{"u"}, Usage: "comma-separated URLs"},
					&cli.StringFlag{Name: "extension-html", Aliases: []string{"e"}, Usage: "saved page to use as the extension capture (one URL only)"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "where Markdown files are written"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 4, Usage: "concurrent conversions"},
					&cli.BoolFlag{Name: "no-probe", Usage: "never run the blocker probe"},
					&cli.StringFlag{Name: "format", Value: "yaml", Usage: "summary format: yaml or json"},
					&cli.StringFlag{Name: "cache-dir", Usage: "keep server fetches here and reuse them"},
					&cli.StringFlag{Name: "max-age", Value: "24h", Usage: "how long a cached fetch stays fresh"},
				},
			},
			{
				Name:   "history",
				Usage:  "Show recorded ingest decisions",
				Action: history.HistoryAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "number of records"},
					&cli.StringFlag{Name: "request", Aliases: []string{"r"}, Usage: "show one ingest by request id"},
					&cli.BoolFlag{Name: "stats", Usage: "show aggregate statistics"},
					&cli.StringFlag{Name: "format", Value: "yaml", Usage: "output format: yaml or json"},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick-start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("command failed", "error", err)
		os.Exit(2)
	}
}
