package probe

import (
	"context"
	"fmt"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
)

// Static probes with a plain HTTP fetch. It sees no script-rendered
// content, so it over-reports thin pages; use it where Chrome is not
// available.
type Static struct {
	Fetcher *fetcher.Fetcher
}

func (s *Static) Detect(ctx context.Context, rawURL string) models.BlockerFlags {
	res := s.Fetcher.Fetch(ctx, rawURL)
	if !res.Success {
		return models.BlockerFlags{Error: fmt.Sprintf("Probe error: %s", res.Error)}
	}
	snap, err := SnapshotFromHTML(res.StatusCode, res.HTML)
	if err != nil {
		return models.BlockerFlags{Error: fmt.Sprintf("Probe error: %v", err)}
	}
	return Analyze(snap)
}
