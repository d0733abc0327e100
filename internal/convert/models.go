package convert

import (
	"context"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/manifest"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
)

// Runner runs one ingest. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req models.IngestRequest) (*pipeline.Outcome, error)
}

type Job struct {
	URL string
}

// Result holds the outcome of a processed job.
type Result = manifest.FetchResult
