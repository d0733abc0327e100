package mapreduce

import (
	"testing"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/parser"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestMapUsesWinningText(t *testing.T) {
	a := &analytics.Analytics{}
	out := &pipeline.Outcome{
		Chosen:        models.SourceServer,
		ExtensionText: "extension extension",
		Extraction:    &parser.Extraction{Text: "goroutines channels goroutines"},
	}
	assert.Equal(t, map[string]int{"goroutines": 2, "channels": 1}, Map(out, a))

	out.Chosen = models.SourceExtension
	assert.Equal(t, map[string]int{"extension": 2}, Map(out, a))

	out.Chosen = models.SourceServer
	out.Extraction = nil
	assert.Equal(t, map[string]int{"extension": 2}, Map(out, a), "no extraction falls back")

	assert.Nil(t, Map(nil, a))
}

func TestMapReduce(t *testing.T) {
	a := &analytics.Analytics{}
	pages := []string{
		"Goroutines and channels. Channels carry values.",
		"Channels block; goroutines wait.",
	}

	var intermediate []map[string]int
	for _, p := range pages {
		intermediate = append(intermediate, Map(&pipeline.Outcome{ExtensionText: p}, a))
	}
	intermediate = append(intermediate, nil)
	got := Reduce(intermediate)

	assert.Equal(t, 3, got["channels"])
	assert.Equal(t, 2, got["goroutines"])
	assert.Equal(t, 1, got["carry"])
	assert.NotContains(t, got, "and")
	assert.Equal(t, []string{"channels:3", "goroutines:2"}, analytics.TopKeywords(got, 2))
}

func TestReduceEmpty(t *testing.T) {
	assert.Empty(t, Reduce(nil))
}
