// Package mapreduce aggregates keyword counts across the pages of one batch
// conversion.
package mapreduce

import (
	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
)

// Counter turns text into word counts.
type Counter interface {
	WordFrequency(text string) map[string]int
}

// Map counts the words of the candidate that won the page. A nil outcome
// maps to nil.
func Map(out *pipeline.Outcome, c Counter) map[string]int {
	if out == nil {
		return nil
	}
	text := out.ExtensionText
	if out.Chosen == models.SourceServer && out.Extraction != nil {
		text = out.Extraction.Text
	}
	return c.WordFrequency(text)
}

// Reduce sums per-page counts into one map. Nil pages are skipped.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)
	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}
	return finalResults
}
