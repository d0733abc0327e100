// Package comparator scores two renderings of the same page and decides which
// one better represents its readable content.
package comparator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLen caps the text length that counts toward the length signal.
const DefaultMaxLen = 50000

// freshnessWindow is how many leading characters are searched for a date.
const freshnessWindow = 500

// SignalSet holds the quantitative signals of one candidate.
type SignalSet struct {
	LenText     int     `json:"len_text" yaml:"len_text"`
	LenNorm     float64 `json:"len_norm" yaml:"len_norm"`
	WordCount   int     `json:"word_count" yaml:"word_count"`
	Density     float64 `json:"density" yaml:"density"`
	Structure   int     `json:"structure" yaml:"structure"`
	LinkQuality float64 `json:"link_quality" yaml:"link_quality"`
	Freshness   float64 `json:"freshness" yaml:"freshness"`
	Headings    int     `json:"headings" yaml:"headings"`
	Lists       int     `json:"lists" yaml:"lists"`
	Overlap     float64 `json:"overlap" yaml:"overlap"`
}

var (
	headingTag   = regexp.MustCompile(`(?i)<h[1-6]`)
	paragraphTag = regexp.MustCompile(`(?i)<p[\s>]`)
	listItemTag  = regexp.MustCompile(`(?i)<li[\s>]`)
	hrefValue    = regexp.MustCompile(`href="([^"]+)"`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{4}`),
	}
)

// ComputeSignals derives the signal set of a (text, html) pair using the
// default length cap.
func ComputeSignals(text, html string) SignalSet {
	return computeSignals(text, html, DefaultMaxLen)
}

func computeSignals(text, html string, maxLen int) SignalSet {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	lenText := utf8.RuneCountInString(text)
	if lenText > maxLen {
		lenText = maxLen
	}
	words := len(strings.Fields(text))

	headings := len(headingTag.FindAllStringIndex(html, -1))
	paragraphs := len(paragraphTag.FindAllStringIndex(html, -1))
	lists := len(listItemTag.FindAllStringIndex(html, -1))
	blocks := headings + paragraphs + lists
	if blocks < 1 {
		blocks = 1
	}

	return SignalSet{
		LenText:     lenText,
		LenNorm:     float64(lenText) / float64(maxLen),
		WordCount:   words,
		Density:     clamp(float64(words)/float64(blocks)/100, 0, 1),
		Structure:   min(headings*2+lists, 50),
		LinkQuality: linkQuality(html),
		Freshness:   freshness(text),
		Headings:    headings,
		Lists:       lists,
	}
}

// linkQuality is the share of href values that are absolute.
func linkQuality(html string) float64 {
	links := hrefValue.FindAllStringSubmatch(html, -1)
	if len(links) == 0 {
		return 0
	}
	absolute := 0
	for _, m := range links {
		if strings.HasPrefix(m[1], "http") {
			absolute++
		}
	}
	return float64(absolute) / float64(len(links))
}

func freshness(text string) float64 {
	head := text
	n := 0
	for i := range text {
		if n == freshnessWindow {
			head = text[:i]
			break
		}
		n++
	}
	for _, re := range datePatterns {
		if re.MatchString(head) {
			return 1
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
