package pipeline

import (
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/codeblock"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/parser"
)

// Kind tells whether arbitration ran.
type Kind int

const (
	Arbitrated Kind = iota
	Bypassed
)

func (k Kind) String() string {
	if k == Bypassed {
		return "bypassed"
	}
	return "arbitrated"
}

// BypassReason names the check that short-circuited arbitration.
type BypassReason string

const (
	ReasonNone             BypassReason = ""
	ReasonFetchFailed      BypassReason = "fetch_failed"
	ReasonRedirect         BypassReason = "redirect"
	ReasonExtractionFailed BypassReason = "extraction_failed"
	ReasonLoginRequired    BypassReason = "login_required"
	ReasonPaywall          BypassReason = "paywall"
	ReasonCaptcha          BypassReason = "captcha"
)

// Code maps a bypass reason onto the error taxonomy used by transports.
func (r BypassReason) Code() models.ErrorCode {
	switch r {
	case ReasonFetchFailed:
		return models.ErrFetchFailed
	case ReasonRedirect:
		return models.ErrContentMismatch
	case ReasonExtractionFailed:
		return models.ErrExtractionFailed
	case ReasonLoginRequired:
		return models.ErrLoginRequired
	case ReasonPaywall:
		return models.ErrPaywall
	case ReasonCaptcha:
		return models.ErrCaptcha
	}
	return ""
}

// Outcome is the result of one ingest: either a bypass with its reason, or an
// arbitration with its decision. Markdown is always set.
type Outcome struct {
	Kind     Kind                 `yaml:"kind" json:"kind"`
	Reason   BypassReason         `yaml:"reason,omitempty" json:"reason,omitempty"`
	Chosen   models.SourceTag     `yaml:"chosen" json:"chosen"`
	Decision *comparator.Decision `yaml:"decision,omitempty" json:"decision,omitempty"`

	Markdown   string                `yaml:"-" json:"-"`
	Blocks     []codeblock.CodeBlock `yaml:"-" json:"-"`
	Fetch      *fetcher.Result       `yaml:"fetch,omitempty" json:"fetch,omitempty"`
	Extraction *parser.Extraction    `yaml:"extraction,omitempty" json:"extraction,omitempty"`
	Flags      *models.BlockerFlags  `yaml:"blockers,omitempty" json:"blockers,omitempty"`
	Profile    analytics.ContentProfile `yaml:"profile" json:"profile"`

	Title         string        `yaml:"title" json:"title"`
	URL           string        `yaml:"url" json:"url"`
	ExtensionText string        `yaml:"-" json:"-"`
	RequestID     string        `yaml:"request_id" json:"request_id"`
	Duration      time.Duration `yaml:"duration" json:"duration"`
}

// Bypassed reports whether arbitration was skipped.
func (o *Outcome) Bypassed() bool {
	return o.Kind == Bypassed
}

// Diagnostics summarizes the outcome for a response body.
func Diagnostics(o *Outcome) models.Diagnostics {
	d := models.Diagnostics{
		CodeBlocks:  len(o.Blocks),
		Blockers:    o.Flags,
		Language:    o.Profile.Language,
		TopKeywords: o.Profile.TopKeywords,
		RequestID:   o.RequestID,
		DurationMS:  o.Duration.Milliseconds(),
	}

	if o.Bypassed() {
		d.ScoreExtension = 1.0
		d.ScoreServer = 0.0
		d.BypassReason = string(o.Reason)
		d.Signals = map[string]models.DiagnosticSignals{
			string(models.SourceExtension): {Len: len([]rune(o.ExtensionText))},
			string(models.SourceServer):    {},
		}
		if o.Reason == ReasonRedirect && o.Fetch != nil {
			d.RedirectDetected = true
			d.OriginalURL = o.Fetch.OriginalURL
			d.FinalURL = o.Fetch.FinalURL
		}
		return d
	}

	dec := o.Decision
	d.ScoreExtension = dec.ScoreA
	d.ScoreServer = dec.ScoreB
	d.ScoreDiff = dec.ScoreDiff
	d.Overlap = dec.Overlap
	d.BlockerPenalty = dec.BlockerPenalty
	d.Signals = map[string]models.DiagnosticSignals{
		string(models.SourceExtension): summarize(dec.SignalsA),
		string(models.SourceServer):    summarize(dec.SignalsB),
	}
	return d
}

func summarize(s comparator.SignalSet) models.DiagnosticSignals {
	return models.DiagnosticSignals{Len: s.LenText, Density: s.Density, Overlap: s.Overlap}
}
