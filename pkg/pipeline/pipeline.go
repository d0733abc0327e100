// Package pipeline runs one ingest end to end: it fetches and extracts the
// server-side copy of a page, short-circuits when that copy cannot be
// trusted, arbitrates between the two candidates otherwise, and renders the
// winner as Markdown with its code blocks intact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/codeblock"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/markdown"
	"github.com/dtnitsch/markdownizer/pkg/normalizer"
	"github.com/dtnitsch/markdownizer/pkg/parser"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultProbeThreshold is the server character count below which the
// blocker probe runs.
const DefaultProbeThreshold = 500

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

type Fetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

type Extractor interface {
	Extract(html, url string) parser.Extraction
}

type Prober interface {
	Detect(ctx context.Context, url string) models.BlockerFlags
}

// Recorder stores ingest decisions. *db.DB satisfies it.
type Recorder interface {
	RecordIngest(rec db.IngestRecord) (int64, error)
	RecordFetch(rawURL string, statusCode int, errorType string, success bool) error
}

// Pipeline wires the collaborators of one ingest. Fetcher, Extractor and
// Converter are required; the rest are optional.
type Pipeline struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Prober     Prober
	Converter  *markdown.Converter
	Comparator *comparator.Comparator
	Recorder   Recorder
	Logger     *slog.Logger

	// Profiler summarizes the winning text. Nil skips profiling.
	Profiler func(text string) analytics.ContentProfile

	ProbeThreshold int
}

var validate = validator.New()

type requestIDKey struct{}

// WithRequestID attaches an id to ctx for Run to report and record.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Validate checks an ingest request.
func Validate(req models.IngestRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s - %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Run ingests one request. Collaborator failures become bypasses; an error
// is returned only for an invalid request or a canceled context.
func (p *Pipeline) Run(ctx context.Context, req models.IngestRequest) (*Outcome, error) {
	start := time.Now()
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := p.logger().With("url", normalizer.RedactTokens(req.URL))
	out := &Outcome{
		URL:           req.URL,
		Title:         req.Title,
		ExtensionText: extensionText(req),
		RequestID:     requestID(ctx),
	}

	if err := p.run(ctx, req, out, log); err != nil {
		return nil, err
	}

	out.Markdown = finish(out.Markdown, req.URL)
	if p.Profiler != nil {
		out.Profile = p.Profiler(p.winningText(out))
	}
	out.Duration = time.Since(start)

	log.Info("ingest complete",
		"request_id", out.RequestID,
		"kind", out.Kind.String(),
		"reason", string(out.Reason),
		"chosen", string(out.Chosen),
		"code_blocks", len(out.Blocks),
		"duration_ms", out.Duration.Milliseconds())

	p.record(out, log)
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, req models.IngestRequest, out *Outcome, log *slog.Logger) error {
	res := p.Fetcher.Fetch(ctx, req.URL)
	if err := ctx.Err(); err != nil {
		return err
	}
	out.Fetch = &res
	p.recordFetch(res, log)

	if !res.Success {
		log.Warn("fetch failed, using extension", "error", res.Error)
		p.bypass(out, req, ReasonFetchFailed)
		return nil
	}
	if res.WasRedirected {
		log.Warn("significant redirect, using extension",
			"final_url", normalizer.RedactTokens(res.FinalURL))
		p.bypass(out, req, ReasonRedirect)
		return nil
	}

	placeholderHTML, blocks := codeblock.Extract(res.HTML)
	ex := p.Extractor.Extract(placeholderHTML, req.URL)
	out.Extraction = &ex
	if !ex.Success {
		log.Warn("extraction failed, using extension", "error", ex.Error)
		p.bypass(out, req, ReasonExtractionFailed)
		return nil
	}

	if p.Prober != nil && ex.CharCount < p.probeThreshold() {
		flags := p.Prober.Detect(ctx, req.URL)
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Flags = &flags
		log.Debug("probe complete", "char_count", ex.CharCount, "blockers", flags.Any(), "error", flags.Error)
		if reason := criticalReason(&flags); reason != ReasonNone {
			log.Warn("blocker detected, using extension", "reason", string(reason))
			p.bypass(out, req, reason)
			return nil
		}
	}

	ext := models.ContentCandidate{Text: out.ExtensionText, HTML: req.HTMLExtension, Source: models.SourceExtension}
	srv := models.ContentCandidate{Text: ex.Text, HTML: ex.HTML, Source: models.SourceServer}
	dec := p.comparator().Arbitrate(ext, srv, req.Title, out.Flags)
	out.Kind = Arbitrated
	out.Decision = &dec
	out.Chosen = dec.Chosen
	log.Debug("arbitration",
		"score_extension", dec.ScoreA,
		"score_server", dec.ScoreB,
		"score_diff", dec.ScoreDiff,
		"overlap", dec.Overlap,
		"blocker_penalty", dec.BlockerPenalty)

	if dec.Chosen == models.SourceServer {
		out.Blocks = blocks
		out.Markdown = p.convert(restoreBlocks(ex.HTML, blocks), req)
		return nil
	}
	out.Blocks = extensionBlocks(req.HTMLExtension)
	out.Markdown = p.convert(req.HTMLExtension, req)
	return nil
}

// bypass renders the extension candidate and tags the outcome.
func (p *Pipeline) bypass(out *Outcome, req models.IngestRequest, reason BypassReason) {
	out.Kind = Bypassed
	out.Reason = reason
	out.Chosen = models.SourceExtension
	out.Blocks = extensionBlocks(req.HTMLExtension)
	out.Markdown = p.convert(req.HTMLExtension, req)
}

func (p *Pipeline) convert(html string, req models.IngestRequest) string {
	return p.Converter.ConvertOrFallback(html, req.Title, req.URL)
}

// criticalReason picks the bypass reason for a critical blocker, login first.
func criticalReason(f *models.BlockerFlags) BypassReason {
	if !f.Critical() {
		return ReasonNone
	}
	switch {
	case f.LoginRequired:
		return ReasonLoginRequired
	case f.Paywall:
		return ReasonPaywall
	case f.Captcha:
		return ReasonCaptcha
	}
	return ReasonNone
}

// restoreBlocks puts every block back into the extracted HTML: in place when
// its placeholder survived extraction, appended otherwise.
func restoreBlocks(html string, blocks []codeblock.CodeBlock) string {
	if len(blocks) == 0 {
		return html
	}
	var missing []codeblock.CodeBlock
	for i, b := range blocks {
		tok := b.Placeholder
		if tok == "" {
			tok = codeblock.Placeholder(i)
		}
		if !strings.Contains(html, tok) {
			missing = append(missing, b)
		}
	}
	if codeblock.HasPlaceholders(html, blocks) {
		html = codeblock.ReinsertHTML(html, blocks)
	}
	return codeblock.InjectHTML(html, missing)
}

func extensionBlocks(html string) []codeblock.CodeBlock {
	_, blocks := codeblock.Extract(html)
	return blocks
}

// finish applies the Markdown post-processing every path shares.
func finish(md, pageURL string) string {
	md = markdown.RepairFragmentedCode(md)
	md = normalizer.NormalizeLinks(md, pageURL)
	return markdown.Clean(md)
}

// extensionText returns the extension's plain text, deriving it from its
// HTML when the request carried none.
func extensionText(req models.IngestRequest) string {
	if req.TextExtension != "" {
		return req.TextExtension
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTMLExtension))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (p *Pipeline) winningText(out *Outcome) string {
	if out.Chosen == models.SourceServer && out.Extraction != nil {
		return out.Extraction.Text
	}
	return out.ExtensionText
}

func (p *Pipeline) record(out *Outcome, log *slog.Logger) {
	if p.Recorder == nil {
		return
	}
	d := Diagnostics(out)
	rec := db.IngestRecord{
		RequestID:      out.RequestID,
		URL:            out.URL,
		Title:          out.Title,
		Chosen:         string(out.Chosen),
		BypassReason:   string(out.Reason),
		ScoreExtension: d.ScoreExtension,
		ScoreServer:    d.ScoreServer,
		ScoreDiff:      d.ScoreDiff,
		Overlap:        d.Overlap,
		BlockerPenalty: d.BlockerPenalty,
		CodeBlocks:     d.CodeBlocks,
		Language:       d.Language,
		TopKeywords:    d.TopKeywords,
		MarkdownBytes:  len(out.Markdown),
		DurationMS:     d.DurationMS,
	}
	if _, err := p.Recorder.RecordIngest(rec); err != nil {
		log.Error("failed to record ingest", "request_id", out.RequestID, "error", err)
	}
}

func (p *Pipeline) recordFetch(res fetcher.Result, log *slog.Logger) {
	if p.Recorder == nil {
		return
	}
	errType := ""
	if !res.Success {
		errType = string(models.ErrFetchFailed)
	}
	if err := p.Recorder.RecordFetch(res.OriginalURL, res.StatusCode, errType, res.Success); err != nil {
		log.Error("failed to record access", "error", err)
	}
}

func (p *Pipeline) comparator() *comparator.Comparator {
	if p.Comparator == nil {
		return comparator.New()
	}
	return p.Comparator
}

func (p *Pipeline) probeThreshold() int {
	if p.ProbeThreshold <= 0 {
		return DefaultProbeThreshold
	}
	return p.ProbeThreshold
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
