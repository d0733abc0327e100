package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/markdown"
	"github.com/dtnitsch/markdownizer/pkg/parser"
	"github.com/dtnitsch/markdownizer/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://example.com/article"

type fakeFetcher struct {
	res   fetcher.Result
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) fetcher.Result {
	f.calls++
	res := f.res
	if res.OriginalURL == "" {
		res.OriginalURL = url
	}
	return res
}

type fakeExtractor struct {
	ex    parser.Extraction
	got   string
	calls int
}

func (f *fakeExtractor) Extract(html, _ string) parser.Extraction {
	f.calls++
	f.got = html
	return f.ex
}

type fakeProber struct {
	flags models.BlockerFlags
	calls int
}

func (f *fakeProber) Detect(context.Context, string) models.BlockerFlags {
	f.calls++
	return f.flags
}

type fakeRecorder struct {
	ingests []db.IngestRecord
	fetches []int
	err     error
}

func (f *fakeRecorder) RecordIngest(rec db.IngestRecord) (int64, error) {
	f.ingests = append(f.ingests, rec)
	return int64(len(f.ingests)), f.err
}

func (f *fakeRecorder) RecordFetch(_ string, status int, _ string, _ bool) error {
	f.fetches = append(f.fetches, status)
	return f.err
}

func newPipeline(f Fetcher, e Extractor, p Prober) *Pipeline {
	pl := &Pipeline{
		Fetcher:    f,
		Extractor:  e,
		Converter:  markdown.NewConverter(),
		Comparator: comparator.New(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if p != nil {
		pl.Prober = p
	}
	return pl
}

func request() models.IngestRequest {
	return models.IngestRequest{
		URL:   pageURL,
		Title: "Article",
		HTMLExtension: `<article><h1>Article</h1><p>Extension body text here.</p>
<pre><code class="language-python">print('hi')</code></pre></article>`,
		TextExtension: "Extension body text here.",
	}
}

func okFetch(html string) *fakeFetcher {
	return &fakeFetcher{res: fetcher.Result{Success: true, StatusCode: 200, HTML: html, FinalURL: pageURL}}
}

func thinExtraction() *fakeExtractor {
	return &fakeExtractor{ex: parser.Extraction{Success: true, Text: "short", HTML: "<p>short</p>", CharCount: 5, WordCount: 1}}
}

func assertExtensionMarkdown(t *testing.T, out *Outcome) {
	t.Helper()
	assert.Equal(t, models.SourceExtension, out.Chosen)
	assert.Contains(t, out.Markdown, "# Article")
	assert.Contains(t, out.Markdown, "Extension body text here.")
	assert.Contains(t, out.Markdown, "```python\nprint('hi')\n```")
	assert.NotContains(t, out.Markdown, "PLACEHOLDER_")
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, "python", out.Blocks[0].Language)
}

func TestRunFetchFailed(t *testing.T) {
	f := &fakeFetcher{res: fetcher.Result{Error: "connection refused"}}
	e := thinExtraction()
	p := &fakeProber{}

	out, err := newPipeline(f, e, p).Run(context.Background(), request())
	require.NoError(t, err)

	assert.True(t, out.Bypassed())
	assert.Equal(t, ReasonFetchFailed, out.Reason)
	assert.Equal(t, models.ErrFetchFailed, out.Reason.Code())
	assert.Nil(t, out.Decision)
	assert.Zero(t, e.calls)
	assert.Zero(t, p.calls)
	assertExtensionMarkdown(t, out)

	d := Diagnostics(out)
	assert.Equal(t, 1.0, d.ScoreExtension)
	assert.Equal(t, 0.0, d.ScoreServer)
	assert.Zero(t, d.Overlap)
	assert.Equal(t, "fetch_failed", d.BypassReason)
	assert.Equal(t, 25, d.Signals["extension"].Len)
	assert.Equal(t, models.DiagnosticSignals{}, d.Signals["server_extraction"])
	assert.Equal(t, 1, d.CodeBlocks)
	assert.False(t, d.RedirectDetected)
}

func TestRunRedirect(t *testing.T) {
	f := &fakeFetcher{res: fetcher.Result{
		Success:       true,
		StatusCode:    200,
		HTML:          "<p>login page</p>",
		OriginalURL:   pageURL,
		FinalURL:      "https://example.com/login",
		WasRedirected: true,
	}}
	e := thinExtraction()

	out, err := newPipeline(f, e, nil).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, Bypassed, out.Kind)
	assert.Equal(t, ReasonRedirect, out.Reason)
	assert.Equal(t, models.ErrContentMismatch, out.Reason.Code())
	assert.Zero(t, e.calls)
	assertExtensionMarkdown(t, out)

	d := Diagnostics(out)
	assert.True(t, d.RedirectDetected)
	assert.Equal(t, pageURL, d.OriginalURL)
	assert.Equal(t, "https://example.com/login", d.FinalURL)
	assert.Equal(t, "redirect", d.BypassReason)
}

func TestRunExtractionFailed(t *testing.T) {
	e := &fakeExtractor{ex: parser.Extraction{Error: "extraction error: no content"}}
	p := &fakeProber{}

	out, err := newPipeline(okFetch("<html><body></body></html>"), e, p).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, ReasonExtractionFailed, out.Reason)
	assert.Equal(t, models.ErrExtractionFailed, out.Reason.Code())
	assert.Equal(t, 1, e.calls)
	assert.Zero(t, p.calls)
	assertExtensionMarkdown(t, out)
}

func TestRunCriticalBlockers(t *testing.T) {
	tests := []struct {
		name  string
		flags models.BlockerFlags
		want  BypassReason
		code  models.ErrorCode
	}{
		{"login", models.BlockerFlags{LoginRequired: true}, ReasonLoginRequired, models.ErrLoginRequired},
		{"paywall", models.BlockerFlags{Paywall: true, ContentTooThin: true}, ReasonPaywall, models.ErrPaywall},
		{"captcha", models.BlockerFlags{Captcha: true}, ReasonCaptcha, models.ErrCaptcha},
		{"login wins over paywall", models.BlockerFlags{LoginRequired: true, Paywall: true, Captcha: true}, ReasonLoginRequired, models.ErrLoginRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProber{flags: tt.flags}
			out, err := newPipeline(okFetch("<p>short</p>"), thinExtraction(), p).Run(context.Background(), request())
			require.NoError(t, err)

			assert.Equal(t, 1, p.calls)
			assert.True(t, out.Bypassed())
			assert.Equal(t, tt.want, out.Reason)
			assert.Equal(t, tt.code, out.Reason.Code())
			require.NotNil(t, out.Flags)
			assert.Equal(t, tt.flags, *out.Flags)
			assertExtensionMarkdown(t, out)

			d := Diagnostics(out)
			assert.Equal(t, string(tt.want), d.BypassReason)
			assert.Equal(t, out.Flags, d.Blockers)
		})
	}
}

func TestRunNonCriticalBlockerPenalizes(t *testing.T) {
	p := &fakeProber{flags: models.BlockerFlags{CrossOriginIframe: true, ContentTooThin: true}}

	out, err := newPipeline(okFetch("<p>short</p>"), thinExtraction(), p).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, Arbitrated, out.Kind)
	assert.Equal(t, ReasonNone, out.Reason)
	require.NotNil(t, out.Decision)
	assert.Equal(t, comparator.DefaultBlockerPenalty, out.Decision.BlockerPenalty)
	assert.Equal(t, models.SourceExtension, out.Chosen)

	d := Diagnostics(out)
	assert.Equal(t, comparator.DefaultBlockerPenalty, d.BlockerPenalty)
	assert.Empty(t, d.BypassReason)
}

func TestRunProbeSkippedForLongContent(t *testing.T) {
	long := strings.Repeat("word ", 200)
	e := &fakeExtractor{ex: parser.Extraction{Success: true, Text: long, HTML: "<p>" + long + "</p>", CharCount: len(long)}}
	p := &fakeProber{flags: models.BlockerFlags{Paywall: true}}

	out, err := newPipeline(okFetch("<p>x</p>"), e, p).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Zero(t, p.calls)
	assert.Equal(t, Arbitrated, out.Kind)
	assert.Nil(t, out.Flags)
}

func TestRunProbeThresholdConfigurable(t *testing.T) {
	p := &fakeProber{}
	pl := newPipeline(okFetch("<p>x</p>"), thinExtraction(), p)
	pl.ProbeThreshold = 5

	_, err := pl.Run(context.Background(), request())
	require.NoError(t, err)
	assert.Zero(t, p.calls, "char count equal to the threshold is not probed")
}

func TestRunWithoutProber(t *testing.T) {
	out, err := newPipeline(okFetch("<p>x</p>"), thinExtraction(), nil).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, Arbitrated, out.Kind)
	assert.Nil(t, out.Flags)
	assert.Zero(t, out.Decision.BlockerPenalty)
}

// serverPage is a rich page whose readable copy beats the thin extension.
func serverPage() (string, string) {
	body := strings.Repeat("Server side content words describing the topic. ", 200)
	var html strings.Builder
	html.WriteString("<html><body><article>")
	for i := 0; i < 20; i++ {
		html.WriteString("<h2>Section</h2><p>" + body[:200] + "</p>")
	}
	html.WriteString(`<pre><code class="language-go">package main

func main() {}</code></pre>`)
	html.WriteString("</article></body></html>")
	return html.String(), body
}

func thinRequest() models.IngestRequest {
	req := request()
	req.HTMLExtension = "<p>Tiny capture.</p>"
	req.TextExtension = "Tiny capture."
	return req
}

func TestRunServerWinsKeepsCodeInPlace(t *testing.T) {
	raw, body := serverPage()
	e := &fakeExtractor{}
	e.ex = parser.Extraction{
		Success:   true,
		Text:      body,
		HTML:      "<div>" + strings.Repeat("<h2>Section</h2><p>"+body[:200]+"</p>", 20) + "<p>PLACEHOLDER_0</p><p>Closing words.</p></div>",
		CharCount: len(body),
	}

	out, err := newPipeline(okFetch(raw), e, nil).Run(context.Background(), thinRequest())
	require.NoError(t, err)

	assert.Contains(t, e.got, "PLACEHOLDER_0")
	assert.NotContains(t, e.got, "<pre>")

	assert.Equal(t, Arbitrated, out.Kind)
	assert.Equal(t, models.SourceServer, out.Chosen)
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, "go", out.Blocks[0].Language)

	assert.Contains(t, out.Markdown, "```go\npackage main\n\nfunc main() {}\n```")
	assert.NotContains(t, out.Markdown, "PLACEHOLDER_")
	assert.Less(t, strings.Index(out.Markdown, "```go"), strings.Index(out.Markdown, "Closing words."))

	d := Diagnostics(out)
	assert.Greater(t, d.ScoreServer, d.ScoreExtension)
	assert.GreaterOrEqual(t, d.ScoreDiff, comparator.DefaultThreshold)
	assert.Equal(t, out.Decision.SignalsB.LenText, d.Signals["server_extraction"].Len)
	assert.Equal(t, out.Decision.SignalsA.Density, d.Signals["extension"].Density)
	assert.Equal(t, 1, d.CodeBlocks)
}

func TestRunServerWinsInjectsDroppedCode(t *testing.T) {
	raw, body := serverPage()
	e := &fakeExtractor{ex: parser.Extraction{
		Success:   true,
		Text:      body,
		HTML:      "<div>" + strings.Repeat("<h2>Section</h2><p>"+body[:200]+"</p>", 20) + "</div>",
		CharCount: len(body),
	}}

	out, err := newPipeline(okFetch(raw), e, nil).Run(context.Background(), thinRequest())
	require.NoError(t, err)

	require.Equal(t, models.SourceServer, out.Chosen)
	assert.Contains(t, out.Markdown, "```go\npackage main\n\nfunc main() {}\n```")
}

func TestRunExtensionWins(t *testing.T) {
	req := request()
	req.HTMLExtension = `<article><h1>Article</h1>` + strings.Repeat("<h2>Part</h2><p>Extension body text here.</p>", 10) +
		`<pre><code class="language-python">print('hi')</code></pre><p><a href="/docs?utm_source=feed">docs</a></p></article>`
	req.TextExtension = strings.Repeat("Extension body text here. ", 100)

	out, err := newPipeline(okFetch("<p>x</p>"), thinExtraction(), nil).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, Arbitrated, out.Kind)
	assertExtensionMarkdown(t, out)
	assert.Contains(t, out.Markdown, "[docs](https://example.com/docs)")
	assert.NotContains(t, out.Markdown, "utm_source")
}

func TestRunInvalidRequest(t *testing.T) {
	f := okFetch("<p>x</p>")
	pl := newPipeline(f, thinExtraction(), nil)

	for _, req := range []models.IngestRequest{
		{},
		{URL: "not a url", Title: "t", HTMLExtension: "<p>x</p>"},
		{URL: pageURL, HTMLExtension: "<p>x</p>"},
		{URL: pageURL, Title: "t"},
	} {
		out, err := pl.Run(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Nil(t, out)
	}
	assert.Zero(t, f.calls)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := okFetch("<p>x</p>")
	out, err := newPipeline(f, thinExtraction(), nil).Run(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Zero(t, f.calls)
}

func TestRunRecords(t *testing.T) {
	rec := &fakeRecorder{}
	pl := newPipeline(okFetch("<p>x</p>"), thinExtraction(), &fakeProber{flags: models.BlockerFlags{Paywall: true}})
	pl.Recorder = rec
	pl.Profiler = func(text string) analytics.ContentProfile {
		return analytics.ContentProfile{Language: "en", TopKeywords: []string{"extension:1"}, WordCount: len(strings.Fields(text))}
	}

	ctx := WithRequestID(context.Background(), "req-123")
	out, err := pl.Run(ctx, request())
	require.NoError(t, err)

	assert.Equal(t, "req-123", out.RequestID)
	assert.Equal(t, 4, out.Profile.WordCount, "profiles the extension text")
	assert.Equal(t, []int{200}, rec.fetches)

	require.Len(t, rec.ingests, 1)
	got := rec.ingests[0]
	assert.Equal(t, "req-123", got.RequestID)
	assert.Equal(t, pageURL, got.URL)
	assert.Equal(t, "extension", got.Chosen)
	assert.Equal(t, "paywall", got.BypassReason)
	assert.Equal(t, 1.0, got.ScoreExtension)
	assert.Equal(t, 1, got.CodeBlocks)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, []string{"extension:1"}, got.TopKeywords)
	assert.Equal(t, len(out.Markdown), got.MarkdownBytes)
}

func TestRunRecorderErrorIgnored(t *testing.T) {
	pl := newPipeline(okFetch("<p>x</p>"), thinExtraction(), nil)
	pl.Recorder = &fakeRecorder{err: errors.New("disk full")}

	out, err := pl.Run(context.Background(), request())
	require.NoError(t, err)
	assert.NotEmpty(t, out.Markdown)
	assert.NotEmpty(t, out.RequestID, "a request id is generated when none is given")
}

func TestCriticalReason(t *testing.T) {
	tests := []struct {
		name  string
		flags *models.BlockerFlags
		want  BypassReason
	}{
		{"nil", nil, ReasonNone},
		{"none", &models.BlockerFlags{}, ReasonNone},
		{"non-critical only", &models.BlockerFlags{CrossOriginIframe: true, ContentTooThin: true, CSPBlocked: true}, ReasonNone},
		{"login beats paywall", &models.BlockerFlags{LoginRequired: true, Paywall: true}, ReasonLoginRequired},
		{"paywall beats captcha", &models.BlockerFlags{Paywall: true, Captcha: true}, ReasonPaywall},
		{"captcha", &models.BlockerFlags{Captcha: true, ContentTooThin: true}, ReasonCaptcha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, criticalReason(tt.flags))
			assert.Equal(t, tt.want != ReasonNone, tt.flags.Critical())
		})
	}
}

func TestFinishLeavesFencedCodeAlone(t *testing.T) {
	code := "```javascript\nconst out = handlers[key](event);\narr[0](x)\n```"
	md := finish("See [docs](guide).\n\n"+code, "https://example.com/docs/page")

	assert.Contains(t, md, code)
	assert.Contains(t, md, "[docs](https://example.com/docs/guide)")
}

func TestExtensionTextDerivedFromHTML(t *testing.T) {
	req := models.IngestRequest{HTMLExtension: "<p>one</p>\n<p>two  three</p><script>var x;</script>"}
	assert.Equal(t, "one two three", extensionText(req))

	req.TextExtension = "given"
	assert.Equal(t, "given", extensionText(req))
}

func TestBypassReasonCodes(t *testing.T) {
	assert.Equal(t, models.ErrorCode(""), ReasonNone.Code())
	assert.Equal(t, "bypassed", Bypassed.String())
	assert.Equal(t, "arbitrated", Arbitrated.String())
}

func TestNewFromConfig(t *testing.T) {
	cfg := models.Config{
		HTTP:       models.HTTPConfig{MaxRetries: 1},
		Probe:      models.ProbeConfig{Enabled: true, Static: true, Threshold: 300},
		Comparison: models.ComparisonConfig{ScoreThreshold: 0.1, BlockerPenalty: 0.2, MaxContentLength: 1000},
	}
	p, closeFn := New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer closeFn()

	assert.IsType(t, &probe.Static{}, p.Prober)
	assert.Nil(t, p.Recorder)
	assert.Equal(t, 300, p.ProbeThreshold)
	assert.Equal(t, 0.1, p.Comparator.Threshold)
	assert.Equal(t, 0.2, p.Comparator.BlockerPenalty)
	assert.Equal(t, 1000, p.Comparator.MaxLen)
	assert.NotNil(t, p.Profiler)

	cfg.Probe.Enabled = false
	p, _ = New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Nil(t, p.Prober)

	cfg.Probe = models.ProbeConfig{Enabled: true, Headless: true}
	p, closeFn = New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.IsType(t, &probe.Browser{}, p.Prober)
	assert.NoError(t, closeFn())
}
