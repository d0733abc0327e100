package models

// IframeInfo describes one iframe the extension saw on the page.
type IframeInfo struct {
	Src        string `json:"src" yaml:"src"`
	SameOrigin bool   `json:"sameOrigin" yaml:"same_origin"`
}

// CaptureStats are the extension's own counts for its capture.
type CaptureStats struct {
	CharCount int `json:"char_count" yaml:"char_count" validate:"gte=0"`
	Headings  int `json:"headings" yaml:"headings" validate:"gte=0"`
	Lists     int `json:"lists" yaml:"lists" validate:"gte=0"`
}

// CaptureMeta travels with every ingest request.
type CaptureMeta struct {
	CapturedAt string       `json:"captured_at" yaml:"captured_at"`
	Stats      CaptureStats `json:"stats" yaml:"stats"`
	IframeInfo []IframeInfo `json:"iframe_info,omitempty" yaml:"iframe_info,omitempty"`
}

// IngestRequest is what the browser extension posts.
type IngestRequest struct {
	URL           string      `json:"url" yaml:"url" validate:"required,http_url"`
	Title         string      `json:"title" yaml:"title" validate:"required"`
	HTMLExtension string      `json:"html_extension" yaml:"html_extension" validate:"required"`
	TextExtension string      `json:"text_extension" yaml:"text_extension"`
	Meta          CaptureMeta `json:"meta" yaml:"meta"`
}

// DiagnosticSignals is the per-side summary reported back to the caller.
type DiagnosticSignals struct {
	Len     int     `json:"len" yaml:"len"`
	Density float64 `json:"density" yaml:"density"`
	Overlap float64 `json:"overlap" yaml:"overlap"`
}

// Diagnostics explains how an ingest was decided.
type Diagnostics struct {
	ScoreExtension   float64                      `json:"score_extension" yaml:"score_extension"`
	ScoreServer      float64                      `json:"score_server" yaml:"score_server"`
	ScoreDiff        float64                      `json:"score_diff" yaml:"score_diff"`
	Overlap          float64                      `json:"overlap" yaml:"overlap"`
	Signals          map[string]DiagnosticSignals `json:"signals" yaml:"signals"`
	RedirectDetected bool                         `json:"redirect_detected" yaml:"redirect_detected"`
	OriginalURL      string                       `json:"original_url,omitempty" yaml:"original_url,omitempty"`
	FinalURL         string                       `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	BypassReason     string                       `json:"bypass_reason,omitempty" yaml:"bypass_reason,omitempty"`
	BlockerPenalty   float64                      `json:"blocker_penalty" yaml:"blocker_penalty"`
	Blockers         *BlockerFlags                `json:"blockers,omitempty" yaml:"blockers,omitempty"`
	CodeBlocks       int                          `json:"code_blocks" yaml:"code_blocks"`
	Language         string                       `json:"language,omitempty" yaml:"language,omitempty"`
	TopKeywords      []string                     `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
	RequestID        string                       `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	DurationMS       int64                        `json:"duration_ms" yaml:"duration_ms"`
}

// IngestResponse is returned for a successful ingest.
type IngestResponse struct {
	OK          bool        `json:"ok" yaml:"ok"`
	Chosen      SourceTag   `json:"chosen" yaml:"chosen"`
	Title       string      `json:"title" yaml:"title"`
	URL         string      `json:"url" yaml:"url"`
	Markdown    string      `json:"markdown" yaml:"markdown"`
	Diagnostics Diagnostics `json:"diagnostics" yaml:"diagnostics"`
}

// ErrorCode classifies a failed request.
type ErrorCode string

const (
	ErrContentMismatch   ErrorCode = "content-mismatch"
	ErrLoginRequired     ErrorCode = "login-required"
	ErrPaywall           ErrorCode = "paywall"
	ErrCaptcha           ErrorCode = "captcha"
	ErrCrossOriginIframe ErrorCode = "cross-origin-iframe"
	ErrContentTooThin    ErrorCode = "content-too-thin"
	ErrCSPBlocked        ErrorCode = "csp-blocked"
	ErrFetchFailed       ErrorCode = "fetch-failed"
	ErrExtractionFailed  ErrorCode = "extraction-failed"
	ErrInvalidRequest    ErrorCode = "invalid-request"
	ErrInternal          ErrorCode = "internal-error"
)

// ErrorResponse is returned when a request cannot be served.
type ErrorResponse struct {
	OK      bool      `json:"ok" yaml:"ok"`
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status    string `json:"status" yaml:"status"`
	Version   string `json:"version" yaml:"version"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}
