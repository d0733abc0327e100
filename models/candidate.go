package models

// SourceTag names the side a candidate came from.
type SourceTag string

const (
	// SourceExtension is the page as the user's browser extension captured it.
	SourceExtension SourceTag = "extension"
	// SourceServer is the page as this service fetched and extracted it.
	SourceServer SourceTag = "server_extraction"
)

// ContentCandidate is one side of a comparison.
type ContentCandidate struct {
	Text   string    `json:"text" yaml:"text"`
	HTML   string    `json:"html" yaml:"html"`
	Source SourceTag `json:"source" yaml:"source"`
}

// BlockerFlags describe conditions under which the server probably saw less
// than the user did.
type BlockerFlags struct {
	LoginRequired     bool   `json:"login_required" yaml:"login_required"`
	Paywall           bool   `json:"paywall" yaml:"paywall"`
	Captcha           bool   `json:"captcha" yaml:"captcha"`
	CrossOriginIframe bool   `json:"cross_origin_iframe" yaml:"cross_origin_iframe"`
	ContentTooThin    bool   `json:"content_too_thin" yaml:"content_too_thin"`
	CSPBlocked        bool   `json:"csp_blocked" yaml:"csp_blocked"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Any reports whether any blocker is set. A nil receiver has none.
func (f *BlockerFlags) Any() bool {
	if f == nil {
		return false
	}
	return f.LoginRequired || f.Paywall || f.Captcha ||
		f.CrossOriginIframe || f.ContentTooThin || f.CSPBlocked
}

// Critical reports whether a blocker means the server copy cannot be trusted
// at all: a login wall, a paywall or a captcha.
func (f *BlockerFlags) Critical() bool {
	if f == nil {
		return false
	}
	return f.LoginRequired || f.Paywall || f.Captcha
}
