// Package probe looks at a page the way a browser sees it and reports what
// stands between the reader and the content: logins, paywalls, captchas,
// iframes, or simply nothing there.
package probe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/markdownizer/models"
)

// Snapshot is what a probe observed on the loaded page.
type Snapshot struct {
	Status         int    `json:"status"`
	HTML           string `json:"html"`
	Text           string `json:"text"`
	OverlayText    string `json:"overlayText"`
	LoginForms     int    `json:"loginForms"`
	PasswordInputs int    `json:"passwordInputs"`
	Iframes        int    `json:"iframes"`
}

var (
	paywallPatterns = []string{"subscribe", "subscription", "premium", "member", "free trial", "unlock", "paywall"}
	loginPatterns   = []string{"sign in", "log in", "login", "password", "authenticate", "session expired"}
	captchaPatterns = []string{"captcha", "recaptcha", "hcaptcha", "cf-challenge"}
)

const (
	iframeTextMax = 200
	thinTextMax   = 100
)

// Analyze turns a snapshot into blocker flags.
func Analyze(s Snapshot) models.BlockerFlags {
	var flags models.BlockerFlags

	if s.Status == 401 || s.Status == 403 {
		flags.LoginRequired = true
	}

	html := strings.ToLower(s.HTML)
	text := strings.ToLower(s.Text)

	if containsAny(html, paywallPatterns) || containsAny(text, paywallPatterns) ||
		containsAny(strings.ToLower(s.OverlayText), paywallPatterns) {
		flags.Paywall = true
	}

	if containsAny(html, loginPatterns) && (s.LoginForms > 0 || s.PasswordInputs > 0) {
		flags.LoginRequired = true
	}

	if containsAny(html, captchaPatterns) {
		flags.Captcha = true
	}

	textLen := len([]rune(strings.TrimSpace(s.Text)))
	hasIframe := s.Iframes > 0 || strings.Contains(html, "<iframe")
	if textLen < iframeTextMax && hasIframe {
		flags.CrossOriginIframe = true
	}

	if textLen < thinTextMax && !flags.LoginRequired {
		flags.ContentTooThin = true
	}

	return flags
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// SnapshotFromHTML builds a snapshot from static markup. Body text comes from
// goquery, so anything a script would have rendered is missing.
func SnapshotFromHTML(status int, html string) (Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Snapshot{}, err
	}
	doc.Find("script, style, noscript").Remove()

	var overlay []string
	doc.Find(`[class*="overlay"], [class*="modal"]`).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			overlay = append(overlay, t)
		}
	})

	return Snapshot{
		Status:         status,
		HTML:           html,
		Text:           strings.TrimSpace(doc.Find("body").Text()),
		OverlayText:    strings.Join(overlay, " "),
		LoginForms:     doc.Find(`form[action*="login"]`).Length(),
		PasswordInputs: doc.Find(`input[type="password"]`).Length(),
		Iframes:        doc.Find("iframe").Length(),
	}, nil
}
