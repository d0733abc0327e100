// Package manifest builds and saves the summary of one batch conversion.
package manifest

// SummaryManifest is the overview printed after a convert run and saved
// next to the Markdown files.
type SummaryManifest struct {
	GeneratedAt string       `yaml:"generated_at" json:"generated_at"`
	Status      string       `yaml:"status" json:"status"`
	Results     []URLSummary `yaml:"results" json:"results"`
	Stats       Stats        `yaml:"stats" json:"stats"`
}

// URLSummary is the per-URL line of the manifest.
type URLSummary struct {
	URL            string   `yaml:"url" json:"url"`
	FilePath       string   `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	Status         string   `yaml:"status" json:"status"` // "success" or "failed"
	Error          string   `yaml:"error,omitempty" json:"error,omitempty"`
	ErrorType      string   `yaml:"error_type,omitempty" json:"error_type,omitempty"`
	Chosen         string   `yaml:"chosen,omitempty" json:"chosen,omitempty"`
	BypassReason   string   `yaml:"bypass_reason,omitempty" json:"bypass_reason,omitempty"`
	ScoreExtension float64  `yaml:"score_extension,omitempty" json:"score_extension,omitempty"`
	ScoreServer    float64  `yaml:"score_server,omitempty" json:"score_server,omitempty"`
	CodeBlocks     int      `yaml:"code_blocks,omitempty" json:"code_blocks,omitempty"`
	Language       string   `yaml:"language,omitempty" json:"language,omitempty"`
	SizeBytes      int64    `yaml:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	TopKeywords    []string `yaml:"top_keywords,omitempty" json:"top_keywords,omitempty"`
	RequestID      string   `yaml:"request_id,omitempty" json:"request_id,omitempty"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalURLs        int      `yaml:"total_urls" json:"total_urls"`
	Successful       int      `yaml:"successful" json:"successful"`
	Failed           int      `yaml:"failed" json:"failed"`
	Bypassed         int      `yaml:"bypassed" json:"bypassed"`
	ServerChosen     int      `yaml:"server_chosen" json:"server_chosen"`
	TotalTimeSeconds float64  `yaml:"total_time_seconds" json:"total_time_seconds"`
	TopKeywords      []string `yaml:"top_keywords,omitempty" json:"top_keywords,omitempty"`
}
