package markdown

import (
	"strings"
)

// Clean collapses runs of blank lines (whitespace-only counts as blank) into
// one, trims trailing whitespace from every line and strips the document.
// Lines inside fenced code are left untouched.
func Clean(md string) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))

	var fences fenceTracker
	prevBlank := false
	for _, line := range lines {
		if fences.inside(line) {
			out = append(out, line)
			prevBlank = false
			continue
		}

		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		prevBlank = blank
		if blank {
			out = append(out, "")
			continue
		}
		out = append(out, trimRightKeepBreak(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// trimRightKeepBreak trims trailing whitespace but keeps a Markdown hard
// break (two trailing spaces).
func trimRightKeepBreak(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(line, "  ") && trimmed != "" {
		return trimmed + "  "
	}
	return trimmed
}
