package markdown

import (
	"regexp"
	"strings"

	"github.com/dtnitsch/markdownizer/pkg/language"
)

// fragmentRun matches whole lines made of backtick spans that start with a
// line number, the shape a highlighter with a line gutter leaves behind when
// each line turned into inline code.
var fragmentRun = regexp.MustCompile("(?m)^(?:`\\d+[^`]*`[ \\t]*(?:\\n|$))+")

var fragmentSpan = regexp.MustCompile("`(\\d+[^`]*)`")

var leadingDigits = regexp.MustCompile(`^\d+`)

// RepairFragmentedCode rebuilds fenced blocks from runs of numbered inline
// code spans. A run must hold at least two lines of code; a lone numbered
// span like `2024` is left alone. Existing fenced blocks are not scanned.
func RepairFragmentedCode(md string) string {
	return MapProse(md, repairProse)
}

func repairProse(md string) string {
	return fragmentRun.ReplaceAllStringFunc(md, func(run string) string {
		var lines []string
		for _, m := range fragmentSpan.FindAllStringSubmatch(run, -1) {
			for _, line := range strings.Split(m[1], "\n") {
				lines = append(lines, leadingDigits.ReplaceAllString(line, ""))
			}
		}
		if len(lines) < 2 {
			return run
		}

		code := strings.Join(lines, "\n")
		block := "```" + language.FromContent(code) + "\n" + code + "\n```"
		if strings.HasSuffix(run, "\n") {
			block += "\n"
		}
		return block
	})
}
