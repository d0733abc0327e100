package markdown

import "strings"

// fence is the opening run of a fenced code block: its character and length.
type fence struct {
	char byte
	size int
}

// parseFence reports whether line is a fence line and returns the run and
// whatever follows it. Up to three spaces of indentation are allowed.
func parseFence(line string) (fence, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || trimmed == "" {
		return fence{}, "", false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return fence{}, "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return fence{}, "", false
	}
	return fence{char: c, size: n}, trimmed[n:], true
}

// fenceTracker follows fenced code line by line. A block closes only on a
// bare run of its own character at least as long as the opening run, so a
// ```` fence wrapping ``` content stays open across the inner fences.
type fenceTracker struct {
	open fence
}

// inside reports whether line belongs to fenced code, fence lines included.
func (t *fenceTracker) inside(line string) bool {
	f, rest, ok := parseFence(line)
	if t.open.size == 0 {
		if !ok || (f.char == '`' && strings.Contains(rest, "`")) {
			return false
		}
		t.open = f
		return true
	}
	if ok && f.char == t.open.char && f.size >= t.open.size && strings.TrimSpace(rest) == "" {
		t.open = fence{}
	}
	return true
}

// MapProse applies fn to every run of lines outside fenced code. Fenced
// blocks pass through byte for byte.
func MapProse(md string, fn func(string) string) string {
	var (
		t     fenceTracker
		out   []string
		prose []string
	)
	flush := func() {
		if prose != nil {
			out = append(out, fn(strings.Join(prose, "\n")))
			prose = nil
		}
	}
	for _, line := range strings.Split(md, "\n") {
		if t.inside(line) {
			flush()
			out = append(out, line)
			continue
		}
		prose = append(prose, line)
	}
	flush()
	return strings.Join(out, "\n")
}
