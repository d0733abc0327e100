package language

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Rule is one content check. Rules are evaluated in order and the first
// match wins, so more distinctive languages come first.
type Rule struct {
	Name  string
	Match func(code string) bool
}

func anyOf(patterns ...string) func(string) bool {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return func(code string) bool {
		for _, re := range res {
			if re.MatchString(code) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...func(string) bool) func(string) bool {
	return func(code string) bool {
		for _, p := range preds {
			if !p(code) {
				return false
			}
		}
		return true
	}
}

func not(pred func(string) bool) func(string) bool {
	return func(code string) bool { return !pred(code) }
}

var (
	isHTML = anyOf(
		`(?i)<!doctype\s+html`,
		`(?i)<html[\s>]`,
		`(?i)<(div|span|body|head|p|a|ul|ol|li|table|section|article|button|form|script|style)(\s[^>]*)?>[\s\S]*</(div|span|body|head|p|a|ul|ol|li|table|section|article|button|form|script|style)>`,
	)
	isXML = anyOf(
		`^\s*<\?xml`,
		`<[A-Za-z][\w:.-]*(\s[^>]*)?>[^<]*</[A-Za-z][\w:.-]*>`,
	)
	rustFn          = anyOf(`\bfn\s+\w+`)
	rustCorroborate = anyOf(`\blet\s+mut\b`, `\buse\s+std::`, `println!\s*\(`)
	isTypeScript    = anyOf(
		`\binterface\s+\w+\s*(<[^>]*>)?\s*(extends\s+[\w, <>]+)?\{`,
		`\btype\s+\w+\s*(<[^>]*>)?\s*=`,
		`[\w)]\s*:\s*(string|number|boolean|any|unknown|void|never)(\[\])?\b`,
		`\bas\s+(string|number|boolean|const)\b`,
	)
	isJavaScript = anyOf(
		`\b(const|let|var)\s+[\w${}\[\], ]+\s*=`,
		`\bfunction\s*\*?\s*\w*\s*\(`,
		`=>`,
		`\bconsole\.(log|error|warn|info)\s*\(`,
		`\bawait\s+\w`,
		`\.then\s*\(`,
		`\brequire\s*\(\s*['"]`,
	)
	isPython = anyOf(
		`(?m)^import\s+[a-z_][\w.]*(\s+as\s+\w+)?\s*$`,
		`(?m)^from\s+[\w.]+\s+import\s+`,
		`(?m)^\s*(async\s+)?def\s+\w+\s*\(`,
		`(?m)^class\s+\w+(\([^)]*\))?\s*:\s*$`,
		`\bprint\s*\(`,
		`if\s+__name__\s*==\s*['"]__main__['"]`,
		`(?m)^\s*(if|elif|else|for|while|try|except|finally|with)\b[^\n{};]*:\s*$`,
	)
	isBash = anyOf(
		`(?m)^\s*\$\s+\S`,
		`^#!\s*/(usr/)?bin/(env\s+)?(ba|z|fi)?sh\b`,
		`(?m)^\s*(sudo\s+)?(apt|apt-get|yum|dnf|brew|npm|npx|yarn|pnpm|pip|pip3|pipx|cargo|gem|git|docker|kubectl|curl|wget|chmod|mkdir|cd|ls|rm|cp|mv|echo|source)\s+\S`,
		`(?m)^\s*export\s+[A-Z_][A-Z0-9_]*=`,
	)
	swiftArrow = anyOf(`\)\s*->`)
	looksJSON  = anyOf(`^\s*[\{\[]`)
	isCSS      = allOf(
		anyOf(`(?m)^\s*[^{}\n;]+\{`),
		anyOf(`(?m)^\s*(color|background(-color|-image)?|margin(-\w+)?|padding(-\w+)?|display|font(-size|-family|-weight)?|border(-\w+)?|width|height|position|flex(-\w+)?|grid(-\w+)?|text-align|line-height|z-index|opacity|cursor)\s*:[^;{}]+;?`),
	)
	isSQL = anyOf(
		`(?is)\bselect\s+.+?\s+from\s+\w+`,
		`(?i)\binsert\s+into\s+\w+`,
		`(?i)\bupdate\s+\w+\s+set\s+\w+`,
		`(?i)\bdelete\s+from\s+\w+`,
		`(?i)\bcreate\s+(table|index|view|database|schema)\b`,
		`(?i)\b(alter|drop)\s+table\b`,
	)
	isYAML = anyOf(
		`(?m)^[\w.-]+:\s*$`,
		`(?m)^\s*-\s+[\w"']`,
		`(?m)^[\w.-]+:[ \t]+[^\s{(;][^;{}()\n]*\n[\w.-]+:[ \t]+\S`,
	)
	isGo = anyOf(
		`(?m)^package\s+\w+\s*$`,
		`\bfunc\s+(\([^)]*\)\s*)?\w+\s*\(`,
		`:=\s*`,
		`\bfmt\.\w+\(`,
	)
	isRust = anyOf(
		`\bfn\s+\w+\s*(<[^>]*>)?\s*\(`,
		`\blet\s+mut\b`,
		`\bimpl(<[^>]*>)?\s+\w+`,
		`println!\s*\(`,
		`\buse\s+\w+::`,
		`\bpub\s+(fn|struct|enum|mod)\b`,
	)
	isJava = anyOf(
		`\bpublic\s+(static\s+)?(final\s+)?(class|interface|enum|void)\b`,
		`\bSystem\.out\.print(ln)?\s*\(`,
		`(?m)^import\s+java(x)?\.`,
		`\bpublic\s+static\s+void\s+main\s*\(`,
	)
	hasInclude = anyOf(`(?m)^\s*#include\s*[<"]`, `\bint\s+main\s*\(`)
	isCpp      = allOf(hasInclude, anyOf(`\bstd::`, `<iostream>`, `\bcout\s*<<`, `\bnamespace\s+\w+`, `\btemplate\s*<`))
	isCSharp   = anyOf(
		`(?m)^\s*using\s+System(\.\w+)*\s*;`,
		`\bConsole\.Write(Line)?\s*\(`,
		`(?m)^\s*namespace\s+[\w.]+\s*[{;]?\s*$`,
	)
	isRuby = anyOf(
		`(?m)^\s*def\s+\w+[?!]?\s*$`,
		`(?m)^\s*require\s+['"]`,
		`\bputs\s+\S`,
		`(?m)^\s*end\s*$`,
		`\bdo\s*\|\w+\|`,
	)
	isPHP = anyOf(
		`<\?php`,
		`(?m)^\s*\$\w+\s*=.*;\s*$`,
		`\becho\s+\$\w+`,
	)
	isSwift = anyOf(
		`(?m)^import\s+(UIKit|SwiftUI|Foundation|Combine)\s*$`,
		`\bfunc\s+\w+\s*\([^)]*\)\s*->`,
		`\bguard\s+let\b`,
		`\bvar\s+\w+\s*:\s*[A-Z]\w*`,
	)
	isKotlin = anyOf(
		`\bfun\s+\w+\s*\(`,
		`\bval\s+\w+\s*(:\s*\w+)?\s*=`,
		`\bprintln\s*\(`,
	)
	isMarkdown = anyOf(
		`(?m)^#{1,6}\s+\S`,
		`\[[^\]]+\]\([^)]+\)`,
		`(?m)^\s*[-*+]\s+\S`,
		"(?m)^```",
	)
	isDockerfile = anyOf(
		`(?m)^FROM\s+\S+`,
		`(?m)^(RUN|COPY|ADD|CMD|ENTRYPOINT|WORKDIR|ENV|EXPOSE|ARG)\s+\S`,
	)
)

func isJSON(code string) bool {
	if !looksJSON(code) {
		return false
	}
	return json.Valid([]byte(strings.TrimSpace(code)))
}

// rules is read-only after init and safe for concurrent use.
var rules = []Rule{
	{Name: "html", Match: isHTML},
	{Name: "xml", Match: isXML},
	// Rust needs corroboration here so JavaScript "function" bodies are not
	// claimed by a stray "fn".
	{Name: "rust", Match: allOf(rustFn, rustCorroborate)},
	{Name: "javascript", Match: allOf(isJavaScript, not(isTypeScript))},
	{Name: "typescript", Match: isTypeScript},
	{Name: "python", Match: isPython},
	{Name: "bash", Match: isBash},
	{Name: "json", Match: isJSON},
	{Name: "css", Match: isCSS},
	{Name: "sql", Match: isSQL},
	{Name: "yaml", Match: isYAML},
	{Name: "go", Match: allOf(isGo, not(swiftArrow))},
	{Name: "rust", Match: isRust},
	{Name: "java", Match: isJava},
	{Name: "cpp", Match: isCpp},
	{Name: "c", Match: hasInclude},
	{Name: "csharp", Match: isCSharp},
	{Name: "ruby", Match: isRuby},
	{Name: "php", Match: isPHP},
	{Name: "swift", Match: isSwift},
	{Name: "kotlin", Match: isKotlin},
	{Name: "markdown", Match: isMarkdown},
	{Name: "dockerfile", Match: isDockerfile},
}

// Rules returns a copy of the ordered content rules.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// FromContent guesses the language of code from its text. It returns "" when
// no rule matches.
func FromContent(code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	for _, r := range rules {
		if r.Match(code) {
			return r.Name
		}
	}
	return ""
}
