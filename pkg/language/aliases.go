// Package language infers a programming-language tag for a code block,
// either from the markup that wraps it or from the code itself.
package language

import "strings"

// aliases maps every spelling we accept to its canonical fence tag.
// Canonical names map to themselves so the table doubles as the set of
// known languages.
var aliases = map[string]string{
	"javascript": "javascript", "js": "javascript", "jsx": "javascript",
	"mjs": "javascript", "cjs": "javascript", "node": "javascript",
	"typescript": "typescript", "ts": "typescript", "tsx": "typescript",
	"python": "python", "py": "python", "python3": "python", "py3": "python",
	"bash": "bash", "sh": "bash", "shell": "bash", "zsh": "bash", "fish": "bash",
	"console": "bash", "shell-session": "bash", "shellsession": "bash", "terminal": "bash",
	"yaml": "yaml", "yml": "yaml",
	"json": "json", "jsonc": "json", "json5": "json",
	"cpp": "cpp", "c++": "cpp", "cc": "cpp", "cxx": "cpp", "hpp": "cpp",
	"c": "c", "h": "c",
	"csharp": "csharp", "c#": "csharp", "cs": "csharp",
	"go": "go", "golang": "go",
	"rust": "rust", "rs": "rust",
	"ruby": "ruby", "rb": "ruby",
	"java": "java",
	"kotlin": "kotlin", "kt": "kotlin", "kts": "kotlin",
	"swift": "swift",
	"php": "php",
	"html": "html", "html5": "html", "xhtml": "html", "htm": "html",
	"xml": "xml", "svg": "xml", "xsl": "xml", "plist": "xml",
	"css": "css", "scss": "scss", "sass": "sass", "less": "less",
	"sql": "sql", "psql": "sql", "mysql": "sql", "postgresql": "sql", "postgres": "sql", "sqlite": "sql",
	"markdown": "markdown", "md": "markdown", "mdx": "markdown",
	"dockerfile": "dockerfile", "docker": "dockerfile",
	"powershell": "powershell", "ps1": "powershell", "pwsh": "powershell",
	"objectivec": "objectivec", "objective-c": "objectivec", "objc": "objectivec",
	"elixir": "elixir", "ex": "elixir", "exs": "elixir",
	"erlang": "erlang", "erl": "erlang",
	"haskell": "haskell", "hs": "haskell",
	"clojure": "clojure", "clj": "clojure",
	"ocaml": "ocaml", "ml": "ocaml",
	"perl": "perl", "pl": "perl",
	"r": "r",
	"scala": "scala",
	"lua": "lua",
	"dart": "dart",
	"hcl": "hcl", "tf": "hcl", "terraform": "hcl",
	"protobuf": "protobuf", "proto": "protobuf",
	"graphql": "graphql", "gql": "graphql",
	"toml": "toml",
	"ini": "ini",
	"vbnet": "vbnet", "vb": "vbnet",
	"fsharp": "fsharp", "f#": "fsharp", "fs": "fsharp",
	"diff": "diff", "patch": "diff",
	"makefile": "makefile", "make": "makefile",
	"nginx": "nginx",
	"text": "text", "plaintext": "text", "txt": "text", "plain": "text",
}

// Normalize lower-cases tag and resolves known aliases. Unknown tags are
// returned lower-cased and trimmed.
func Normalize(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if canonical, ok := aliases[t]; ok {
		return canonical
	}
	return t
}

// Known reports whether tag (in any accepted spelling) is a language we
// recognize.
func Known(tag string) bool {
	_, ok := aliases[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}
