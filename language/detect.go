// Package language labels snapshot files by language and sniffs binary content.
package language

import (
	"path"
	"strings"
)

const Unknown = "Unknown"

var byExtension = map[string]string{
	".go": "Go",
	".py": "Python", ".pyi": "Python",
	".js": "JavaScript", ".jsx": "JavaScript", ".mjs": "JavaScript", ".cjs": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript",
	".rs":   "Rust",
	".java": "Java", ".kt": "Kotlin",
	".c": "C", ".h": "C",
	".cpp": "C++", ".cc": "C++", ".cxx": "C++", ".hpp": "C++",
	".cs":    "C#",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".sh":    "Shell", ".bash": "Shell", ".zsh": "Shell",
	".html": "HTML", ".css": "CSS", ".scss": "SCSS",
	".json": "JSON",
	".yaml": "YAML", ".yml": "YAML",
	".toml": "TOML",
	".xml":  "XML",
	".md":   "Markdown", ".rst": "reStructuredText",
	".sql":   "SQL",
	".proto": "Protobuf",
	".txt":   "Text",
}

var byName = map[string]string{
	"makefile":       "Makefile",
	"gnumakefile":    "Makefile",
	"dockerfile":     "Dockerfile",
	"cmakelists.txt": "CMake",
	"gemfile":        "Ruby",
}

// Detect returns the language of a slash-separated path, or Unknown.
func Detect(p string) string {
	base := strings.ToLower(path.Base(p))
	if lang, ok := byName[base]; ok {
		return lang
	}
	if lang, ok := byExtension[path.Ext(base)]; ok {
		return lang
	}
	return Unknown
}

// Counts tallies paths per language.
func Counts(paths []string) map[string]int {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[Detect(p)]++
	}
	return counts
}
