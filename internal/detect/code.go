package detect

import (
	"regexp"
	"sort"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#]*)\\n?(.*?)```")

// languageMarkers are cheap syntax heuristics used when a fence carries no
// language tag, or for unfenced snippets.
var languageMarkers = map[string][]*regexp.Regexp{
	"python": compileAll(
		`(?m)^\s*def\s+\w+\s*\(`,
		`(?m)^\s*import\s+\w+`,
		`(?m)^\s*from\s+\w+\s+import\b`,
		`\bprint\s*\(`,
		`\bos\.system\s*\(`,
	),
	"javascript": compileAll(
		`(?m)^\s*(?:const|let|var)\s+\w+\s*=`,
		`\bfunction\s+\w+\s*\(`,
		`\bconsole\.log\s*\(`,
		`=>\s*[{(]`,
	),
	"php": compileAll(
		`<\?php`,
		`(?m)^\s*\$\w+\s*=`,
		`\becho\s+['"$]`,
	),
	"go": compileAll(
		`(?m)^\s*func\s+\w+\s*\(`,
		`(?m)^\s*package\s+\w+\s*$`,
		`\bfmt\.Print`,
	),
	"bash": compileAll(
		`(?m)^#!/bin/(?:ba)?sh`,
		`\brm\s+-rf\b`,
		`\bchmod\s+\d{3}\b`,
	),
}

var fenceAliases = map[string]string{
	"py":     "python",
	"python": "python",
	"js":     "javascript",
	"node":   "javascript",
	"php":    "php",
	"go":     "go",
	"golang": "go",
	"sh":     "bash",
	"shell":  "bash",
	"bash":   "bash",
}

// DetectCode reports the languages of code found in text, restricted to the
// requested set (lowercased). Fenced blocks are trusted first; marker
// heuristics cover untagged fences and inline snippets.
func (b *Bundle) DetectCode(text string, languages []string) []string {
	wanted := make(map[string]bool, len(languages))
	for _, l := range languages {
		wanted[strings.ToLower(strings.TrimSpace(l))] = true
	}

	found := make(map[string]bool)

	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(strings.TrimSpace(m[1]))
		body := m[2]
		if lang, ok := fenceAliases[tag]; ok {
			if wanted[lang] {
				found[lang] = true
			}
			continue
		}
		for lang := range wanted {
			if matchesLanguage(lang, body) {
				found[lang] = true
			}
		}
	}

	for lang := range wanted {
		if found[lang] {
			continue
		}
		if matchesLanguage(lang, text) {
			found[lang] = true
		}
	}

	out := make([]string, 0, len(found))
	for lang := range found {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func matchesLanguage(lang, text string) bool {
	for _, re := range languageMarkers[lang] {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
