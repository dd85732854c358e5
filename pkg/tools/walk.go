package tools

import (
	"regexp"
	"strings"
)

// ignoredDirs are directory names skipped by recursive list, glob, and
// grep. They hold generated or vendored content an agent never wants
// enumerated.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	".cache":       {},
	".venv":        {},
	"__pycache__":  {},
	"build":        {},
	"dist":         {},
	"node_modules": {},
}

func isIgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}

// compileWildcard translates a simplified wildcard pattern into an
// anchored regular expression: `**` crosses path separators, `*` and
// `?` do not. This is deliberately not full regexp syntax; every other
// character matches literally.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A`)
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(`.*`)
				i++
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`\z`)
	return regexp.Compile(b.String())
}

// matchName applies a compiled wildcard to a slash-separated relative
// path. Patterns without a separator match against the base name alone,
// so "*.go" finds files at any depth.
func matchName(re *regexp.Regexp, baseOnly bool, rel, base string) bool {
	if baseOnly {
		return re.MatchString(base)
	}
	return re.MatchString(rel)
}
