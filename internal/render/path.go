package render

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxPathLen is the length above which directories are abbreviated.
const DefaultMaxPathLen = 35

// CompactPath shortens path for display: the home directory collapses to
// "~", and paths longer than maxLen keep only their first and last
// elements around an ellipsis.
func CompactPath(path, home string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxPathLen
	}
	home = strings.TrimRight(home, `/\`)
	if home != "" && (path == home || strings.HasPrefix(path, home+"/") || strings.HasPrefix(path, home+`\`)) {
		path = "~" + path[len(home):]
	}
	if utf8.RuneCountInString(path) <= maxLen {
		return path
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) <= 2 {
		return path
	}
	first, last := parts[0], parts[len(parts)-1]
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		first = "/" + first
	}
	return first + "/.../" + last
}
