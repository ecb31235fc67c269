package storage

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	nonWord      = regexp.MustCompile(`\W+`)
	invalidChars = regexp.MustCompile(`[\\/*?:"<>|]`)
)

// FilenameFor derives the local file name for a resource locator: the last
// segment of the URL path, or the whole locator flattened with underscores
// when the path has no file name.
func FilenameFor(locator string) string {
	name := ""
	if u, err := url.Parse(locator); err == nil {
		p := u.EscapedPath()
		name = p[strings.LastIndex(p, "/")+1:]
	}
	if name == "" || name == "." || name == ".." {
		name = nonWord.ReplaceAllString(locator, "_")
	}
	return invalidChars.ReplaceAllString(name, "_")
}
