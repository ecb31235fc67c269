package storage

import (
	"strings"
	"time"
)

// UnknownDateBucket is the directory used when a date hint is absent or unparseable
const UnknownDateBucket = "unknown-date"

// dateLayouts are the ISO-8601 shapes WordPress and friends emit, most
// specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DateBucket turns a timestamp hint into a YYYY-MM-DD directory name.
// A trailing or embedded "Z" zone marker is ignored. Anything that does not
// parse yields UnknownDateBucket.
func DateBucket(hint string) string {
	hint = strings.TrimSpace(strings.ReplaceAll(hint, "Z", ""))
	if hint == "" {
		return UnknownDateBucket
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, hint); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return UnknownDateBucket
}
