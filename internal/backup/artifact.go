package backup

import (
	"strings"
	"time"
)

// DateFormat is the calendar-date layout encoded in backup filenames.
const DateFormat = "2006-01-02"

// Artifact is a single dated database backup file in a Store.
type Artifact struct {
	// Date is the backup's calendar date in YYYY-MM-DD form. ISO dates
	// sort chronologically as plain strings.
	Date string
	// Key is the store-specific locator (file path or object key).
	Key  string
	Size int64
}

// Name returns the artifact's base filename.
func (a Artifact) Name() string {
	if i := strings.LastIndexByte(a.Key, '/'); i >= 0 {
		return a.Key[i+1:]
	}
	return a.Key
}

// ParseDate extracts the date from a backup filename following the
// <name>-YYYY-MM-DD.sql[.gz][.age] convention. The second return is false
// for filenames that do not follow the convention.
func ParseDate(filename string) (string, bool) {
	base := filename
	for _, ext := range []string{".age", ".gz", ".sql"} {
		base = strings.TrimSuffix(base, ext)
	}
	if len(base) < len(DateFormat)+1 {
		return "", false
	}
	datePart := base[len(base)-len(DateFormat):]
	if base[len(base)-len(DateFormat)-1] != '-' {
		return "", false
	}
	if _, err := time.Parse(DateFormat, datePart); err != nil {
		return "", false
	}
	return datePart, true
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}
