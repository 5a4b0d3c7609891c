package internal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// filesafeLayout is fixed width, so lexicographic order equals chronological order
const filesafeLayout = "2006-01-02T15-04-05.000000000Z"

// FilesafeTimestamp formats t (in UTC) for use in file and directory names
func FilesafeTimestamp(t time.Time) string {
	return t.UTC().Format(filesafeLayout)
}

// ParseFilesafeTimestamp parses the leading timestamp token of a step filename
func ParseFilesafeTimestamp(name string) (time.Time, bool) {
	if len(name) < len(filesafeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(filesafeLayout, name[:len(filesafeLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewSessionID returns a sortable session id: prefix, creation time, random suffix
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return SessionIDPrefix + FilesafeTimestamp(now) + "-" + suffix
}

// ValidateSessionID rejects ids that are empty or unsafe as a directory name
func ValidateSessionID(id string) error {
	switch {
	case id == "":
		return &ValidationError{Field: "sessionId", Reason: "must not be empty"}
	case id == "." || id == "..":
		return &ValidationError{Field: "sessionId", Reason: "must not be a relative path element"}
	case strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0):
		return &ValidationError{Field: "sessionId", Reason: "must not contain path separators"}
	}
	return nil
}
