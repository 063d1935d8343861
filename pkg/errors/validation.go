package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLabelLength bounds column labels and row label text.
const MaxLabelLength = 128

// columnIDRegex matches column ids accepted from datasets and ops.
var columnIDRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:-]*$`)

// ValidateColumnID validates a column id from an external dataset.
// Ids are join keys used in row fields, mappings and cache keys, so they
// are restricted to a conservative character set.
func ValidateColumnID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDataset, "column id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidDataset, "column id too long (max 64 characters): %q", id)
	}
	if !columnIDRegex.MatchString(id) {
		return New(ErrCodeInvalidDataset, "invalid column id: %q", id)
	}
	return nil
}

// ValidateLabel validates a display label. Surrounding whitespace is
// ignored; control characters are rejected.
func ValidateLabel(label string) error {
	s := strings.TrimSpace(label)
	if s == "" {
		return New(ErrCodeInvalidInput, "label cannot be empty")
	}
	if len(s) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", MaxLabelLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains control characters")
		}
	}
	return nil
}

// sessionIDRegex matches canonical lowercase UUIDs.
var sessionIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateSessionID validates a session id. Ids become file names and
// database keys, so only canonical UUIDs are accepted.
func ValidateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid session id: %q", id)
	}
	return nil
}

// ValidatePath validates a local dataset path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateDSN validates a database connection string for the postgres
// source. Both URL and keyword/value forms are accepted.
func ValidateDSN(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return New(ErrCodeInvalidInput, "connection string cannot be empty")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}
	if strings.Contains(dsn, "=") {
		return nil
	}
	return New(ErrCodeInvalidInput, "connection string must be a postgres:// URL or key=value list")
}
