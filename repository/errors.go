package repository

import (
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// NewRecordNotFound returns the error used when a lookup matches no row
func NewRecordNotFound() *goerrors.Error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode("NOT_FOUND")
}

// IsRecordNotFound reports whether err signals a missing record
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, sql.ErrNoRows) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryNotFound
	}

	return false
}

const TextCodeDuplicateRecord = "DUPLICATE_RECORD"

const uniqueViolationMarker = "unique constraint failed: "

// NewDuplicateRecord wraps a unique constraint failure on column
func NewDuplicateRecord(err error, column string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryConflict, "record already exists").
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeDuplicateRecord).
		WithMetadata(map[string]any{"column": column})
}

// UniqueViolationColumn reports the first "table.column" named by a sqlite
// unique constraint failure anywhere in err's message.
func UniqueViolationColumn(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	message := strings.ToLower(err.Error())
	idx := strings.Index(message, uniqueViolationMarker)
	if idx < 0 {
		return "", false
	}

	rest := message[idx+len(uniqueViolationMarker):]
	if end := strings.IndexAny(rest, " ,()"); end >= 0 {
		rest = rest[:end]
	}
	return rest, rest != ""
}
