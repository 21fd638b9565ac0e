package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeMalformedRow     = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeRequiredField    = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType      = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidValue     = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeInvalidLength    = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeDuplicateInFile  = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeReferenceMissing = "ERR_IMPORT_REFERENCE_NOT_FOUND"
	ErrCodeRejected         = "ERR_IMPORT_REJECTED"
)

var (
	// ErrEmptyFile is returned when the file has no content at all
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned for content that is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrMissingHeader is returned when the first line has no column names
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// RowError describes a problem with one cell or line of the file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a RowError
func NewRowError(row int, column, code, message string) *RowError {
	return &RowError{Row: row, Column: column, Code: code, Message: message}
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection; maxErrors <= 0 means 100
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records an error
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

func (ec *ErrorCollection) addWithValue(row int, column, code, message, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: code, Message: message, Value: value})
}

// Errors returns the kept errors in the order they were added
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount includes errors dropped past the limit
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether anything was added
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// String lists the kept errors one per line
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
