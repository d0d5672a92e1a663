package types

import (
	"errors"
	"fmt"
)

// ErrorType groups parse errors by the part of the input they concern.
type ErrorType string

const (
	TypeQuotes        ErrorType = "Quotes"
	TypeDelimiter     ErrorType = "Delimiter"
	TypeFieldMismatch ErrorType = "FieldMismatch"
	TypeSource        ErrorType = "Source"
)

// ErrorCode identifies a parse error.
type ErrorCode string

const (
	CodeMissingQuotes         ErrorCode = "MissingQuotes"
	CodeInvalidQuotes         ErrorCode = "InvalidQuotes"
	CodeUndetectableDelimiter ErrorCode = "UndetectableDelimiter"
	CodeTooFewFields          ErrorCode = "TooFewFields"
	CodeTooManyFields         ErrorCode = "TooManyFields"
	CodeUnreadable            ErrorCode = "Unreadable"
)

var (
	ErrMissingQuotes         = errors.New("quoted field unterminated")
	ErrInvalidQuotes         = errors.New("trailing quote on quoted field is malformed")
	ErrUndetectableDelimiter = errors.New("unable to auto-detect delimiting character")
	ErrTooFewFields          = errors.New("too few fields")
	ErrTooManyFields         = errors.New("too many fields")
	ErrUnknownEncoding       = errors.New("unknown encoding")
	ErrUnsupportedSource     = errors.New("unsupported source")
)

// ParseError describes one problem found while parsing.
// Row is the zero-based index of the data row it concerns, or -1 when it
// is not tied to a row.
type ParseError struct {
	Type    ErrorType `json:"type" yaml:"type"`
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
	Row     int       `json:"row" yaml:"row"`
	Err     error     `json:"-" yaml:"-"`
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Row < 0 {
		return fmt.Sprintf("csvparse: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("csvparse: row %d: %s: %s", e.Row, e.Code, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewSourceError wraps a fatal failure to open, read or decode the input.
func NewSourceError(err error) *ParseError {
	return &ParseError{
		Type:    TypeSource,
		Code:    CodeUnreadable,
		Message: err.Error(),
		Row:     -1,
		Err:     err,
	}
}
