package types

import (
	"io"

	"github.com/spf13/afero"
)

// Config holds the options for a single parse invocation.
// Every field is optional; the zero value asks the backend to detect
// the delimiter and newline and to return rows as plain string slices.
type Config struct {
	// Delimiter separates fields. Empty means auto-detect.
	Delimiter string
	// Newline separates records. Empty means auto-detect.
	Newline string
	// Header treats the first row as field names and returns rows keyed by them.
	Header bool
	// DynamicTyping converts numeric, boolean, date and empty values.
	DynamicTyping bool
	// Preview limits the number of data rows. Zero means no limit.
	Preview int
	// Encoding names the text encoding of the input (e.g. "utf-8", "windows-1252").
	Encoding string
	// Complete is called with the final result.
	Complete func(results *Result[any])
	// Error is called when the source cannot be opened, read or decoded.
	Error func(err error)
}

// Result is the outcome of one parse, generic over the row type.
type Result[T any] struct {
	Data   []T
	Errors []error
	Meta   Meta
}

// Meta describes how the input was parsed.
type Meta struct {
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	Linebreak string `json:"linebreak" yaml:"linebreak"`
	Aborted   bool   `json:"aborted" yaml:"aborted"`
	Truncated bool   `json:"truncated" yaml:"truncated"`
	Cursor    int64  `json:"cursor" yaml:"cursor"`
}

// Source is one of Text, Stream or File.
type Source interface {
	source()
}

// Text is raw CSV text.
type Text string

// Stream is a readable byte stream.
type Stream struct {
	io.Reader
}

// File is a named file-like blob. A nil Fs means the OS file system.
type File struct {
	Fs   afero.Fs
	Name string
}

func (Text) source()   {}
func (Stream) source() {}
func (File) source()   {}
