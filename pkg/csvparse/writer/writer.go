package writer

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

const defaultBufferSize = 4 * 1024

var (
	errNilWriter      = errors.New("csvparse: writer is nil")
	errWriterNoTarget = errors.New("csvparse: writer destination cannot be nil")
)

// formulaPrefixes start values that spreadsheet applications evaluate.
const formulaPrefixes = "=+-@\t\r"

// Writer emits CSV records with configurable delimiters and quoting rules.
type Writer struct {
	dst *bufio.Writer

	// Delimiter separates fields. Default is ",".
	Delimiter string
	// Quote encloses fields that need quoting. Default is '"'.
	Quote byte
	// Escape precedes quotes inside quoted fields. Zero doubles the quote.
	Escape byte
	// Newline terminates records. Default is "\n".
	Newline string
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool
	// EscapeFormulae prefixes values that start like a spreadsheet formula with a single quote.
	EscapeFormulae bool

	err error
}

// NewWriter creates a new Writer with internal buffering.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:       bufio.NewWriterSize(w, defaultBufferSize),
		Delimiter: types.DefaultDelimiter,
		Quote:     types.DefaultQuote,
		Newline:   "\n",
	}
}

// Reset discards buffered data and errors and directs output to dst.
// Settings are kept.
func (w *Writer) Reset(dst io.Writer) {
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single CSV record terminated with the configured newline.
func (w *Writer) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	delim := w.Delimiter
	if delim == "" {
		delim = types.DefaultDelimiter
	}
	newline := w.Newline
	if newline == "" {
		newline = "\n"
	}

	for i := range record {
		if i > 0 {
			if _, err := w.dst.WriteString(delim); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeField(record[i], delim); err != nil {
			w.err = err
			return err
		}
	}

	if _, err := w.dst.WriteString(newline); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) writeField(field, delim string) error {
	quote := w.Quote
	if quote == 0 {
		quote = types.DefaultQuote
	}
	escape := w.Escape
	if escape == 0 {
		escape = quote
	}

	formula := w.EscapeFormulae && field != "" && strings.IndexByte(formulaPrefixes, field[0]) >= 0
	if formula {
		field = "'" + field
	}

	if !w.AlwaysQuote && !formula && !fieldNeedsQuote(field, delim, quote) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	// A distinct escape byte is escaped too, so the field reads back unchanged.
	start := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c != quote && (c != escape || escape == quote) {
			continue
		}
		if start < i {
			if _, err := w.dst.WriteString(field[start:i]); err != nil {
				return err
			}
		}
		if _, err := w.dst.Write([]byte{escape, c}); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field, delim string, quote byte) bool {
	if field == "" {
		return false
	}
	if field[0] == ' ' || field[len(field)-1] == ' ' {
		return true
	}
	if strings.Contains(field, delim) || strings.HasPrefix(field, types.BOM) {
		return true
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, '\n', '\r':
			return true
		}
	}
	return false
}
