package parser

import (
	"bufio"
	"bytes"
	"io"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

const defaultBufferSize = 64 * 1024

// Issue is a recoverable problem found while reading a record.
type Issue struct {
	Code types.ErrorCode
	Line int
}

// Record is one tokenized row.
type Record struct {
	Fields []string
	// Line is the 1-based line on which the record starts.
	Line int
	// Offset is the byte offset at which the record starts.
	Offset int64
	Issues []Issue
}

type boundary int

const (
	atDelimiter boundary = iota
	atNewline
	atEOF
)

// Reader splits a byte stream into records.
// It never fails on malformed quoting; such problems are reported as record Issues.
type Reader struct {
	src *bufio.Reader

	// Delimiter separates fields. Default is ",".
	Delimiter string
	// Newline separates records: "\n", "\r" or "\r\n". Default is "\n".
	Newline string
	// Quote opens and closes quoted fields. Default is '"'.
	Quote byte
	// Escape precedes a literal quote, or a literal escape, inside a quoted field.
	// Zero means Quote (doubled quotes).
	Escape byte
	// Comments, when set, marks lines to skip.
	Comments string

	field    []byte
	offset   int64
	line     int
	finished bool
}

// NewReader creates a Reader on r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("csvparse: reader source cannot be nil")
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, defaultBufferSize)
	}
	return &Reader{
		src:       br,
		Delimiter: types.DefaultDelimiter,
		Newline:   "\n",
		Quote:     types.DefaultQuote,
		field:     make([]byte, 0, 512),
		line:      1,
	}
}

// Offset reports the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// More reports whether unread input remains.
func (r *Reader) More() bool {
	if r.finished {
		return false
	}
	_, err := r.src.Peek(1)
	return err == nil
}

// Read returns the next record, or io.EOF when the input is exhausted.
// Any other error comes from the underlying reader.
func (r *Reader) Read() (Record, error) {
	if r.finished {
		return Record{}, io.EOF
	}
	if r.Delimiter == "" {
		r.Delimiter = types.DefaultDelimiter
	}
	if r.Newline == "" {
		r.Newline = "\n"
	}
	if r.Quote == 0 {
		r.Quote = types.DefaultQuote
	}

	for {
		if _, err := r.src.Peek(1); err != nil {
			if err == io.EOF {
				r.finished = true
			}
			return Record{}, err
		}
		if r.Comments == "" || !r.hasPrefix(r.Comments) {
			break
		}
		if err := r.skipLine(); err != nil {
			return Record{}, err
		}
	}

	rec := Record{Line: r.line, Offset: r.offset}
	for {
		r.field = r.field[:0]

		var (
			b   boundary
			err error
		)
		if r.peekIs(r.Quote) {
			b, err = r.readQuoted(&rec)
		} else {
			b, err = r.readUnquoted()
		}
		if err != nil {
			return Record{}, err
		}
		rec.Fields = append(rec.Fields, string(r.field))

		switch b {
		case atNewline:
			return rec, nil
		case atEOF:
			r.finished = true
			return rec, nil
		}
	}
}

// ReadAll collects the remaining records until io.EOF.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// readUnquoted consumes bytes up to the next delimiter, newline or EOF.
func (r *Reader) readUnquoted() (boundary, error) {
	delim0 := r.Delimiter[0]
	nl0 := r.Newline[0]
	for {
		b, ok, err := r.consumeBoundary()
		if err != nil || ok {
			return b, err
		}

		// Copy the run of bytes that cannot start a boundary.
		chunk, _ := r.src.Peek(r.src.Buffered())
		n := 1
		for n < len(chunk) && chunk[n] != delim0 && chunk[n] != nl0 {
			n++
		}
		r.field = append(r.field, chunk[:n]...)
		r.discard(n)
	}
}

// readQuoted consumes a quoted field starting at the opening quote.
func (r *Reader) readQuoted(rec *Record) (boundary, error) {
	quote := r.Quote
	escape := r.Escape
	if escape == 0 {
		escape = quote
	}
	startLine := r.line
	r.discard(1)

	for {
		chunk, err := r.src.Peek(1)
		if err != nil {
			if err != io.EOF {
				return 0, err
			}
			r.line += bytes.Count(r.field, []byte(r.Newline))
			rec.Issues = append(rec.Issues, Issue{Code: types.CodeMissingQuotes, Line: startLine})
			return atEOF, nil
		}
		c := chunk[0]

		if c == escape && escape != quote {
			pair, _ := r.src.Peek(2)
			if len(pair) == 2 && (pair[1] == quote || pair[1] == escape) {
				r.field = append(r.field, pair[1])
				r.discard(2)
			} else {
				r.field = append(r.field, c)
				r.discard(1)
			}
			continue
		}

		if c == quote {
			pair, _ := r.src.Peek(2)
			if escape == quote && len(pair) == 2 && pair[1] == quote {
				r.field = append(r.field, quote)
				r.discard(2)
				continue
			}

			r.discard(1)
			spaces := r.countSpaces()
			r.discard(spaces)
			b, ok, err := r.consumeBoundary()
			if err != nil {
				return 0, err
			}
			if ok {
				r.line += bytes.Count(r.field, []byte(r.Newline))
				return b, nil
			}

			// Not a closing quote after all; keep it and anything skipped.
			rec.Issues = append(rec.Issues, Issue{Code: types.CodeInvalidQuotes, Line: startLine})
			r.field = append(r.field, quote)
			for range spaces {
				r.field = append(r.field, ' ')
			}
			continue
		}

		chunk, _ = r.src.Peek(r.src.Buffered())
		n := 1
		for n < len(chunk) && chunk[n] != quote && chunk[n] != escape {
			n++
		}
		r.field = append(r.field, chunk[:n]...)
		r.discard(n)
	}
}

// consumeBoundary consumes a delimiter or newline at the read position.
// It reports false when neither is present and input remains.
func (r *Reader) consumeBoundary() (boundary, bool, error) {
	if r.hasPrefix(r.Delimiter) {
		r.discard(len(r.Delimiter))
		return atDelimiter, true, nil
	}
	if r.hasPrefix(r.Newline) {
		r.discard(len(r.Newline))
		r.line++
		return atNewline, true, nil
	}
	if _, err := r.src.Peek(1); err != nil {
		if err == io.EOF {
			return atEOF, true, nil
		}
		return 0, false, err
	}
	return 0, false, nil
}

// countSpaces counts the spaces at the read position without consuming them.
// Spaces are not skipped when the delimiter itself starts with one.
func (r *Reader) countSpaces() int {
	if r.Delimiter[0] == ' ' {
		return 0
	}
	n := 0
	for {
		b, err := r.src.Peek(n + 1)
		if len(b) < n+1 || b[n] != ' ' {
			return n
		}
		if err != nil {
			return n
		}
		n++
	}
}

// skipLine discards a comment line including its newline.
func (r *Reader) skipLine() error {
	for {
		if r.hasPrefix(r.Newline) {
			r.discard(len(r.Newline))
			r.line++
			return nil
		}
		if _, err := r.src.ReadByte(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		r.offset++
	}
}

func (r *Reader) hasPrefix(s string) bool {
	b, err := r.src.Peek(len(s))
	if err != nil {
		return false
	}
	return string(b) == s
}

func (r *Reader) peekIs(c byte) bool {
	b, err := r.src.Peek(1)
	return err == nil && b[0] == c
}

func (r *Reader) discard(n int) {
	d, _ := r.src.Discard(n)
	r.offset += int64(d)
}

// dialect carries the tokenizer settings shared by detection and parsing.
type dialect struct {
	delimiter string
	newline   string
	quote     byte
	escape    byte
	comments  string
}

func (d dialect) reader(src io.Reader) *Reader {
	r := NewReader(src)
	r.Delimiter = d.delimiter
	r.Newline = d.newline
	r.Quote = d.quote
	r.Escape = d.escape
	r.Comments = d.comments
	return r
}
