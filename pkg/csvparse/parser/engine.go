package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/iamhimansu/csvparse/pkg/csvparse/storage"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
	"github.com/iamhimansu/csvparse/pkg/csvparse/utils"
)

// Engine is the default Parser. It is safe for concurrent use as long as the
// callbacks given through options are.
type Engine struct {
	logger   utils.Logger
	quote    byte
	escape   byte
	comments string
	skip     SkipMode
	step     StepFunc
	onFields func([]string)
	fs       afero.Fs
}

var _ Parser = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l utils.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithQuoteChar sets the byte that encloses quoted fields.
func WithQuoteChar(c byte) Option {
	return func(e *Engine) { e.quote = c }
}

// WithEscapeChar sets the byte that escapes a quote inside a quoted field.
func WithEscapeChar(c byte) Option {
	return func(e *Engine) { e.escape = c }
}

// WithComments skips lines starting with prefix.
func WithComments(prefix string) Option {
	return func(e *Engine) { e.comments = prefix }
}

// WithSkipEmptyLines drops empty rows, or with SkipGreedy rows whose fields are
// all whitespace.
func WithSkipEmptyLines(mode SkipMode) Option {
	return func(e *Engine) { e.skip = mode }
}

// WithStep streams rows to fn instead of collecting them.
func WithStep(fn StepFunc) Option {
	return func(e *Engine) { e.step = fn }
}

// WithFields is called once with the de-duplicated header names when
// Config.Header is set.
func WithFields(fn func(fields []string)) Option {
	return func(e *Engine) { e.onFields = fn }
}

// WithFs opens File sources that carry no Fs of their own on fs.
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// NewEngine returns an Engine configured by opts. It is safe for concurrent use.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: utils.NopLogger(),
		quote:  types.DefaultQuote,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.quote == 0 {
		e.quote = types.DefaultQuote
	}
	return e
}

// Parse reads src according to cfg, which may be nil. The returned result is
// never nil; source failures are reported in it and through cfg.Error.
func (e *Engine) Parse(ctx context.Context, src types.Source, cfg *types.Config) *types.Result[any] {
	if cfg == nil {
		cfg = &types.Config{}
	}
	res := &types.Result[any]{
		Data:   []any{},
		Errors: []error{},
	}

	rc, err := storage.Open(src, e.fs)
	if err != nil {
		return e.fail(res, cfg, err)
	}
	defer rc.Close()

	raw, compression, err := storage.Decompress(rc)
	if err != nil {
		return e.fail(res, cfg, err)
	}
	text, encoding, err := storage.Decode(raw, cfg.Encoding)
	if err != nil {
		return e.fail(res, cfg, err)
	}
	e.logger.Debug("opened source", "compression", compression, "encoding", encoding)

	p := &run{engine: e, cfg: cfg, res: res}
	p.shaper.dynamic = cfg.DynamicTyping
	if err := p.execute(ctx, text); err != nil {
		return e.fail(res, cfg, err)
	}

	e.logger.Debug("parse finished",
		"rows", p.rows,
		"errors", len(res.Errors),
		"aborted", res.Meta.Aborted,
		"truncated", res.Meta.Truncated,
	)
	if cfg.Complete != nil {
		cfg.Complete(res)
	}
	return res
}

func (e *Engine) fail(res *types.Result[any], cfg *types.Config, err error) *types.Result[any] {
	perr := types.NewSourceError(err)
	res.Errors = append(res.Errors, perr)
	res.Meta.Aborted = true
	e.logger.Error("source failed", "error", err)
	if cfg.Error != nil {
		cfg.Error(perr)
	}
	return res
}

type handle struct {
	aborted bool
}

func (h *handle) Abort() {
	h.aborted = true
}

// run holds the state of a single Parse call.
type run struct {
	engine     *Engine
	cfg        *types.Config
	res        *types.Result[any]
	shaper     shaper
	headerSeen bool
	rows       int
}

func (p *run) execute(ctx context.Context, text io.Reader) error {
	e := p.engine
	d := dialect{
		delimiter: p.cfg.Delimiter,
		newline:   p.cfg.Newline,
		quote:     e.quote,
		escape:    e.escape,
		comments:  e.comments,
	}

	guessNL := !validNewline(d.newline)
	guessDelim := !validDelimiter(d.delimiter, d.quote)

	size := defaultBufferSize
	if guessNL || guessDelim {
		size = types.GuessSampleSize
	}
	br := bufio.NewReaderSize(text, size)

	if guessNL || guessDelim {
		sample, err := br.Peek(size)
		if err != nil && err != io.EOF {
			return err
		}
		if guessNL {
			if d.newline != "" {
				e.logger.Warn("ignoring invalid newline", "newline", fmt.Sprintf("%q", d.newline))
			}
			d.newline = guessNewline(sample, d.quote)
			e.logger.Debug("detected newline", "newline", fmt.Sprintf("%q", d.newline))
		}
		if guessDelim {
			delim, ok := guessDelimiter(sample, d, e.skip)
			d.delimiter = delim
			if !ok {
				p.res.Errors = append(p.res.Errors, &types.ParseError{
					Type:    types.TypeDelimiter,
					Code:    types.CodeUndetectableDelimiter,
					Message: fmt.Sprintf("Unable to auto-detect delimiting character; defaulted to '%s'", types.DefaultDelimiter),
					Row:     -1,
					Err:     types.ErrUndetectableDelimiter,
				})
				e.logger.Warn("delimiter not detected", "default", types.DefaultDelimiter)
			} else {
				e.logger.Debug("detected delimiter", "delimiter", fmt.Sprintf("%q", delim))
			}
		}
	}

	p.res.Meta.Delimiter = d.delimiter
	p.res.Meta.Linebreak = d.newline

	r := d.reader(br)
	defer func() { p.res.Meta.Cursor = r.Offset() }()

	h := &handle{}
	for {
		if err := ctx.Err(); err != nil {
			p.res.Errors = append(p.res.Errors, err)
			p.res.Meta.Aborted = true
			return nil
		}
		if p.cfg.Preview > 0 && p.rows >= p.cfg.Preview {
			p.res.Meta.Truncated = r.More()
			return nil
		}

		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if e.skip.skips(rec.Fields) {
			continue
		}

		if p.cfg.Header && !p.headerSeen {
			p.headerSeen = true
			p.shaper.fields = dedupeFields(rec.Fields)
			p.res.Errors = append(p.res.Errors, issueErrors(rec.Issues, -1)...)
			if e.onFields != nil {
				e.onFields(append([]string(nil), p.shaper.fields...))
			}
			continue
		}

		row, mismatch := p.shaper.shape(rec.Fields, p.rows)
		rowErrs := issueErrors(rec.Issues, p.rows)
		if mismatch != nil {
			rowErrs = append(rowErrs, mismatch)
		}
		p.res.Errors = append(p.res.Errors, rowErrs...)

		if e.step == nil {
			p.res.Data = append(p.res.Data, row)
			p.rows++
			continue
		}

		meta := p.res.Meta
		meta.Cursor = r.Offset()
		e.step(&types.Result[any]{Data: []any{row}, Errors: rowErrs, Meta: meta}, h)
		p.rows++
		if h.aborted {
			p.res.Meta.Aborted = true
			return nil
		}
	}
}

func issueErrors(issues []Issue, row int) []error {
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, 0, len(issues))
	for _, is := range issues {
		perr := &types.ParseError{Type: types.TypeQuotes, Code: is.Code, Row: row}
		switch is.Code {
		case types.CodeMissingQuotes:
			perr.Err = types.ErrMissingQuotes
			perr.Message = fmt.Sprintf("Quoted field unterminated (line %d)", is.Line)
		default:
			perr.Err = types.ErrInvalidQuotes
			perr.Message = fmt.Sprintf("Trailing quote on quoted field is malformed (line %d)", is.Line)
		}
		errs = append(errs, perr)
	}
	return errs
}
