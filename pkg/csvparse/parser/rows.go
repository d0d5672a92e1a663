package parser

import (
	"fmt"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// shaper turns tokenized records into row values.
type shaper struct {
	dynamic bool
	fields  []string
}

// dedupeFields renames repeated header names to name_1, name_2, ...
// skipping any name already taken.
func dedupeFields(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if used[name] {
			n := next[h]
			if n == 0 {
				n = 1
			}
			for {
				name = fmt.Sprintf("%s_%d", h, n)
				n++
				if !used[name] {
					break
				}
			}
			next[h] = n
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// shape converts fields into a row: []string or []any without a header,
// map[string]any keyed by field name with one. A header row whose width differs
// from the record yields a field count error for the data row at index row.
func (s *shaper) shape(fields []string, row int) (any, *types.ParseError) {
	if s.fields == nil {
		if !s.dynamic {
			return fields, nil
		}
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = convertValue(f)
		}
		return values, nil
	}

	var mismatch *types.ParseError
	switch {
	case len(fields) < len(s.fields):
		mismatch = fieldCountError(types.CodeTooFewFields, types.ErrTooFewFields, len(s.fields), len(fields), row)
	case len(fields) > len(s.fields):
		mismatch = fieldCountError(types.CodeTooManyFields, types.ErrTooManyFields, len(s.fields), len(fields), row)
	}

	n := min(len(fields), len(s.fields))
	m := make(map[string]any, len(s.fields)+1)
	for i := 0; i < n; i++ {
		m[s.fields[i]] = s.value(fields[i])
	}
	if len(fields) > n {
		if s.dynamic {
			extra := make([]any, 0, len(fields)-n)
			for _, f := range fields[n:] {
				extra = append(extra, convertValue(f))
			}
			m[types.ParsedExtraKey] = extra
		} else {
			m[types.ParsedExtraKey] = append([]string(nil), fields[n:]...)
		}
	}
	return m, mismatch
}

func (s *shaper) value(f string) any {
	if s.dynamic {
		return convertValue(f)
	}
	return f
}

func fieldCountError(code types.ErrorCode, err error, want, got, row int) *types.ParseError {
	return &types.ParseError{
		Type:    types.TypeFieldMismatch,
		Code:    code,
		Message: fmt.Sprintf("%s: expected %d fields but parsed %d", err.Error(), want, got),
		Row:     row,
		Err:     err,
	}
}
