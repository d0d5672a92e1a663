// Package csvparse parses delimited text into rows.
//
// The contract lives in the types package: a closed Config, a Result generic over
// the row type, and three source kinds (Text, Stream, File). The parser package
// holds the Parser interface and the default Engine that implements it; the
// functions here are shortcuts over a shared default Engine.
//
//	res := csvparse.Parse(types.Text("a,b\n1,2\n"), &types.Config{Header: true})
//	rows, err := csvparse.Decode[map[string]any](res)
//
// Rows are []string without a header, []any with DynamicTyping, and
// map[string]any keyed by field name with a header.
package csvparse

import (
	"context"
	"fmt"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

var defaultEngine = parser.NewEngine()

// Parse parses src with the default engine. cfg may be nil.
func Parse(src types.Source, cfg *types.Config) *types.Result[any] {
	return ParseContext(context.Background(), src, cfg)
}

// ParseContext is Parse with cancellation; a cancelled context aborts the parse.
func ParseContext(ctx context.Context, src types.Source, cfg *types.Config) *types.Result[any] {
	return defaultEngine.Parse(ctx, src, cfg)
}

// Decode narrows the rows of res to T. A header row of string values also
// decodes to map[string]string. Errors and Meta are carried over unchanged.
func Decode[T any](res *types.Result[any]) (*types.Result[T], error) {
	if res == nil {
		return nil, fmt.Errorf("csvparse: nil result")
	}
	out := &types.Result[T]{
		Data:   make([]T, 0, len(res.Data)),
		Errors: res.Errors,
		Meta:   res.Meta,
	}
	for i, row := range res.Data {
		v, ok := row.(T)
		if !ok {
			v, ok = convertRow[T](row)
		}
		if !ok {
			var want T
			return nil, fmt.Errorf("csvparse: row %d is %T, not %T", i, row, want)
		}
		out.Data = append(out.Data, v)
	}
	return out, nil
}

// convertRow handles the one widening the engine performs: header rows are
// map[string]any even when every value is a string.
func convertRow[T any](row any) (T, bool) {
	var zero T
	m, ok := row.(map[string]any)
	if !ok {
		return zero, false
	}
	if _, want := any(zero).(map[string]string); !want {
		return zero, false
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return zero, false
		}
		out[k] = s
	}
	v, ok := any(out).(T)
	return v, ok
}
