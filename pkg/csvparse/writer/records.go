package writer

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// TimeLayout formats time values, matching millisecond ISO-8601 in UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Records converts parsed rows back into string records.
//
// Slice rows are formatted field by field. Map rows are laid out in header
// order; with no header the sorted union of keys is used and returned as the
// header. Surplus fields stored under the parsed-extra key are appended.
func Records(header []string, data []any) ([]string, [][]string, error) {
	if header == nil {
		header = collectKeys(data)
	}

	records := make([][]string, 0, len(data))
	for i, row := range data {
		switch r := row.(type) {
		case []string:
			records = append(records, r)
		case []any:
			rec := make([]string, len(r))
			for j, v := range r {
				rec[j] = FormatValue(v)
			}
			records = append(records, rec)
		case map[string]any:
			rec := make([]string, len(header), len(header)+1)
			for j, name := range header {
				rec[j] = FormatValue(r[name])
			}
			rec = appendExtra(rec, r[types.ParsedExtraKey])
			records = append(records, rec)
		case map[string]string:
			rec := make([]string, len(header))
			for j, name := range header {
				rec[j] = r[name]
			}
			records = append(records, rec)
		default:
			return nil, nil, fmt.Errorf("csvparse: cannot write row %d of type %T", i, row)
		}
	}
	return header, records, nil
}

// FormatValue renders a dynamically typed value as CSV text.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.UTC().Format(TimeLayout)
	default:
		return fmt.Sprint(t)
	}
}

func appendExtra(rec []string, extra any) []string {
	switch e := extra.(type) {
	case []string:
		return append(rec, e...)
	case []any:
		for _, v := range e {
			rec = append(rec, FormatValue(v))
		}
	}
	return rec
}

func collectKeys(data []any) []string {
	seen := make(map[string]struct{})
	for _, row := range data {
		switch r := row.(type) {
		case map[string]any:
			for k := range r {
				seen[k] = struct{}{}
			}
		case map[string]string:
			for k := range r {
				seen[k] = struct{}{}
			}
		}
	}
	delete(seen, types.ParsedExtraKey)
	if len(seen) == 0 {
		return nil
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return slices.Clip(keys)
}
