package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

var (
	floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)
	isoPattern   = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d(:[0-5]\d(\.\d+)?)?([+-][0-2]\d:[0-5]\d|Z)$`)
)

// isoLayouts are tried in order for values matching isoPattern.
var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"}

// SkipMode controls which empty rows are dropped.
type SkipMode int

const (
	// SkipNone keeps every row.
	SkipNone SkipMode = iota
	// SkipEmpty drops rows consisting of a single empty field.
	SkipEmpty
	// SkipGreedy also drops rows whose fields are all whitespace.
	SkipGreedy
)

func (m SkipMode) skips(fields []string) bool {
	switch m {
	case SkipEmpty:
		return len(fields) == 1 && fields[0] == ""
	case SkipGreedy:
		for _, f := range fields {
			if strings.TrimSpace(f) != "" {
				return false
			}
		}
		return true
	}
	return false
}

// ParseSkipMode maps "", "none", "false", "empty", "true" and "greedy" to a SkipMode.
func ParseSkipMode(s string) (SkipMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false":
		return SkipNone, true
	case "empty", "true":
		return SkipEmpty, true
	case "greedy":
		return SkipGreedy, true
	}
	return SkipNone, false
}

// convertValue applies dynamic typing to one field.
// Booleans, safe-range numbers and ISO-8601 timestamps are converted, an empty
// string becomes nil and anything else is returned unchanged.
func convertValue(v string) any {
	switch v {
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	case "":
		return nil
	}

	if floatPattern.MatchString(v) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && f > -types.MaxSafeFloat && f < types.MaxSafeFloat {
			return f
		}
		return v
	}

	if isoPattern.MatchString(v) {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return v
}
