package types

import "math"

const (
	// RecordSep is the ASCII record separator, a delimiter candidate.
	RecordSep = "\x1e"
	// UnitSep is the ASCII unit separator, a delimiter candidate.
	UnitSep = "\x1f"
	// BOM is the UTF-8 byte order mark.
	BOM = "\uFEFF"

	DefaultDelimiter = ","
	DefaultQuote     = '"'

	// ParsedExtraKey holds the surplus fields of a row longer than the header.
	ParsedExtraKey = "__parsed_extra"

	// GuessPreview is the number of rows sampled per delimiter candidate.
	GuessPreview = 10
	// GuessSampleSize bounds the bytes inspected when detecting the newline.
	GuessSampleSize = 1024 * 1024
)

// MaxSafeFloat bounds the magnitude of values converted by dynamic typing.
// Larger numbers cannot be represented exactly and stay strings.
var MaxSafeFloat = math.Pow(2, 53)

// DelimitersToGuess lists the candidates tried when no delimiter is configured.
var DelimitersToGuess = []string{",", "\t", "|", ";", RecordSep, UnitSep}

// Newlines lists the accepted record separators.
var Newlines = []string{"\r\n", "\n", "\r"}
