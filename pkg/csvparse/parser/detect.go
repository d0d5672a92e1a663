package parser

import (
	"bytes"
	"math"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser/scan"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// guessNewline picks the record separator used by sample.
// Line breaks inside quoted sections are ignored.
func guessNewline(sample []byte, quote byte) string {
	if len(sample) > types.GuessSampleSize {
		sample = sample[:types.GuessSampleSize]
	}

	firstCR, firstLF := -1, -1
	crCount, crlfCount := 0, 0
	scan.Scan(sample, quote).LineBreaks(func(pos int, cr bool) {
		if cr {
			if firstCR < 0 {
				firstCR = pos
			}
			crCount++
			if pos+1 < len(sample) && sample[pos+1] == '\n' {
				crlfCount++
			}
			return
		}
		if firstLF < 0 {
			firstLF = pos
		}
	})

	if crCount == 0 {
		return "\n"
	}
	if firstLF >= 0 && firstLF < firstCR {
		return "\n"
	}
	if float64(crlfCount) >= float64(crCount+1)/2 {
		return "\r\n"
	}
	return "\r"
}

// guessDelimiter tries every candidate on the first rows of sample and keeps the one
// yielding the most consistent field counts. It reports false when none qualifies.
func guessDelimiter(sample []byte, d dialect, skip SkipMode) (string, bool) {
	var (
		best         string
		bestDelta    = math.Inf(1)
		bestFieldAvg = math.Inf(-1)
		found        bool
	)

	for _, delim := range types.DelimitersToGuess {
		d.delimiter = delim
		r := d.reader(bytes.NewReader(sample))

		var (
			delta      float64
			fieldSum   float64
			rows       int
			emptyLines int
			prevCount  = -1
		)
		for rows < types.GuessPreview {
			rec, err := r.Read()
			if err != nil {
				break
			}
			rows++
			if skip.skips(rec.Fields) {
				emptyLines++
				continue
			}
			fieldCount := len(rec.Fields)
			fieldSum += float64(fieldCount)
			if prevCount < 0 {
				prevCount = fieldCount
				continue
			}
			delta += math.Abs(float64(fieldCount - prevCount))
			prevCount = fieldCount
		}

		avg := 0.0
		if counted := rows - emptyLines; counted > 0 {
			avg = fieldSum / float64(counted)
		}
		if delta <= bestDelta && avg > bestFieldAvg && avg > 1.99 {
			best = delim
			bestDelta = delta
			bestFieldAvg = avg
			found = true
		}
	}

	if !found {
		return types.DefaultDelimiter, false
	}
	return best, true
}

// validDelimiter rejects separators that would make records ambiguous.
func validDelimiter(delim string, quote byte) bool {
	switch delim {
	case "", "\r", "\n", types.BOM, string(quote):
		return false
	}
	return true
}

func validNewline(nl string) bool {
	for _, candidate := range types.Newlines {
		if nl == candidate {
			return true
		}
	}
	return false
}
