// Package scan builds structural bitmaps over a byte slice: one bit per byte,
// 64 bytes per word, marking quotes and line-break characters.
package scan

import "math/bits"

// Bitmaps marks the positions of quote, carriage return and line feed bytes.
type Bitmaps struct {
	Quotes []uint64
	CR     []uint64
	LF     []uint64
	n      int
}

// New allocates bitmaps sized for n input bytes.
func New(n int) *Bitmaps {
	words := (n + 63) / 64
	return &Bitmaps{
		Quotes: make([]uint64, words),
		CR:     make([]uint64, words),
		LF:     make([]uint64, words),
		n:      n,
	}
}

// Scan fills fresh bitmaps for input using quote as the quote byte.
func Scan(input []byte, quote byte) *Bitmaps {
	bm := New(len(input))
	for i, b := range input {
		wordIdx := i / 64
		bitPos := uint(i % 64)
		switch b {
		case quote:
			bm.Quotes[wordIdx] |= 1 << bitPos
		case '\r':
			bm.CR[wordIdx] |= 1 << bitPos
		case '\n':
			bm.LF[wordIdx] |= 1 << bitPos
		}
	}
	return bm
}

// LineBreaks calls fn for every CR or LF outside a quoted section, in order.
// Quotes pair up left to right, so an escaped quote ("") leaves the state
// unchanged. A quote left open at the end is literal and the breaks after it
// are reported.
func (bm *Bitmaps) LineBreaks(fn func(pos int, cr bool)) {
	inQuote := false
	var pending []int
	flush := func() {
		for _, pos := range pending {
			fn(pos, bm.isCR(pos))
		}
		pending = pending[:0]
	}

words:
	for wordIdx := range bm.Quotes {
		quoteMask := bm.Quotes[wordIdx]
		crMask := bm.CR[wordIdx]
		lfMask := bm.LF[wordIdx]

		combined := quoteMask | crMask | lfMask
		for combined != 0 {
			tz := bits.TrailingZeros64(combined)
			bitMask := uint64(1) << tz
			combined &^= bitMask

			pos := wordIdx*64 + tz
			if pos >= bm.n {
				break words
			}
			switch {
			case quoteMask&bitMask != 0:
				inQuote = !inQuote
				pending = pending[:0]
			case inQuote:
				pending = append(pending, pos)
			default:
				fn(pos, crMask&bitMask != 0)
			}
		}
	}
	if inQuote {
		flush()
	}
}

func (bm *Bitmaps) isCR(pos int) bool {
	return bm.CR[pos/64]&(1<<uint(pos%64)) != 0
}
