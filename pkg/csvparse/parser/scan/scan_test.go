package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type lineBreak struct {
	pos int
	cr  bool
}

func collect(input string, quote byte) []lineBreak {
	var out []lineBreak
	Scan([]byte(input), quote).LineBreaks(func(pos int, cr bool) {
		out = append(out, lineBreak{pos, cr})
	})
	return out
}

func TestLineBreaks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		quote byte
		want  []lineBreak
	}{
		{
			name:  "plainLF",
			input: "a,b\nc,d\n",
			quote: '"',
			want:  []lineBreak{{3, false}, {7, false}},
		},
		{
			name:  "crlf",
			input: "a\r\nb",
			quote: '"',
			want:  []lineBreak{{1, true}, {2, false}},
		},
		{
			name:  "quotedNewlineIgnored",
			input: "\"x\ny\"\nz",
			quote: '"',
			want:  []lineBreak{{5, false}},
		},
		{
			name:  "escapedQuoteKeepsState",
			input: "\"a\"\"\n\"\nb",
			quote: '"',
			want:  []lineBreak{{6, false}},
		},
		{
			name:  "customQuote",
			input: "'a\rb'\rc",
			quote: '\'',
			want:  []lineBreak{{5, true}},
		},
		{
			name:  "unmatchedQuoteIsLiteral",
			input: "a\",b\r\nc\r\n",
			quote: '"',
			want:  []lineBreak{{4, true}, {5, false}, {7, true}, {8, false}},
		},
		{
			name:  "unmatchedAfterPair",
			input: "\"x\ny\"\nz\"\nw",
			quote: '"',
			want:  []lineBreak{{5, false}, {8, false}},
		},
		{
			name:  "empty",
			input: "",
			quote: '"',
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, collect(tc.input, tc.quote))
		})
	}
}

func TestLineBreaksAcrossWords(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("x", 63) + "\n" + strings.Repeat("y", 64) + "\r"
	got := collect(input, '"')
	assert.Equal(t, []lineBreak{{63, false}, {128, true}}, got)
}
