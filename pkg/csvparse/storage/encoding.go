package storage

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// Decode returns a UTF-8 reader over r. A non-empty name selects the encoding
// (any WHATWG label such as "utf-16le" or "windows-1252"); otherwise the charset is
// sniffed from the first bytes and UTF-8 is assumed when nothing is found.
// A leading byte order mark is always removed. The resolved encoding name is
// returned alongside the reader.
func Decode(r io.Reader, name string) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	var (
		enc      encoding.Encoding
		resolved string
		err      error
	)
	if name != "" {
		enc, err = htmlindex.Get(name)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s", types.ErrUnknownEncoding, name)
		}
		resolved = canonicalName(enc, name)
	} else {
		enc, resolved = sniffEncoding(br)
	}

	return transform.NewReader(br, unicode.BOMOverride(enc.NewDecoder())), resolved, nil
}

// sniffEncoding resolves the charset of the first bytes. A charset named by
// mimetype wins; otherwise valid UTF-8 stays UTF-8 and anything else goes
// through the HTML encoding sniffer, which ends at windows-1252.
func sniffEncoding(br *bufio.Reader) (encoding.Encoding, string) {
	head, _ := br.Peek(sniffSize)
	if len(head) == 0 {
		return unicode.UTF8, "utf-8"
	}

	mtype := mimetype.Detect(head).String()
	if _, params, err := mime.ParseMediaType(mtype); err == nil {
		if cs := strings.ToLower(params["charset"]); cs != "" {
			if enc, err := htmlindex.Get(cs); err == nil {
				return enc, canonicalName(enc, cs)
			}
		}
	}
	if utf8.Valid(trimPartialRune(head)) {
		return unicode.UTF8, "utf-8"
	}
	enc, name, _ := charset.DetermineEncoding(head, mtype)
	return enc, canonicalName(enc, name)
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

func canonicalName(enc encoding.Encoding, fallback string) string {
	if name, err := htmlindex.Name(enc); err == nil {
		return name
	}
	return strings.ToLower(fallback)
}
