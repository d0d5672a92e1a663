package storage

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pierrec/lz4/v4"
)

// sniffSize is the number of leading bytes inspected to detect content types.
const sniffSize = 3072

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// Compression identifies how an input is compressed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionGzip Compression = "gzip"
)

// Decompress detects an lz4 frame or gzip stream at the head of r and returns
// a reader over the decompressed bytes. Other input is returned unchanged.
func Decompress(r io.Reader) (io.Reader, Compression, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, err
	}

	switch {
	case bytes.HasPrefix(head, lz4Magic):
		return lz4.NewReader(br), CompressionLZ4, nil
	case len(head) > 0 && mimetype.Detect(head).Is("application/gzip"):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, CompressionGzip, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, CompressionGzip, nil
	}
	return br, CompressionNone, nil
}

// Compress wraps w so that everything written is lz4 compressed.
// The returned writer must be closed to flush the final frame.
func Compress(w io.Writer) (io.WriteCloser, error) {
	lw := lz4.NewWriter(w)
	if err := lw.Apply(lz4.BlockSizeOption(lz4.Block64Kb)); err != nil {
		return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
	}
	return lw, nil
}
