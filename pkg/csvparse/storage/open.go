package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

var errNotMappable = errors.New("file cannot be memory mapped")

// Open returns a reader over src. A File without its own Fs is opened on fs,
// or on the OS file system when fs is nil. Streams are never closed by the
// returned reader; they belong to the caller.
func Open(src types.Source, fs afero.Fs) (io.ReadCloser, error) {
	switch s := src.(type) {
	case types.Text:
		return io.NopCloser(strings.NewReader(string(s))), nil
	case types.Stream:
		if s.Reader == nil {
			return nil, fmt.Errorf("%w: nil stream", types.ErrUnsupportedSource)
		}
		return io.NopCloser(s.Reader), nil
	case types.File:
		return openFile(s, fs)
	case nil:
		return nil, fmt.Errorf("%w: nil source", types.ErrUnsupportedSource)
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrUnsupportedSource, src)
	}
}

func openFile(f types.File, fs afero.Fs) (io.ReadCloser, error) {
	fsys := f.Fs
	if fsys == nil {
		fsys = fs
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	file, err := fsys.Open(f.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	osFile, ok := file.(*os.File)
	if !ok {
		return file, nil
	}
	data, err := MmapFile(osFile)
	if err != nil {
		// Pipes, devices and empty files are read as plain streams.
		return file, nil
	}
	return &mappedFile{Reader: bytes.NewReader(data), data: data, file: osFile}, nil
}

// mappedFile reads a memory-mapped file and unmaps it on Close.
type mappedFile struct {
	*bytes.Reader
	data []byte
	file *os.File
}

func (m *mappedFile) Close() error {
	unmapErr := MunmapFile(m.data)
	m.data = nil
	closeErr := m.file.Close()
	return errors.Join(unmapErr, closeErr)
}
