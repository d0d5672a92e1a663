package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/storage"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

var (
	ErrNoHeader       = errors.New("csvparse: cannot create new file without header")
	ErrHeaderMismatch = errors.New("csvparse: header mismatch")
)

// AppendConfig holds configuration for a FileAppender.
type AppendConfig struct {
	Path      string
	Delimiter string
	Newline   string

	AlwaysQuote    bool
	EscapeFormulae bool

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

// FileAppender appends records to a CSV file, writing the header when the
// file is new and checking it otherwise.
type FileAppender struct {
	config AppendConfig
}

func NewFileAppender(config AppendConfig) *FileAppender {
	if config.Delimiter == "" {
		config.Delimiter = types.DefaultDelimiter
	}
	if config.Newline == "" {
		config.Newline = "\n"
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	return &FileAppender{config: config}
}

// Append writes rows to the end of the file. On the OS file system an
// exclusive lock is held for the duration of the call.
func (a *FileAppender) Append(header []string, rows [][]string) (err error) {
	fs := a.config.Fs
	if err := fs.MkdirAll(filepath.Dir(a.config.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, ok := fs.(*afero.OsFs); ok {
		unlock, lerr := storage.LockFile(a.config.Path)
		if lerr != nil {
			return lerr
		}
		defer func() {
			if uerr := unlock(); uerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to unlock file: %w", uerr))
			}
		}()
	}

	file, err := fs.OpenFile(a.config.Path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close file: %w", cerr))
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	if stat.Size() == 0 {
		if len(header) == 0 {
			return ErrNoHeader
		}
		rows = append([][]string{header}, rows...)
	} else if len(header) > 0 {
		existing, err := a.readHeader(file)
		if err != nil {
			return fmt.Errorf("failed to read existing header: %w", err)
		}
		if !slices.Equal(existing, header) {
			return fmt.Errorf("%w: file %v, new %v", ErrHeaderMismatch, existing, header)
		}
	}

	w := NewWriter(file)
	w.Delimiter = a.config.Delimiter
	w.Newline = a.config.Newline
	w.AlwaysQuote = a.config.AlwaysQuote
	w.EscapeFormulae = a.config.EscapeFormulae
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Flush()
}

func (a *FileAppender) readHeader(file afero.File) ([]string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	r := parser.NewReader(file)
	r.Delimiter = a.config.Delimiter
	r.Newline = a.config.Newline
	rec, err := r.Read()
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	return rec.Fields, nil
}
