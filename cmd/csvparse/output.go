package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iamhimansu/csvparse/pkg/csvparse/storage"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
	"github.com/iamhimansu/csvparse/pkg/csvparse/writer"
)

// document is the rendered result of one input.
type document struct {
	Source string      `json:"source" yaml:"source"`
	Fields []string    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Data   []any       `json:"data" yaml:"data"`
	Errors []errorView `json:"errors" yaml:"errors"`
	Meta   types.Meta  `json:"meta" yaml:"meta"`

	failed bool
}

type errorView struct {
	Type    types.ErrorType `json:"type,omitempty" yaml:"type,omitempty"`
	Code    types.ErrorCode `json:"code,omitempty" yaml:"code,omitempty"`
	Message string          `json:"message" yaml:"message"`
	Row     *int            `json:"row,omitempty" yaml:"row,omitempty"`
}

func errorViews(errs []error) []errorView {
	views := make([]errorView, 0, len(errs))
	for _, err := range errs {
		var perr *types.ParseError
		if !errors.As(err, &perr) {
			views = append(views, errorView{Message: err.Error()})
			continue
		}
		v := errorView{Type: perr.Type, Code: perr.Code, Message: perr.Message}
		if perr.Row >= 0 {
			row := perr.Row
			v.Row = &row
		}
		views = append(views, v)
	}
	return views
}

// openOutput returns the destination for path ("" or "-" is stdout) and a
// close function that flushes any compression frame.
func openOutput(cmd *cobra.Command, path, compress string) (io.Writer, func() error, error) {
	var (
		w       io.Writer
		closers []io.Closer
	)
	if path == "" || path == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := afero.NewOsFs().Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output: %w", err)
		}
		w = f
		closers = append(closers, f)
	}

	switch storage.Compression(compress) {
	case "", storage.CompressionNone:
	case storage.CompressionLZ4:
		zw, err := storage.Compress(w)
		if err != nil {
			return nil, nil, errors.Join(err, closeAll(closers))
		}
		w = zw
		closers = append([]io.Closer{zw}, closers...)
	default:
		return nil, nil, errors.Join(fmt.Errorf("unsupported compression %q", compress), closeAll(closers))
	}
	return w, func() error { return closeAll(closers) }, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func render(w io.Writer, format string, docs []*document) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(docs) == 1 {
			return enc.Encode(docs[0])
		}
		return enc.Encode(docs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		var err error
		if len(docs) == 1 {
			err = enc.Encode(docs[0])
		} else {
			err = enc.Encode(docs)
		}
		if err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		cw := writer.NewWriter(w)
		for _, doc := range docs {
			if err := writeCSV(cw, doc.Fields, doc.Data); err != nil {
				return fmt.Errorf("%s: %w", doc.Source, err)
			}
		}
		return cw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeCSV(cw *writer.Writer, fields []string, data []any) error {
	header, records, err := writer.Records(fields, data)
	if err != nil {
		return err
	}
	if header != nil {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	return cw.WriteAll(records)
}
