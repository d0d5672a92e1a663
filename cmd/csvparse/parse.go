package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iamhimansu/csvparse/pkg/csvparse/config"
	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
	"github.com/iamhimansu/csvparse/pkg/csvparse/utils"
)

func parseCmd(g *globalOptions) *cobra.Command {
	var (
		format   string
		out      string
		compress string
		ndjson   bool
		jobs     int
	)
	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse CSV files or stdin and print the rows",
		Long: "Parse one or more delimited text inputs. With no file, or with \"-\", stdin is read.\n" +
			"Files compressed with lz4 or gzip are decompressed transparently.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			inputs, err := resolveInputs(cmd, args)
			if err != nil {
				return err
			}
			w, closeOut, err := openOutput(cmd, out, compress)
			if err != nil {
				return err
			}

			if ndjson {
				err = streamRows(cmd.Context(), g.logger, cfg, inputs, w)
			} else {
				var docs []*document
				docs, err = parseAll(cmd.Context(), g.logger, cfg, inputs, jobs)
				if err == nil {
					err = render(w, format, docs)
				}
				if err == nil {
					err = failures(docs)
				}
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	addParseFlags(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().StringVar(&compress, "compress", "", "Compress output: lz4")
	cmd.Flags().BoolVar(&ndjson, "ndjson", false, "Stream one JSON object per row instead of buffering results")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of inputs parsed concurrently")
	return cmd
}

// parseAll parses inputs concurrently and returns their documents in
// argument order.
func parseAll(ctx context.Context, logger utils.Logger, cfg *config.FileConfig, inputs []input, jobs int) ([]*document, error) {
	docs := make([]*document, len(inputs))
	group, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		group.SetLimit(jobs)
	}
	for i, in := range inputs {
		doc := &document{Source: in.name}
		docs[i] = doc
		group.Go(func() error {
			opts := append(cfg.Options(),
				parser.WithLogger(logger),
				parser.WithFields(func(fields []string) { doc.Fields = fields }),
			)
			pcfg := cfg.ToConfig()
			pcfg.Error = func(error) { doc.failed = true }
			pcfg.Complete = func(res *types.Result[any]) {
				logger.Info("parsed", "source", in.name, "rows", len(res.Data), "errors", len(res.Errors))
			}

			res := parser.NewEngine(opts...).Parse(ctx, in.src, &pcfg)
			doc.Data = res.Data
			doc.Errors = errorViews(res.Errors)
			doc.Meta = res.Meta
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

type rowView struct {
	Source string      `json:"source"`
	Row    any         `json:"row"`
	Errors []errorView `json:"errors,omitempty"`
}

// streamRows writes each row as a JSON line as soon as it is parsed.
func streamRows(ctx context.Context, logger utils.Logger, cfg *config.FileConfig, inputs []input, w io.Writer) error {
	enc := json.NewEncoder(w)
	failed := 0
	for _, in := range inputs {
		var werr error
		opts := append(cfg.Options(),
			parser.WithLogger(logger),
			parser.WithStep(func(row *types.Result[any], h parser.Handle) {
				if werr = enc.Encode(rowView{Source: in.name, Row: row.Data[0], Errors: errorViews(row.Errors)}); werr != nil {
					h.Abort()
				}
			}),
		)
		pcfg := cfg.ToConfig()
		pcfg.Error = func(error) { failed++ }

		res := parser.NewEngine(opts...).Parse(ctx, in.src, &pcfg)
		if werr != nil {
			return fmt.Errorf("failed to write rows: %w", werr)
		}
		logger.Info("parsed", "source", in.name, "errors", len(res.Errors), "cursor", res.Meta.Cursor)
	}
	if failed > 0 {
		return fmt.Errorf("%d input(s) could not be read", failed)
	}
	return nil
}

func failures(docs []*document) error {
	n := 0
	for _, doc := range docs {
		if doc.failed {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d input(s) could not be read", n)
	}
	return nil
}
