package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamhimansu/csvparse/pkg/csvparse/config"
	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
	"github.com/iamhimansu/csvparse/pkg/csvparse/writer"
)

type convertOptions struct {
	delimiter      string
	newline        string
	alwaysQuote    bool
	escapeFormulae bool
	append         bool
	compress       string
}

func convertCmd(g *globalOptions) *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Rewrite a delimited file with a different dialect",
		Long: "Parse input and write it back as CSV. Output defaults to stdout.\n" +
			"With --append the rows are added to an existing file under an exclusive lock\n" +
			"after checking that its header matches.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			inputs, err := resolveInputs(cmd, args[:1])
			if err != nil {
				return err
			}
			in := inputs[0]
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			o.delimiter = config.ResolveDelimiter(o.delimiter)
			o.newline = config.ResolveNewline(o.newline)
			if err := config.NewLoader(nil).ValidateDialect(o.delimiter, o.newline); err != nil {
				return fmt.Errorf("invalid output dialect: %w", err)
			}

			var fields []string
			opts := append(cfg.Options(),
				parser.WithLogger(g.logger),
				parser.WithFields(func(f []string) { fields = f }),
			)
			pcfg := cfg.ToConfig()
			var srcErr error
			pcfg.Error = func(err error) { srcErr = err }

			if o.append {
				if out == "" || out == "-" {
					return errors.New("--append needs an output file")
				}
				res := parser.NewEngine(opts...).Parse(cmd.Context(), in.src, &pcfg)
				if srcErr != nil {
					return srcErr
				}
				logRowErrors(g, in.name, res.Errors)
				header, records, err := writer.Records(fields, res.Data)
				if err != nil {
					return err
				}
				app := writer.NewFileAppender(writer.AppendConfig{
					Path:           out,
					Delimiter:      o.delimiter,
					Newline:        o.newline,
					AlwaysQuote:    o.alwaysQuote,
					EscapeFormulae: o.escapeFormulae,
				})
				return app.Append(header, records)
			}

			w, closeOut, err := openOutput(cmd, out, o.compress)
			if err != nil {
				return err
			}
			cw := writer.NewWriter(w)
			cw.Delimiter = o.delimiter
			cw.Newline = o.newline
			cw.AlwaysQuote = o.alwaysQuote
			cw.EscapeFormulae = o.escapeFormulae

			headerDone := false
			var werr error
			opts = append(opts, parser.WithStep(func(row *types.Result[any], h parser.Handle) {
				if !headerDone && fields != nil {
					werr = cw.Write(fields)
				}
				headerDone = true
				if werr == nil {
					werr = writeRows(cw, fields, row.Data)
				}
				if werr != nil {
					h.Abort()
				}
			}))
			res := parser.NewEngine(opts...).Parse(cmd.Context(), in.src, &pcfg)
			logRowErrors(g, in.name, res.Errors)
			if !headerDone && fields != nil && werr == nil {
				werr = cw.Write(fields)
			}

			err = errors.Join(srcErr, werr, cw.Flush())
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	addParseFlags(cmd.Flags())
	cmd.Flags().StringVar(&o.delimiter, "to-delimiter", ",", "Output field delimiter")
	cmd.Flags().StringVar(&o.newline, "to-newline", `\n`, "Output record separator")
	cmd.Flags().BoolVar(&o.alwaysQuote, "quote-all", false, "Quote every output field")
	cmd.Flags().BoolVar(&o.escapeFormulae, "escape-formulae", false, "Prefix values that look like spreadsheet formulas with '")
	cmd.Flags().BoolVar(&o.append, "append", false, "Append to the output file instead of replacing it")
	cmd.Flags().StringVar(&o.compress, "compress", "", "Compress output: lz4")
	return cmd
}

// writeRows writes rows in the column order of fields. Header rows with no
// fields fall back to sorted keys.
func writeRows(cw *writer.Writer, fields []string, data []any) error {
	_, records, err := writer.Records(fields, data)
	if err != nil {
		return err
	}
	return cw.WriteAll(records)
}

func logRowErrors(g *globalOptions, source string, errs []error) {
	for _, err := range errs {
		g.logger.Warn("row error", "source", source, "error", err)
	}
	if len(errs) > 0 {
		g.logger.Info("problems found", "source", source, "count", len(errs))
	}
}
