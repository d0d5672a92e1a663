package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iamhimansu/csvparse/pkg/csvparse/config"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

var errNoInput = errors.New("no input: pass a file or pipe data on stdin")

// configKeys maps parse flags to config keys.
var configKeys = map[string]string{
	"delimiter":        "delimiter",
	"newline":          "newline",
	"header":           "header",
	"dynamic-typing":   "dynamic_typing",
	"preview":          "preview",
	"encoding":         "encoding",
	"quote-char":       "quote_char",
	"escape-char":      "escape_char",
	"comments":         "comments",
	"skip-empty-lines": "skip_empty_lines",
}

func addParseFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML or JSON config file")
	fs.StringP("delimiter", "d", "", `Field delimiter; empty detects it ("tab", "\t" and "\x1f" are accepted)`)
	fs.String("newline", "", "Record separator: lf, cr or crlf; empty detects it")
	fs.BoolP("header", "H", false, "Treat the first row as field names")
	fs.BoolP("dynamic-typing", "t", false, "Convert numbers, booleans, dates and empty values")
	fs.IntP("preview", "n", 0, "Stop after this many data rows; 0 reads everything")
	fs.StringP("encoding", "e", "", "Input text encoding; empty sniffs it")
	fs.String("quote-char", `"`, "Character that encloses quoted fields")
	fs.String("escape-char", "", "Character that escapes a quote inside quoted fields")
	fs.String("comments", "", "Skip lines starting with this prefix")
	fs.String("skip-empty-lines", "none", "Drop empty rows: none, empty or greedy")
}

// loadConfig resolves the config file, CSVPARSE_* environment and the flags
// that were set explicitly.
func loadConfig(fs *pflag.FlagSet) (*config.FileConfig, error) {
	overrides := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := configKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})
	path, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	return config.NewLoader(nil).Load(path, overrides)
}

type input struct {
	name string
	src  types.Source
}

// resolveInputs maps arguments to sources. No arguments or "-" read stdin,
// which must not be a terminal.
func resolveInputs(cmd *cobra.Command, args []string) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	inputs := make([]input, 0, len(args))
	stdinUsed := false
	for _, arg := range args {
		if arg != "-" {
			inputs = append(inputs, input{name: filepath.Clean(arg), src: types.File{Name: arg}})
			continue
		}
		if stdinUsed {
			return nil, fmt.Errorf("stdin given more than once")
		}
		stdinUsed = true
		in, err := stdinReader(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{name: "-", src: types.Stream{Reader: in}})
	}
	return inputs, nil
}

func stdinReader(r io.Reader) (io.Reader, error) {
	if f, ok := r.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return nil, errNoInput
		}
	}
	return r, nil
}
