// Package config loads parse settings from defaults, a YAML or JSON file,
// CSVPARSE_* environment variables and explicit overrides, in that order.
package config

import (
	"strings"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// EnvPrefix marks environment variables read by the loader.
const EnvPrefix = "CSVPARSE_"

// FileConfig is the closed set of keys accepted from files, the environment
// and the command line. Unknown keys are rejected.
type FileConfig struct {
	Delimiter     string `koanf:"delimiter"      json:"delimiter"      yaml:"delimiter"      validate:"excludesall=\r\n"`
	Newline       string `koanf:"newline"        json:"newline"        yaml:"newline"        validate:"omitempty,newline"`
	Header        bool   `koanf:"header"         json:"header"         yaml:"header"`
	DynamicTyping bool   `koanf:"dynamic_typing" json:"dynamic_typing" yaml:"dynamic_typing"`
	Preview       int    `koanf:"preview"        json:"preview"        yaml:"preview"        validate:"gte=0"`
	Encoding      string `koanf:"encoding"       json:"encoding"       yaml:"encoding"`

	QuoteChar      string `koanf:"quote_char"       json:"quote_char"       yaml:"quote_char"       validate:"required,len=1,ascii"`
	EscapeChar     string `koanf:"escape_char"      json:"escape_char"      yaml:"escape_char"      validate:"omitempty,len=1,ascii"`
	Comments       string `koanf:"comments"         json:"comments"         yaml:"comments"`
	SkipEmptyLines string `koanf:"skip_empty_lines" json:"skip_empty_lines" yaml:"skip_empty_lines" validate:"skipmode"`
}

// Default returns the settings used when nothing else is configured.
func Default() *FileConfig {
	return &FileConfig{
		QuoteChar:      string(types.DefaultQuote),
		SkipEmptyLines: "none",
	}
}

// ToConfig returns the parse Config portion of c.
func (c *FileConfig) ToConfig() types.Config {
	return types.Config{
		Delimiter:     c.Delimiter,
		Newline:       c.Newline,
		Header:        c.Header,
		DynamicTyping: c.DynamicTyping,
		Preview:       c.Preview,
		Encoding:      c.Encoding,
	}
}

// Options returns the engine options for the settings that are not part of
// the parse Config. c is expected to be validated.
func (c *FileConfig) Options() []parser.Option {
	var opts []parser.Option
	if c.QuoteChar != "" {
		opts = append(opts, parser.WithQuoteChar(c.QuoteChar[0]))
	}
	if c.EscapeChar != "" {
		opts = append(opts, parser.WithEscapeChar(c.EscapeChar[0]))
	}
	if c.Comments != "" {
		opts = append(opts, parser.WithComments(c.Comments))
	}
	if mode, ok := parser.ParseSkipMode(c.SkipEmptyLines); ok && mode != parser.SkipNone {
		opts = append(opts, parser.WithSkipEmptyLines(mode))
	}
	return opts
}

var newlineAliases = map[string]string{
	"lf":   "\n",
	"cr":   "\r",
	"crlf": "\r\n",
}

var delimiterAliases = map[string]string{
	"tab":   "\t",
	"comma": ",",
	"pipe":  "|",
	"semi":  ";",
}

// normalize resolves aliases and backslash escapes typed on a command line or
// in a config file.
func (c *FileConfig) normalize() {
	c.Newline = ResolveNewline(c.Newline)
	c.Delimiter = ResolveDelimiter(c.Delimiter)
	c.SkipEmptyLines = strings.ToLower(strings.TrimSpace(c.SkipEmptyLines))
	c.Encoding = strings.TrimSpace(c.Encoding)
}

// ResolveNewline maps lf, cr and crlf, or backslash escapes, to the newline they name.
func ResolveNewline(s string) string {
	if v, ok := newlineAliases[strings.ToLower(s)]; ok {
		return v
	}
	return unescape(s)
}

// ResolveDelimiter maps names such as tab or pipe, or backslash escapes, to
// the delimiter they name.
func ResolveDelimiter(s string) string {
	if v, ok := delimiterAliases[strings.ToLower(s)]; ok {
		return v
	}
	return unescape(s)
}

var escapes = strings.NewReplacer(`\r`, "\r", `\n`, "\n", `\t`, "\t", `\x1e`, types.RecordSep, `\x1f`, types.UnitSep)

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}
