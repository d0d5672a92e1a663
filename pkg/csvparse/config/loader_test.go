package config

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

func writeFile(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should return defaults when no sources provided", func(t *testing.T) {
		cfg, err := NewLoader(afero.NewMemMapFs()).Load("", nil)

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, types.Config{}, cfg.ToConfig())
	})

	t.Run("Should read a YAML file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/csvparse.yaml", "delimiter: tab\nheader: true\ndynamic_typing: true\npreview: 5\nnewline: crlf\n")

		cfg, err := NewLoader(fs).Load("/csvparse.yaml", nil)

		require.NoError(t, err)
		assert.Equal(t, types.Config{
			Delimiter:     "\t",
			Newline:       "\r\n",
			Header:        true,
			DynamicTyping: true,
			Preview:       5,
		}, cfg.ToConfig())
	})

	t.Run("Should read a JSON file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/csvparse.json", `{"delimiter": ";", "skip_empty_lines": "greedy", "encoding": "latin1"}`)

		cfg, err := NewLoader(fs).Load("/csvparse.json", nil)

		require.NoError(t, err)
		assert.Equal(t, ";", cfg.Delimiter)
		assert.Equal(t, "greedy", cfg.SkipEmptyLines)
		assert.Equal(t, "latin1", cfg.Encoding)
	})

	t.Run("Should reject unknown keys", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/bad.yaml", "delimiter: ','\nworker: true\n")

		_, err := NewLoader(fs).Load("/bad.yaml", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker")
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := NewLoader(afero.NewMemMapFs()).Load("/missing.yaml", nil)

		assert.ErrorContains(t, err, "not found")
	})

	t.Run("Should apply environment over the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/csvparse.yaml", "delimiter: '|'\npreview: 3\n")
		t.Setenv("CSVPARSE_PREVIEW", "7")
		t.Setenv("CSVPARSE_HEADER", "true")
		t.Setenv("CSVPARSE_UNRELATED", "ignored")

		cfg, err := NewLoader(fs).Load("/csvparse.yaml", nil)

		require.NoError(t, err)
		assert.Equal(t, "|", cfg.Delimiter)
		assert.Equal(t, 7, cfg.Preview)
		assert.True(t, cfg.Header)
	})

	t.Run("Should apply overrides last", func(t *testing.T) {
		t.Setenv("CSVPARSE_DELIMITER", ";")

		cfg, err := NewLoader(afero.NewMemMapFs()).Load("", map[string]any{
			"delimiter": `\x1f`,
			"preview":   nil,
			"comments":  "#",
		})

		require.NoError(t, err)
		assert.Equal(t, types.UnitSep, cfg.Delimiter)
		assert.Equal(t, 0, cfg.Preview)
		assert.Equal(t, "#", cfg.Comments)
	})

	t.Run("Should validate configuration after loading", func(t *testing.T) {
		cases := map[string]map[string]any{
			"newline":    {"newline": "\t"},
			"preview":    {"preview": -1},
			"quote":      {"quote_char": "ab"},
			"skip mode":  {"skip_empty_lines": "sometimes"},
			"delimiter":  {"delimiter": "a\nb"},
			"same chars": {"delimiter": "'", "quote_char": "'"},
		}
		for name, overrides := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := NewLoader(afero.NewMemMapFs()).Load("", overrides)
				assert.ErrorContains(t, err, "validation failed")
			})
		}
	})
}

func TestLoader_ValidateDialect(t *testing.T) {
	t.Run("Should accept a valid output dialect", func(t *testing.T) {
		assert.NoError(t, NewLoader(nil).ValidateDialect("\t", "\r\n"))
	})

	t.Run("Should reject dialects the reader cannot parse", func(t *testing.T) {
		cases := map[string][2]string{
			"quote delimiter":  {`"`, "\n"},
			"newline in delim": {",\n", "\n"},
			"tab newline":      {",", "\t"},
			"empty delimiter":  {"", "\n"},
			"empty newline":    {",", ""},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				err := NewLoader(nil).ValidateDialect(tc[0], tc[1])
				assert.ErrorContains(t, err, "validation failed")
			})
		}
	})
}

func TestFileConfig_Options(t *testing.T) {
	t.Run("Should configure the engine", func(t *testing.T) {
		cfg, err := NewLoader(afero.NewMemMapFs()).Load("", map[string]any{
			"quote_char":       "'",
			"comments":         "#",
			"skip_empty_lines": "true",
			"delimiter":        ",",
		})
		require.NoError(t, err)

		pcfg := cfg.ToConfig()
		res := parser.NewEngine(cfg.Options()...).Parse(context.Background(),
			types.Text("# note\n'a,b',c\n\nd,e\n"), &pcfg)

		require.Empty(t, res.Errors)
		assert.Equal(t, []any{
			[]string{"a,b", "c"},
			[]string{"d", "e"},
		}, res.Data)
	})

	t.Run("Should only set the quote char for defaults", func(t *testing.T) {
		opts := Default().Options()
		assert.Len(t, opts, 1)
	})
}
