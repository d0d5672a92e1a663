package writer

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name:    "multipleRecords",
			records: [][]string{{"alpha", "beta"}, {"gamma", "delta"}},
			want:    "alpha,beta\ngamma,delta\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    ",b\n",
		},
		{
			name:    "commaForcesQuote",
			records: [][]string{{"alpha,beta"}},
			want:    "\"alpha,beta\"\n",
		},
		{
			name:    "quoteEscaping",
			records: [][]string{{"he said \"hello\"", "plain"}},
			want:    "\"he said \"\"hello\"\"\",plain\n",
		},
		{
			name:    "newlineForcesQuote",
			records: [][]string{{"multi\nline", "z"}},
			want:    "\"multi\nline\",z\n",
		},
		{
			name:    "edgeSpacesForceQuote",
			records: [][]string{{" lead", "trail ", "in side"}},
			want:    "\" lead\",\"trail \",in side\n",
		},
		{
			name:    "alwaysQuote",
			records: [][]string{{"alpha", "beta"}},
			config:  func(w *Writer) { w.AlwaysQuote = true },
			want:    "\"alpha\",\"beta\"\n",
		},
		{
			name:    "multiByteDelimiter",
			records: [][]string{{"a", "b::c"}},
			config:  func(w *Writer) { w.Delimiter = "::" },
			want:    "a::\"b::c\"\n",
		},
		{
			name:    "customQuote",
			records: [][]string{{"alpha'beta", "plain"}},
			config:  func(w *Writer) { w.Quote = '\'' },
			want:    "'alpha''beta',plain\n",
		},
		{
			name:    "escapeChar",
			records: [][]string{{"say \"hi\""}},
			config:  func(w *Writer) { w.Escape = '\\' },
			want:    "\"say \\\"hi\\\"\"\n",
		},
		{
			name:    "escapeCharEscapesItself",
			records: [][]string{{"x\"\\", "y"}},
			config:  func(w *Writer) { w.Escape = '\\' },
			want:    "\"x\\\"\\\\\",y\n",
		},
		{
			name:    "crlf",
			records: [][]string{{"a"}, {"b"}},
			config:  func(w *Writer) { w.Newline = "\r\n" },
			want:    "a\r\nb\r\n",
		},
		{
			name:    "escapeFormulae",
			records: [][]string{{"=SUM(A1)", "-3", "ok"}},
			config:  func(w *Writer) { w.EscapeFormulae = true },
			want:    "\"'=SUM(A1)\",\"'-3\",ok\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				require.NoError(t, w.Write(rec))
			}
			require.NoError(t, w.Flush())
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestWriterReadBack(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"x\"\\", "y"},
		{"trailing\\", "\\\"", "plain"},
		{"multi\nline", "a,b", " padded "},
	}
	for _, escape := range []byte{0, '\\'} {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		w.Escape = escape
		w.AlwaysQuote = escape != 0
		require.NoError(t, w.WriteAll(records))
		require.NoError(t, w.Flush())

		r := parser.NewReader(&buf)
		r.Escape = escape
		got, err := r.ReadAll()
		require.NoError(t, err)
		require.Len(t, got, len(records))
		for i, rec := range got {
			assert.Empty(t, rec.Issues, "escape %q record %d", escape, i)
			assert.Equal(t, records[i], rec.Fields, "escape %q record %d", escape, i)
		}
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteAll([][]string{{"alpha", "beta"}, {"gamma", "delta"}}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "alpha,beta\ngamma,delta\n", buf.String())
}

func TestWriterReset(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	var w Writer
	w.Reset(&buf1)
	require.NoError(t, w.Write([]string{"a"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "a\n", buf1.String())

	w.Delimiter = ";"
	w.Newline = "\r\n"
	w.Reset(&buf2)
	require.NoError(t, w.Write([]string{"x", "y"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "x;y\r\n", buf2.String())
}

type failWriter struct {
	fail error
}

func (f *failWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&failWriter{fail: exp})
	require.NoError(t, w.Write([]string{"a"}))
	assert.ErrorIs(t, w.Flush(), exp)
	assert.ErrorIs(t, w.Write([]string{"b"}), exp)
	assert.ErrorIs(t, w.Error(), exp)
}

func TestWriterNil(t *testing.T) {
	t.Parallel()

	var w *Writer
	assert.Error(t, w.Write([]string{"a"}))
	assert.Error(t, w.Flush())
	assert.Panics(t, func() { NewWriter(nil) })
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 10, 30, 0, 5_000_000, time.FixedZone("X", 3600))
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{false, "false"},
		{float64(3), "3"},
		{-1.5, "-1.5"},
		{1e21, "1000000000000000000000"},
		{ts, "2024-03-01T09:30:00.005Z"},
		{42, "42"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.in), "value %#v", tc.in)
	}
}

func TestRecords(t *testing.T) {
	t.Parallel()

	t.Run("slices", func(t *testing.T) {
		t.Parallel()
		header, recs, err := Records(nil, []any{
			[]string{"a", "b"},
			[]any{1.5, nil, true},
		})
		require.NoError(t, err)
		assert.Nil(t, header)
		assert.Equal(t, [][]string{{"a", "b"}, {"1.5", "", "true"}}, recs)
	})

	t.Run("mapsInHeaderOrder", func(t *testing.T) {
		t.Parallel()
		header, recs, err := Records([]string{"b", "a"}, []any{
			map[string]any{"a": "1", "b": "2"},
			map[string]any{"a": "3", "b": "4", types.ParsedExtraKey: []string{"x", "y"}},
			map[string]string{"a": "5"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, header)
		assert.Equal(t, [][]string{{"2", "1"}, {"4", "3", "x", "y"}, {"", "5"}}, recs)
	})

	t.Run("mapsWithoutHeader", func(t *testing.T) {
		t.Parallel()
		header, recs, err := Records(nil, []any{
			map[string]any{"z": 1.0, "a": "x"},
			map[string]any{"m": false},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "m", "z"}, header)
		assert.Equal(t, [][]string{{"x", "", "1"}, {"", "false", ""}}, recs)
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		_, _, err := Records(nil, []any{42})
		assert.ErrorContains(t, err, "row 0")
	})
}

func TestFileAppender(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	app := NewFileAppender(AppendConfig{Path: "/out/data.csv", Fs: fs})

	err := app.Append(nil, [][]string{{"1", "2"}})
	require.ErrorIs(t, err, ErrNoHeader)

	require.NoError(t, app.Append([]string{"a", "b"}, [][]string{{"1", "2"}}))
	require.NoError(t, app.Append([]string{"a", "b"}, [][]string{{"3", "x,y"}}))
	require.NoError(t, app.Append(nil, [][]string{{"5", "6"}}))

	err = app.Append([]string{"a", "c"}, [][]string{{"7", "8"}})
	require.ErrorIs(t, err, ErrHeaderMismatch)

	got, err := afero.ReadFile(fs, "/out/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,\"x,y\"\n5,6\n", string(got))
}

func TestFileAppenderOsFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/nested/data.tsv"
	app := NewFileAppender(AppendConfig{Path: path, Delimiter: "\t"})
	require.NoError(t, app.Append([]string{"k", "v"}, [][]string{{"1", "one"}}))
	require.NoError(t, app.Append([]string{"k", "v"}, [][]string{{"2", "two"}}))

	got, err := afero.ReadFile(afero.NewOsFs(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "k\tv\n"))
	assert.Equal(t, "k\tv\n1\tone\n2\ttwo\n", string(got))
}

var errCloseFailed = errors.New("close failed")

type closeFailFs struct{ afero.Fs }

func (fs closeFailFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return closeFailFile{f}, nil
}

type closeFailFile struct{ afero.File }

func (f closeFailFile) Close() error {
	_ = f.File.Close()
	return errCloseFailed
}

func TestFileAppenderCloseError(t *testing.T) {
	t.Parallel()

	fs := closeFailFs{afero.NewMemMapFs()}
	app := NewFileAppender(AppendConfig{Path: "/data.csv", Fs: fs})
	err := app.Append([]string{"a"}, [][]string{{"1"}})
	require.ErrorIs(t, err, errCloseFailed)

	got, rerr := afero.ReadFile(fs.Fs, "/data.csv")
	require.NoError(t, rerr)
	assert.Equal(t, "a\n1\n", string(got))
}
