package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/iamhimansu/csvparse/pkg/csvparse/parser"
	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// Loader resolves a FileConfig from its sources.
type Loader struct {
	fs        afero.Fs
	validator *validator.Validate
}

// NewLoader creates a Loader that reads config files from fs, or from the OS
// file system when fs is nil.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	v := validator.New()
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("newline", func(fl validator.FieldLevel) bool {
		return slices.Contains(types.Newlines, fl.Field().String())
	})
	_ = v.RegisterValidation("skipmode", func(fl validator.FieldLevel) bool {
		_, ok := parser.ParseSkipMode(fl.Field().String())
		return ok
	})
	return &Loader{fs: fs, validator: v}
}

// Load merges defaults, the file at path (skipped when empty), the
// environment and overrides, then decodes and validates the result.
// Overrides are keyed like the file; nil values are ignored.
func (l *Loader) Load(path string, overrides map[string]any) (*FileConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	known := k.Keys()

	if path != "" {
		data, err := l.readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawMap(data), nil); err != nil {
			return nil, fmt.Errorf("failed to apply config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			if !slices.Contains(known, key) {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(rawMap(filterNil(overrides)), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg FileConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.normalize()
	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its field rules.
func (l *Loader) Validate(cfg *FileConfig) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Delimiter != "" && cfg.Delimiter == cfg.QuoteChar {
		return fmt.Errorf("configuration validation failed: delimiter %q equals quote_char", cfg.Delimiter)
	}
	return nil
}

// ValidateDialect checks an output delimiter and newline against the same
// rules as a loaded configuration. Both must be set.
func (l *Loader) ValidateDialect(delimiter, newline string) error {
	if delimiter == "" || newline == "" {
		return errors.New("configuration validation failed: delimiter and newline must be set")
	}
	cfg := Default()
	cfg.Delimiter = delimiter
	cfg.Newline = newline
	return l.Validate(cfg)
}

func (l *Loader) readFile(path string) (map[string]any, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return filterNil(out), nil
}

func filterNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// rawMap adapts a plain map to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("ReadBytes not implemented")
}
