// Package config loads the pbg YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/sanonone/pbg/pkg/hotspot"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	HTTPAddr  string `yaml:"http_addr"`
	AuthToken string `yaml:"auth_token"`
	LogLevel  string `yaml:"log_level"` // "debug", "info", "warn", "error"

	Import  ImportConfig  `yaml:"import"`
	Hotspot HotspotConfig `yaml:"hotspot"`
	Types   TypesConfig   `yaml:"types"`
}

// ImportConfig controls triple loading.
type ImportConfig struct {
	// PropertyPredicates are predicates stored as single-valued vertex
	// properties instead of edges.
	PropertyPredicates []string `yaml:"property_predicates"`
	// IndexedPredicates are stored as multi-valued indexed properties, e.g.
	// "text-at-pc", which a source line carries once per instruction.
	IndexedPredicates []string `yaml:"indexed_predicates"`
}

// HotspotConfig mirrors hotspot.Options.
type HotspotConfig struct {
	IgnorePrefix     *string `yaml:"ignore_prefix"` // nil keeps the default, "" disables
	AddressPrefix    string  `yaml:"address_prefix"`
	Width            int     `yaml:"width"`
	MissLabel        string  `yaml:"miss_label"`
	LineIndexKey     string  `yaml:"line_index_key"`
	LineContentLabel string  `yaml:"line_content_label"`
}

// TypesConfig configures the type resolver.
type TypesConfig struct {
	MaxDepth   int                         `yaml:"max_depth"`
	Qualifiers map[string]QualifierConfig `yaml:"qualifiers"`
}

// QualifierConfig adds a qualifier rule for a predicate label.
type QualifierConfig struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:  "./pbg_data",
		HTTPAddr: ":9191",
		LogLevel: "info",
		Import: ImportConfig{
			IndexedPredicates: []string{"text-at-pc"},
		},
		Types: TypesConfig{
			MaxDepth: debuginfo.DefaultMaxDepth,
		},
	}
}

// Load reads and parses the YAML configuration file at path on top of the
// defaults. Environment variables are expanded before parsing and unknown
// fields are rejected. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Hotspot.Width < 0 {
		return fmt.Errorf("hotspot.width must not be negative, got %d", c.Hotspot.Width)
	}
	if c.Types.MaxDepth < 0 {
		return fmt.Errorf("types.max_depth must not be negative, got %d", c.Types.MaxDepth)
	}
	for _, p := range c.Import.PropertyPredicates {
		if slices.Contains(c.Import.IndexedPredicates, p) {
			return fmt.Errorf("predicate %q is listed in both import.property_predicates and import.indexed_predicates", p)
		}
	}
	for label, q := range c.Types.Qualifiers {
		if q.Prefix == "" && q.Suffix == "" {
			return fmt.Errorf("qualifier %q needs a prefix or a suffix", label)
		}
	}
	return nil
}

// EngineOptions returns the engine options for this configuration.
func (c *Config) EngineOptions(logger *slog.Logger) engine.Options {
	opts := engine.DefaultOptions(c.DataDir)
	opts.Logger = logger
	return opts
}

// HotspotOptions returns the analyzer options, defaults filled in.
func (c *Config) HotspotOptions() hotspot.Options {
	opts := hotspot.DefaultOptions()
	h := c.Hotspot
	if h.IgnorePrefix != nil {
		opts.IgnorePrefix = *h.IgnorePrefix
	}
	if h.AddressPrefix != "" {
		opts.AddressPrefix = h.AddressPrefix
	}
	if h.Width > 0 {
		opts.Width = h.Width
	}
	if h.MissLabel != "" {
		opts.MissLabel = h.MissLabel
	}
	if h.LineIndexKey != "" {
		opts.LineIndexKey = h.LineIndexKey
	}
	if h.LineContentLabel != "" {
		opts.LineContentLabel = h.LineContentLabel
	}
	return opts
}

// ResolverOptions returns the type resolver options.
func (c *Config) ResolverOptions() []debuginfo.ResolverOption {
	opts := []debuginfo.ResolverOption{debuginfo.WithMaxDepth(c.Types.MaxDepth)}
	for label, q := range c.Types.Qualifiers {
		opts = append(opts, debuginfo.WithQualifier(label, debuginfo.Qualifier{Prefix: q.Prefix, Suffix: q.Suffix}))
	}
	return opts
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", level)
	}
}
