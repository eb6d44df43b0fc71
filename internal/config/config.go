// Package config loads the arbor CLI configuration from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// ErrInvalid is returned for configurations that decode but make no sense.
var ErrInvalid = errors.New("invalid config")

// Output formats for tree dumps.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Config is the decoded configuration file.
//
//	history_db   = ".arbor/history.db"
//	exclude      = [".git", "node_modules", "*.tmp"]
//	parse_source = true
//	color        = false
//	output       = "yaml"
type Config struct {
	HistoryDB   string   `hcl:"history_db,optional"`
	Exclude     []string `hcl:"exclude,optional"`
	ParseSource *bool    `hcl:"parse_source,optional"`
	Color       *bool    `hcl:"color,optional"`
	Output      string   `hcl:"output,optional"`
	Workers     int      `hcl:"workers,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	on := true
	return &Config{
		HistoryDB:   ".arbor/history.db",
		Exclude:     []string{".git"},
		ParseSource: &on,
		Output:      OutputYAML,
	}
}

// Load decodes the file at filename over the defaults. A missing file is an
// error; an empty filename returns the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(filename, src)
}

// Parse decodes src. The filename extension picks native HCL (".hcl") or
// HCL's JSON syntax (".json").
func Parse(filename string, src []byte) (*Config, error) {
	var c Config
	if err := hclsimple.Decode(filename, src, nil, &c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", filename, err)
	}
	d := Default()
	if c.HistoryDB == "" {
		c.HistoryDB = d.HistoryDB
	}
	if c.Exclude == nil {
		c.Exclude = d.Exclude
	}
	if c.ParseSource == nil {
		c.ParseSource = d.ParseSource
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("%w: output %q, want %q or %q", ErrInvalid, c.Output, OutputYAML, OutputJSON)
	}
	for _, p := range c.Exclude {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %w", ErrInvalid, p, err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	return nil
}

// ColorEnabled reports whether output should be colored. Unset defers to
// the terminal check done by the caller.
func (c *Config) ColorEnabled(isTerminal bool) bool {
	if c.Color != nil {
		return *c.Color
	}
	return isTerminal
}

// ParseSources reports whether source files should be split into declarations.
func (c *Config) ParseSources() bool {
	return c.ParseSource == nil || *c.ParseSource
}
