// Package config loads the podherit run configuration and resolves
// per-ancestor effective configuration during attribution.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the run-wide configuration surface. Keys under force_inherits
// and entries of skip_classes may be either scan-root-relative file paths
// or class identifiers; path keys take precedence.
type Config struct {
	SkipUnderscored bool                `yaml:"skip_underscored"`
	ClassMap        map[string]string   `yaml:"class_map"`
	SkipClasses     []string            `yaml:"skip_classes"`
	SkipInherits    []string            `yaml:"skip_inherits"`
	ForceInherits   map[string][]string `yaml:"force_inherits"`
	MethodFormat    string              `yaml:"method_format"`
	MRO             string              `yaml:"mro"`
	OutDir          string              `yaml:"out_dir"`
	Langs           []string            `yaml:"langs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SkipUnderscored: true,
		MethodFormat:    "%m",
		MRO:             "dfs",
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot honor.
func (c *Config) Validate() error {
	switch c.MRO {
	case "", "dfs", "c3":
	default:
		return fmt.Errorf("unknown mro policy %q (want dfs or c3)", c.MRO)
	}
	if c.MethodFormat == "" {
		c.MethodFormat = "%m"
	}
	if c.MRO == "" {
		c.MRO = "dfs"
	}
	return nil
}

// ForcedFor returns the forced ancestors for a source class. A file-path
// key takes precedence over a class-identifier key.
func (c *Config) ForcedFor(path, class string) []string {
	if len(c.ForceInherits) == 0 {
		return nil
	}
	if forced, ok := c.ForceInherits[filepath.ToSlash(path)]; ok {
		return forced
	}
	return c.ForceInherits[class]
}

// SkipClass reports whether a source class is excluded from processing,
// matched by path or by class identifier.
func (c *Config) SkipClass(path, class string) bool {
	p := filepath.ToSlash(path)
	for _, s := range c.SkipClasses {
		if s == p || s == class {
			return true
		}
	}
	return false
}
