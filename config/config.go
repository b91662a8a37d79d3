// Package config handles .orgql.toml project configuration: default todo/done
// keywords, the category property name, and custom query variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents an .orgql.toml configuration file.
type Config struct {
	Org   OrgConfig         `toml:"org"`
	Query QueryConfig       `toml:"query"`
	Cache CacheConfig       `toml:"cache"`
	Vars  map[string]string `toml:"vars"`

	// Dir is the directory containing the .orgql.toml file (set at load time).
	Dir string `toml:"-"`
}

// OrgConfig configures how org files are loaded and interpreted.
type OrgConfig struct {
	TodoKeys         []string `toml:"todo-keys"`
	DoneKeys         []string `toml:"done-keys"`
	CategoryProperty string   `toml:"category-property"`
}

// QueryConfig configures default pagination passed into every query's scope.
type QueryConfig struct {
	Offset int `toml:"offset"`
	Limit  int `toml:"limit"`
}

// CacheConfig configures the on-disk cache of parsed Org files.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load parses an .orgql.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ".orgql.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return &c, nil
}

// Default returns a Config with built-in defaults and no file backing it.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if len(c.Org.TodoKeys) == 0 {
		c.Org.TodoKeys = []string{"TODO"}
	}
	if len(c.Org.DoneKeys) == 0 {
		c.Org.DoneKeys = []string{"DONE"}
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(c.cacheDir(), "cache.db")
	}
}

func (c *Config) cacheDir() string {
	if c.Dir != "" {
		return filepath.Join(c.Dir, ".orgql")
	}
	return ".orgql"
}

// FindAndLoad walks up from startDir looking for an .orgql.toml file, then
// loads and returns it. Returns a bare-default Config if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ".orgql.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
