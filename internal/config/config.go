// Package config loads client settings from a YAML file and DATABORG_*
// environment variables.
//
// Keys are nested and lower case:
//
//	endpoint:
//	  query: https://dbpedia.org/sparql
//	  update: https://dbpedia.org/sparql-auth
//	headers:
//	  authorization: Bearer ...
//	prefixes:
//	  dbo: http://dbpedia.org/ontology/
//	catalog:
//	  path: ./queries
//	journal:
//	  path: ./databorg.db
//	metrics:
//	  path: ./databorg.prom
//	log:
//	  level: info
//	  format: text
//
// An environment variable DATABORG_ENDPOINT_QUERY sets endpoint.query, and
// so on. Keys are case-insensitive, so header and prefix names are read in
// lower case.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	databorg "github.com/pneff/databorg-client"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "DATABORG_"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "databorg.yaml"

// Config is the file and environment configuration.
type Config struct {
	Endpoint Endpoint          `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	Headers  map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	Prefixes map[string]string `mapstructure:"prefixes" json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	Catalog  Path              `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Journal  Path              `mapstructure:"journal" json:"journal" yaml:"journal"`
	Metrics  Path              `mapstructure:"metrics" json:"metrics" yaml:"metrics,omitempty"`
	Log      Log               `mapstructure:"log" json:"log" yaml:"log"`
}

// Endpoint holds the SPARQL protocol addresses.
type Endpoint struct {
	Query  string `mapstructure:"query" json:"query" yaml:"query"`
	Update string `mapstructure:"update" json:"update,omitempty" yaml:"update,omitempty"`
}

// Path locates an on-disk resource. An empty Path disables it. The metrics
// path names a Prometheus textfile written when a command finishes.
type Path struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// Log configures the application logger.
type Log struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// ErrNoEndpoint is returned by Validate without a query endpoint.
var ErrNoEndpoint = errors.New("config: endpoint.query is required")

// Default returns the starter configuration written by "config init".
func Default() Config {
	return Config{
		Endpoint: Endpoint{Query: "https://dbpedia.org/sparql"},
		Prefixes: map[string]string{
			"dbo": "http://dbpedia.org/ontology/",
			"dbr": "http://dbpedia.org/resource/",
		},
		Catalog: Path{Path: "queries"},
		Journal: Path{Path: "databorg.db"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path (or DefaultFile when path is empty and the file exists)
// and applies environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", DefaultFile, err)
		}
	}

	applyEnv(v, os.Environ())

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// applyEnv maps DATABORG_A_B=value to key a.b.
func applyEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		prop := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		prop = strings.Trim(strings.ReplaceAll(prop, "_", "."), ".")
		if prop != "" {
			v.Set(prop, value)
		}
	}
}

// Validate checks the settings a client needs.
func (c Config) Validate() error {
	if c.Endpoint.Query == "" {
		return ErrNoEndpoint
	}
	return nil
}

// Client converts c into client settings.
func (c Config) Client() databorg.Config {
	return databorg.Config{
		QueryEndpoint:  c.Endpoint.Query,
		UpdateEndpoint: c.Endpoint.Update,
		Headers:        c.Headers,
		Prefixes:       c.Prefixes,
	}
}

// WriteFile writes c as YAML. An existing file is only replaced when force
// is set.
func WriteFile(path string, c Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists", path)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
