// Package config defines the biasmeasure configuration and its viper
// layering: flags, BIASMEASURE_* environment variables, the config file,
// then built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "BIASMEASURE"

// Log contains configuration for log output.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Output controls how results are presented.
type Output struct {
	Format string `mapstructure:"format" yaml:"format"` // table, csv or json
	Dir    string `mapstructure:"dir" yaml:"dir"`       // when set, CSV files are written here
}

// Store controls the optional SQLite run history.
type Store struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Config holds every setting of a measurement run.
type Config struct {
	Text            string `mapstructure:"text" yaml:"text"`
	TargetGroup     string `mapstructure:"target_group" yaml:"target_group"`
	DemographicFile string `mapstructure:"demographic_file" yaml:"demographic_file"`
	TargetFile      string `mapstructure:"target_file" yaml:"target_file"`
	Workers         int    `mapstructure:"workers" yaml:"workers"`
	StopWordLang    string `mapstructure:"stopword_lang" yaml:"stopword_lang"`

	Log    Log    `mapstructure:"log" yaml:"log"`
	Output Output `mapstructure:"output" yaml:"output"`
	Store  Store  `mapstructure:"store" yaml:"store"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      1,
		StopWordLang: "en",
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Output: Output{
			Format: "table",
		},
		Store: Store{
			Enabled: false,
			Path:    "~/.biasmeasure/history.db",
		},
	}
}

// Dir returns the biasmeasure home directory (~/.biasmeasure).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".biasmeasure"), nil
}

// SetDefaults registers every key with v so that environment variables are
// honoured by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("text", d.Text)
	v.SetDefault("target_group", d.TargetGroup)
	v.SetDefault("demographic_file", d.DemographicFile)
	v.SetDefault("target_file", d.TargetFile)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("stopword_lang", d.StopWordLang)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("store.enabled", d.Store.Enabled)
	v.SetDefault("store.path", d.Store.Path)
}

// ConfigureEnv makes v read BIASMEASURE_* variables, mapping nested keys
// with underscores (log.level -> BIASMEASURE_LOG_LEVEL).
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals the merged viper state into a Config and expands paths.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	var err error
	for _, p := range []*string{&c.Text, &c.DemographicFile, &c.TargetFile, &c.Output.Dir, &c.Store.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.TargetGroup = strings.TrimSpace(c.TargetGroup)
	return nil
}

// Validate ensures the configuration can drive a measurement.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("text is required (--text or BIASMEASURE_TEXT)")
	}
	if c.TargetGroup == "" {
		return errors.New("target_group is required (--target-group or BIASMEASURE_TARGET_GROUP)")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Output.Format {
	case "table", "csv", "json":
	default:
		return fmt.Errorf("output.format must be one of table, csv, json; got %q", c.Output.Format)
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must be set when store.enabled is true")
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
