package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Text = "corpus.txt"
	cfg.TargetGroup = "professions"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Workers)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("expected table output, got %q", cfg.Output.Format)
	}
	if cfg.Store.Enabled {
		t.Error("expected store to be disabled by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing text", func(c *Config) { c.Text = "" }, "text is required"},
		{"missing target group", func(c *Config) { c.TargetGroup = "" }, "target_group is required"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers must not be negative"},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"store without path", func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" }, "store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "text: corpus.txt\ntarget_group: adjectives\nworkers: 3\noutput:\n  format: CSV\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BIASMEASURE_TARGET_GROUP", "professions")
	t.Setenv("BIASMEASURE_LOG_LEVEL", "debug")

	v := viper.New()
	SetDefaults(v)
	ConfigureEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Text != "corpus.txt" {
		t.Errorf("expected text from file, got %q", cfg.Text)
	}
	if cfg.TargetGroup != "professions" {
		t.Errorf("expected env to override file, got %q", cfg.TargetGroup)
	}
	if cfg.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("expected normalized format csv, got %q", cfg.Output.Format)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Log.Level)
	}
	if cfg.StopWordLang != "en" {
		t.Errorf("expected default stop word language, got %q", cfg.StopWordLang)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/.biasmeasure/history.db")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, ".biasmeasure", "history.db")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got, _ := ExpandPath("relative/path"); got != "relative/path" {
		t.Errorf("expected relative path untouched, got %q", got)
	}
}
