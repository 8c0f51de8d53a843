package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func newTestConfig(areas map[string]FocusArea) *Config {
	return &Config{FocusAreas: areas}
}

func TestAreaUnknownIsError(t *testing.T) {
	cfg := newTestConfig(map[string]FocusArea{
		"saas_opportunities": {Name: "SaaS", Subreddits: []string{"SaaS"}},
	})

	_, err := cfg.Area("typo_area")
	if err == nil {
		t.Fatal("unknown focus area must error before any work happens")
	}
	if !strings.Contains(err.Error(), "typo_area") {
		t.Errorf("error should name the bad id: %v", err)
	}
}

func TestAreaAppliesDefaults(t *testing.T) {
	cfg := newTestConfig(map[string]FocusArea{
		"local_llm": {Subreddits: []string{"LocalLLaMA"}},
	})

	area, err := cfg.Area("local_llm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.Mode != "opportunities" {
		t.Errorf("mode = %q, want default opportunities", area.Mode)
	}
	if area.Name != "local_llm" {
		t.Errorf("name = %q, want id fallback", area.Name)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := newTestConfig(map[string]FocusArea{
		"bad": {Subreddits: []string{"x"}, Mode: "sentiment"},
	})

	err := validateConfig(cfg)
	if err == nil || !strings.Contains(err.Error(), "sentiment") {
		t.Errorf("expected unknown-mode error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// Point viper at an empty temp dir so no real config file is picked up.
	viper.AddConfigPath(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Analysis.BatchSize != 50 {
		t.Errorf("batch_size default = %d, want 50", cfg.Analysis.BatchSize)
	}
	if cfg.Gemini.Timeout != "300s" {
		t.Errorf("gemini timeout default = %q", cfg.Gemini.Timeout)
	}
	if cfg.Storage.ReportsDir == "" {
		t.Error("reports_dir default missing")
	}
}
