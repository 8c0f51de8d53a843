package llm

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_AI_API_KEY", "")
	viper.Set("gemini.api_key", "")
	t.Cleanup(func() { viper.Set("gemini.api_key", nil) })

	_, err := NewClient("")
	if err == nil {
		t.Fatal("expected error without an API key")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should point at the env var: %v", err)
	}
}

func TestNewClientModelFallsBackToDefault(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	viper.Set("gemini.model", "")
	t.Cleanup(func() { viper.Set("gemini.model", nil) })

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != DefaultModel {
		t.Errorf("model = %q, want %q", client.Model(), DefaultModel)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
}
