package config_test

import (
	"testing"

	config "ComplaintChat/internal/config"
)

func TestSupported(t *testing.T) {
	for _, m := range config.SupportedModels {
		if !config.Supported(m) {
			t.Fatalf("model %q should be supported", m)
		}
	}
	if config.Supported("gemini-2.0-flash-exp") {
		t.Fatal("experimental models must not be supported")
	}
	if config.Supported("") {
		t.Fatal("empty model must not be supported")
	}
}

func TestDefaultModelIsSupported(t *testing.T) {
	if !config.Supported(config.DefaultModel) {
		t.Fatalf("default model %q not in supported list", config.DefaultModel)
	}
}
