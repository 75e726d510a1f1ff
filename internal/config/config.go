package config

// DefaultModel is used when no model is selected explicitly.
const DefaultModel = "gemini-2.5-flash"

// SupportedModels lists the Gemini models the bot can be pointed at.
var SupportedModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.5-pro",
	"gemini-2.0-pro",
}

// Supported reports whether name is one of SupportedModels.
func Supported(name string) bool {
	for _, m := range SupportedModels {
		if m == name {
			return true
		}
	}
	return false
}

// Config holds application configuration
type Config struct {
	APIKey         string // Gemini API credential
	Model          string // Selected model, must be one of SupportedModels
	LoggingEnabled bool   // Record every exchange to the session log
	Debug          bool
}
