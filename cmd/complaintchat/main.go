package main

import (
	"flag"
	"fmt"
	"os"

	"ComplaintChat/internal/chatbot"
	"ComplaintChat/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load(".env")

	var cfg config.Config
	flag.StringVar(&cfg.Model, "model", config.DefaultModel, "Gemini model to use")
	flag.StringVar(&cfg.APIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	flag.BoolVar(&cfg.LoggingEnabled, "log", true, "Record each exchange to the session log")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Gemini API key required: set GEMINI_API_KEY or pass -api-key")
		os.Exit(1)
	}
	if !config.Supported(cfg.Model) {
		fmt.Fprintf(os.Stderr, "Unsupported model %q, expected one of %v\n", cfg.Model, config.SupportedModels)
		os.Exit(1)
	}

	bot, err := chatbot.NewChatBot(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize chatbot: %v\n", err)
		os.Exit(1)
	}

	if err := bot.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
