package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"ComplaintChat/internal/config"
	"ComplaintChat/internal/export"

	"github.com/fatih/color"
)

// Run starts the interactive chat loop
func (cb *ChatBot) Run() error {
	if cb.cleanup != nil {
		defer cb.cleanup()
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Println(boldGreen("=== 고객 불편 접수 챗봇 ==="))
	fmt.Printf("Session: %s\n", cb.session.ID)
	fmt.Printf("Model: %s\n", boldCyan(cb.session.Model))
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(input)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				cb.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		response := cb.sendMessage(ctx, input)
		fmt.Printf("%s %s\n\n", boldCyan("Bot:"), response)
	}

	fmt.Println("Goodbye!")
	return nil
}

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/reset":
		cb.session.Reset()
		cb.logger.Info("session reset", "session_id", cb.session.ID)
		fmt.Println("Conversation and log records cleared.")
		return false, nil

	case "/model":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /model <name> (see /models)")
		}
		name := parts[1]
		if !config.Supported(name) {
			return false, fmt.Errorf("unsupported model: %s", name)
		}
		cb.session.Model = name
		cb.logger.Info("model switched", "model", name)
		fmt.Printf("Switched to model %s\n", name)
		return false, nil

	case "/models":
		fmt.Println("\nSupported models:")
		for i, m := range config.SupportedModels {
			current := ""
			if m == cb.session.Model {
				current = " (current)"
			}
			fmt.Printf("%d. %s%s\n", i+1, m, current)
		}
		fmt.Println()
		return false, nil

	case "/logging":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /logging on|off")
		}
		switch parts[1] {
		case "on":
			cb.session.LoggingEnabled = true
			fmt.Println("Logging enabled.")
		case "off":
			cb.session.LoggingEnabled = false
			fmt.Println("Logging disabled.")
		default:
			return false, fmt.Errorf("usage: /logging on|off")
		}
		return false, nil

	case "/export":
		if len(cb.session.Records) == 0 {
			fmt.Println("No recorded exchanges to export.")
			return false, nil
		}
		path := export.Filename(cb.session.ID)
		if len(parts) > 1 {
			path = parts[1]
		}
		if err := export.WriteFile(path, cb.session.Records); err != nil {
			return false, fmt.Errorf("failed to export log: %w", err)
		}
		cb.logger.Info("log exported", "path", path, "records", len(cb.session.Records))
		fmt.Printf("Exported %d records to %s\n", len(cb.session.Records), path)
		return false, nil

	case "/session":
		fmt.Printf("\nSession ID: %s\n", cb.session.ID)
		fmt.Printf("Started:    %s\n", cb.session.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Model:      %s\n", cb.session.Model)
		fmt.Printf("Turns:      %d\n", len(cb.session.Turns))
		fmt.Printf("Records:    %d\n", len(cb.session.Records))
		fmt.Printf("Logging:    %t\n\n", cb.session.LoggingEnabled)
		return false, nil

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /quit, /exit      - Exit the chatbot")
		fmt.Println("  /reset            - Clear the conversation and log records")
		fmt.Println("  /model <name>     - Switch Gemini model")
		fmt.Println("  /models           - List supported models")
		fmt.Println("  /logging on|off   - Toggle exchange logging")
		fmt.Println("  /export [path]    - Export the session log as CSV")
		fmt.Println("  /session          - Show session info")
		fmt.Println("  /help             - Show this help message")
		return false, nil

	default:
		return false, nil
	}
}
