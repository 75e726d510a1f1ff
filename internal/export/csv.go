package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"ComplaintChat/internal/session"
)

// timeLayout matches the timestamp format of the original log export.
const timeLayout = "2006-01-02 15:04:05"

// Header is the CSV column set, one row per logged exchange.
var Header = []string{"session_id", "timestamp", "model", "user_message", "bot_response"}

// Filename returns the canonical export file name for a session.
func Filename(sessionID string) string {
	return fmt.Sprintf("chatbot_log_%s.csv", sessionID)
}

// Write encodes the log records as CSV in append order. csv.Writer
// quoting keeps embedded commas, quotes, and newlines intact.
func Write(w io.Writer, records []session.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{r.SessionID, r.Timestamp.Format(timeLayout), r.Model, r.UserMessage, r.BotResponse}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the log records to a CSV file at path.
func WriteFile(path string, records []session.LogRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
