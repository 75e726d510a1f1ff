package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn represents a single chat turn
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LogRecord represents one logged exchange, exported verbatim to CSV
type LogRecord struct {
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	Model       string    `json:"model"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
}

// Session represents a chat session. It owns the conversation history
// and the log records; nothing outside the session mutates them.
type Session struct {
	ID             string      `json:"id"`
	StartTime      time.Time   `json:"start_time"`
	Model          string      `json:"model"`
	LoggingEnabled bool        `json:"logging_enabled"`
	Turns          []Turn      `json:"turns"`
	Records        []LogRecord `json:"records"`
}

// New creates a new Session for the given model. Logging is enabled
// by default, matching the original product behavior.
func New(model string) *Session {
	return &Session{
		ID:             uuid.NewString(),
		StartTime:      time.Now(),
		Model:          model,
		LoggingEnabled: true,
		Turns:          []Turn{},
		Records:        []LogRecord{},
	}
}

// AppendExchange appends the user turn followed by the model turn.
// Appending both sides together keeps roles strictly alternating.
func (s *Session) AppendExchange(userText, botText string) {
	now := time.Now()
	s.Turns = append(s.Turns,
		Turn{Role: RoleUser, Content: userText, Timestamp: now},
		Turn{Role: RoleModel, Content: botText, Timestamp: now},
	)
}

// Log appends a LogRecord for one exchange, stamped with the session's
// current model. No-op when logging is disabled.
func (s *Session) Log(userText, botText string) {
	if !s.LoggingEnabled {
		return
	}
	s.Records = append(s.Records, LogRecord{
		SessionID:   s.ID,
		Timestamp:   time.Now(),
		Model:       s.Model,
		UserMessage: userText,
		BotResponse: botText,
	})
}

// Reset clears the conversation history and log records wholesale.
// The session keeps its ID and start time.
func (s *Session) Reset() {
	s.Turns = []Turn{}
	s.Records = []LogRecord{}
}
