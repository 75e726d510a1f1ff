package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ComplaintChat/internal/backend"
	"ComplaintChat/internal/clock"
	"ComplaintChat/internal/config"
	"ComplaintChat/internal/session"
	"ComplaintChat/internal/telemetry"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// contextWindow caps how many history turns are sent with each
	// request (3 user turns and 3 model turns).
	contextWindow = 6

	maxAttempts  = 3
	initialDelay = 2 * time.Second

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// systemPrompt is the fixed persona instruction attached to every
// call. It is not part of the history window.
const systemPrompt = `당신은 쇼핑몰 구매 과정에서 불편을 겪은 고객을 응대하는 매우 전문적이고 친절한 고객 응대 챗봇입니다.
다음 규칙을 엄격히 준수하여 응답해야 합니다:

1.  **태도:** 사용자는 쇼핑몰 구매 과정에서 겪은 불편/불만을 언급합니다. 이들의 감정에 깊이 공감하고, 정중하며 친절하고 공감 어린 존댓말투(해요체)로 응답하세요.
2.  **정보 수집 및 안내:** 사용자가 언급한 불편 사항을 구체적으로 정리하여 (무엇이/언제/어디서/어떻게) 수집하는 과정을 보여주세요. 이 정보는 고객 응대 담당자에게 전달되어 신속히 검토될 것임을 안내해야 합니다.
3.  **연락처 요청:** 담당자 확인 후 회신을 위해 대화 마지막에는 반드시 고객의 이메일 주소를 요청하세요.
4.  **연락처 거부 처리:** 만일 사용자가 연락처 제공을 명시적으로 원치 않는다면: "죄송하지만, 고객님의 연락처 정보를 받지 못하여 담당자의 검토 내용을 받으실 수 없어요."라고 정중히 안내하고 대화를 마무리하세요.`

// Fallback strings returned on failure. These are normal return
// values, not errors: the bot degrades to a fixed user-readable reply
// rather than surfacing a fault to the conversation.
const (
	fallbackRateLimited = "죄송합니다. API 호출 한도를 초과하여 잠시 서비스를 이용하실 수 없습니다."
	fallbackAPIError    = "API 호출 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	fallbackGeneric     = "죄송합니다. 처리 중 오류가 발생했습니다."
)

// ChatBot represents the main application
type ChatBot struct {
	config     config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	httpClient *http.Client
	clock      clock.Clock
	session    *session.Session
	baseURL    string
	cleanup    func()
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(cfg config.Config) (*ChatBot, error) {
	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	cb := &ChatBot{
		config:     cfg,
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		clock:      clock.Real(),
		baseURL:    defaultBaseURL,
		cleanup:    cleanup,
	}
	cb.session = cb.newSession()

	return cb, nil
}

// newSession creates a new session
func (cb *ChatBot) newSession() *session.Session {
	sess := session.New(cb.config.Model)
	sess.LoggingEnabled = cb.config.LoggingEnabled
	cb.logger.Info("created new session", "session_id", sess.ID, "model", sess.Model)
	return sess
}

// Respond produces a bot reply for the new user message given the
// conversation so far. The last contextWindow turns of history plus
// the new message form the exact payload sent to the API; earlier
// turns are silently dropped. Rate-limited calls are retried up to
// maxAttempts with doubling backoff. Respond never fails: every
// failure path degrades to a fixed fallback string.
func (cb *ChatBot) Respond(ctx context.Context, history []session.Turn, userMessage, model string) string {
	contents := buildContents(history, userMessage)

	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := cb.generate(ctx, model, contents)
		if err == nil {
			return text
		}

		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			if apiErr.RateLimited() {
				if attempt == maxAttempts {
					break
				}
				cb.logger.Warn("rate limited, retrying",
					"attempt", attempt,
					"max_attempts", maxAttempts,
					"delay", delay,
				)
				cb.clock.Sleep(delay)
				delay *= 2
				continue
			}
			cb.logger.Error("API call failed", "status_code", apiErr.StatusCode, "error", apiErr)
			return fallbackAPIError
		}

		cb.logger.Error("unexpected error during API call", "error", err)
		return fallbackGeneric
	}

	cb.logger.Error("rate limit retries exhausted", "attempts", maxAttempts)
	return fallbackRateLimited
}

// buildContents converts the trailing history window plus the new
// user message into the wire shape the API expects.
func buildContents(history []session.Turn, userMessage string) []backend.GeminiContent {
	window := history
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}

	contents := make([]backend.GeminiContent, 0, len(window)+1)
	for _, turn := range window {
		contents = append(contents, backend.GeminiContent{
			Role:  string(turn.Role),
			Parts: []backend.GeminiPart{{Text: turn.Content}},
		})
	}
	contents = append(contents, backend.GeminiContent{
		Role:  string(session.RoleUser),
		Parts: []backend.GeminiPart{{Text: userMessage}},
	})
	return contents
}

// generate makes a single generateContent call
func (cb *ChatBot) generate(ctx context.Context, model string, contents []backend.GeminiContent) (string, error) {
	ctx, span := cb.tracer.Start(ctx, "gemini_api_call")
	defer span.End()

	start := time.Now()

	reqBody := backend.GeminiRequest{
		SystemInstruction: &backend.GeminiContent{
			Parts: []backend.GeminiPart{{Text: systemPrompt}},
		},
		Contents: contents,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", cb.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", cb.config.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := cb.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", backend.ParseAPIError(resp.StatusCode, body)
	}

	var apiResp backend.GeminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	duration := time.Since(start)
	histogram, err := cb.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	cb.recordMetrics(ctx, apiResp.UsageMetadata)

	text := apiResp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// recordMetrics records OpenTelemetry metrics from usage metadata
func (cb *ChatBot) recordMetrics(ctx context.Context, usage map[string]interface{}) {
	if usage == nil {
		return
	}

	for key, value := range usage {
		if intVal, ok := value.(float64); ok {
			counter, err := cb.meter.Int64Counter(
				fmt.Sprintf("llm.usage.%s", key),
				metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
			)
			if err != nil {
				cb.logger.Warn("failed to create counter", "key", key, "error", err)
				continue
			}
			counter.Add(ctx, int64(intVal))
		}
	}
}

// sendMessage runs one exchange: respond, then append both turns and
// the log record. Fallback replies are recorded like any other.
func (cb *ChatBot) sendMessage(ctx context.Context, userMessage string) string {
	history := make([]session.Turn, len(cb.session.Turns))
	copy(history, cb.session.Turns)

	response := cb.Respond(ctx, history, userMessage, cb.session.Model)

	cb.session.AppendExchange(userMessage, response)
	cb.session.Log(userMessage, response)

	return response
}
