package chatbot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ComplaintChat/internal/clock"
	"ComplaintChat/internal/config"
	"ComplaintChat/internal/session"

	"go.opentelemetry.io/otel"
)

const successBody = `{"candidates":[{"content":{"role":"model","parts":[{"text":"안녕하세요, 불편을 드려 죄송합니다."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8,"totalTokenCount":20}}`

const rateLimitBody = `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`

func newTestBot(baseURL string, clk clock.Clock) *ChatBot {
	cfg := config.Config{
		APIKey:         "test-key",
		Model:          config.DefaultModel,
		LoggingEnabled: true,
	}
	cb := &ChatBot{
		config:     cfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("test"),
		meter:      otel.Meter("test"),
		httpClient: &http.Client{Timeout: time.Second},
		clock:      clk,
		baseURL:    baseURL,
	}
	cb.session = cb.newSession()
	return cb
}

func turns(n int) []session.Turn {
	out := make([]session.Turn, n)
	for i := range out {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleModel
		}
		out[i] = session.Turn{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}
	return out
}

func TestBuildContentsShortHistory(t *testing.T) {
	history := turns(4)
	contents := buildContents(history, "new message")

	if len(contents) != 5 {
		t.Fatalf("unexpected contents length: got %d want 5", len(contents))
	}
	for i, turn := range history {
		if contents[i].Parts[0].Text != turn.Content {
			t.Fatalf("content %d: got %q want %q", i, contents[i].Parts[0].Text, turn.Content)
		}
		if contents[i].Role != string(turn.Role) {
			t.Fatalf("content %d role: got %q want %q", i, contents[i].Role, turn.Role)
		}
	}
	last := contents[len(contents)-1]
	if last.Role != "user" || last.Parts[0].Text != "new message" {
		t.Fatalf("unexpected final entry: %+v", last)
	}
}

func TestBuildContentsTruncatesToWindow(t *testing.T) {
	history := turns(10)
	contents := buildContents(history, "new message")

	if len(contents) != contextWindow+1 {
		t.Fatalf("unexpected contents length: got %d want %d", len(contents), contextWindow+1)
	}
	// The window must be exactly the last 6 turns, in order.
	for i := 0; i < contextWindow; i++ {
		want := history[len(history)-contextWindow+i].Content
		if contents[i].Parts[0].Text != want {
			t.Fatalf("content %d: got %q want %q", i, contents[i].Parts[0].Text, want)
		}
	}
	if contents[contextWindow].Parts[0].Text != "new message" {
		t.Fatalf("final entry: got %q", contents[contextWindow].Parts[0].Text)
	}
}

func TestRespondRetriesOnRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, rateLimitBody)
			return
		}
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	clk := clock.Fake(time.Now())
	cb := newTestBot(srv.URL, clk)

	got := cb.Respond(context.Background(), nil, "배송이 너무 늦어요", cb.session.Model)
	if got != "안녕하세요, 불편을 드려 죄송합니다." {
		t.Fatalf("unexpected response: %q", got)
	}
	if calls != 3 {
		t.Fatalf("unexpected call count: got %d want 3", calls)
	}

	sleeps := clk.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 2*time.Second || sleeps[1] != 4*time.Second {
		t.Fatalf("unexpected backoff sleeps: %v", sleeps)
	}
}

func TestRespondRateLimitExhausted(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, rateLimitBody)
	}))
	defer srv.Close()

	clk := clock.Fake(time.Now())
	cb := newTestBot(srv.URL, clk)

	got := cb.Respond(context.Background(), nil, "환불해 주세요", cb.session.Model)
	if got != fallbackRateLimited {
		t.Fatalf("unexpected response: %q", got)
	}
	if calls != 3 {
		t.Fatalf("unexpected call count: got %d want 3", calls)
	}
	if len(clk.Sleeps()) != 2 {
		t.Fatalf("unexpected sleep count: %v", clk.Sleeps())
	}
}

func TestRespondNonRetryableError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":500,"message":"internal error","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	clk := clock.Fake(time.Now())
	cb := newTestBot(srv.URL, clk)

	got := cb.Respond(context.Background(), nil, "상품이 파손됐어요", cb.session.Model)
	if got != fallbackAPIError {
		t.Fatalf("unexpected response: %q", got)
	}
	if calls != 1 {
		t.Fatalf("unexpected call count: got %d want 1", calls)
	}
	if len(clk.Sleeps()) != 0 {
		t.Fatalf("expected no backoff sleeps, got %v", clk.Sleeps())
	}
}

func TestRespondTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	cb := newTestBot(srv.URL, clock.Fake(time.Now()))

	got := cb.Respond(context.Background(), nil, "문의드립니다", cb.session.Model)
	if got != fallbackGeneric {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestSendMessageAppendsTurnsAndLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	cb := newTestBot(srv.URL, clock.Fake(time.Now()))

	response := cb.sendMessage(context.Background(), "주문을 취소하고 싶어요")
	if response == "" {
		t.Fatal("empty response")
	}

	if len(cb.session.Turns) != 2 {
		t.Fatalf("unexpected turn count: got %d want 2", len(cb.session.Turns))
	}
	if cb.session.Turns[0].Role != session.RoleUser || cb.session.Turns[1].Role != session.RoleModel {
		t.Fatalf("unexpected roles: %+v", cb.session.Turns)
	}

	if len(cb.session.Records) != 1 {
		t.Fatalf("unexpected record count: got %d want 1", len(cb.session.Records))
	}
	record := cb.session.Records[0]
	if record.UserMessage != "주문을 취소하고 싶어요" || record.BotResponse != response {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.SessionID != cb.session.ID || record.Model != cb.session.Model {
		t.Fatalf("unexpected record metadata: %+v", record)
	}
}

func TestSendMessageLoggingDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	cb := newTestBot(srv.URL, clock.Fake(time.Now()))
	cb.session.LoggingEnabled = false

	cb.sendMessage(context.Background(), "배송 조회 부탁드려요")

	if len(cb.session.Turns) != 2 {
		t.Fatalf("unexpected turn count: got %d want 2", len(cb.session.Turns))
	}
	if len(cb.session.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(cb.session.Records))
	}
}
