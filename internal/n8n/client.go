// Package n8n forwards user queries to an n8n workflow webhook and
// classifies the outcome of each call.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/davepi/skillbridge/internal/session"
)

// Source tags every outbound payload so the workflow can tell which
// channel a query arrived from.
const Source = "alexa_skill"

const maxResponseBody = 1 << 20

// Failure reasons reported on Result.Reason. HTTP status failures use
// ReasonHTTPStatus(code); unexpected ones use ReasonUnexpected(err).
const (
	ReasonTimeout         = "timeout"
	ReasonConnectionError = "connection-error"
	ReasonInvalidBody     = "invalid-response-body"
)

func ReasonHTTPStatus(code int) string {
	return fmt.Sprintf("http-status:%d", code)
}

func ReasonUnexpected(err error) string {
	return "unexpected:" + err.Error()
}

// Payload is the JSON body POSTed to the workflow webhook.
type Payload struct {
	Query       string                    `json:"query"`
	ChatHistory []session.IndexedExchange `json:"chat_history"`
	SessionID   string                    `json:"session_id"`
	Timestamp   int64                     `json:"timestamp"`
	Source      string                    `json:"source"`
}

// Result is the classified outcome of one webhook call. Exactly one of
// Response (on success) and Reason (on failure) is populated.
type Result struct {
	Success           bool
	Response          string
	FollowupQuestions []string
	Reason            string
}

type webhookBody struct {
	Success           bool         `json:"success"`
	Response          string       `json:"response"`
	FollowupQuestions followupList `json:"followup_questions"`
	Error             string       `json:"error"`
}

// followupList drops non-string entries instead of rejecting the whole
// body; workflows occasionally emit nulls or objects in the list.
type followupList []string

func (f *followupList) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// Client issues synchronous webhook calls with a bounded wait.
type Client struct {
	url    string
	apiKey string
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

func NewClient(url, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "n8n").Logger(),
		now:    time.Now,
	}
}

// Query sends one user query plus its history window to the workflow.
// It never returns a Go error: every failure mode is folded into a
// Result with Success=false and a distinguishing Reason, and the
// caller decides how to speak about it. No retry is attempted.
func (c *Client) Query(ctx context.Context, query string, history []session.IndexedExchange, sessionID string) Result {
	payload := Payload{
		Query:       query,
		ChatHistory: history,
		SessionID:   sessionID,
		Timestamp:   c.now().Unix(),
		Source:      Source,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal webhook payload")
		return failure(ReasonUnexpected(err))
	}

	c.log.Info().
		Str("session_id", sessionID).
		Str("query", query).
		Int("history_len", len(history)).
		Msg("sending query to workflow")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.log.Error().Err(err).Msg("create webhook request")
		return failure(ReasonUnexpected(err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		reason := classifyTransportError(err)
		c.log.Error().Err(err).Str("reason", reason).Msg("webhook call failed")
		return failure(reason)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		c.log.Error().Err(err).Msg("read webhook response")
		return failure(ReasonConnectionError)
	}

	if res.StatusCode != http.StatusOK {
		reason := ReasonHTTPStatus(res.StatusCode)
		c.log.Error().
			Int("status", res.StatusCode).
			Str("body", truncateForLog(raw)).
			Msg("webhook returned non-200 status")
		return failure(reason)
	}

	var parsed webhookBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.log.Error().Err(err).Str("body", truncateForLog(raw)).Msg("webhook body is not valid JSON")
		return failure(ReasonInvalidBody)
	}

	if !parsed.Success {
		reason := strings.TrimSpace(parsed.Error)
		if reason == "" {
			reason = "workflow-error"
		}
		c.log.Error().Str("reason", reason).Msg("workflow reported failure")
		return failure(reason)
	}

	c.log.Info().
		Str("session_id", sessionID).
		Int("followups", len(parsed.FollowupQuestions)).
		Msg("workflow response received")

	return Result{
		Success:           true,
		Response:          parsed.Response,
		FollowupQuestions: parsed.FollowupQuestions,
	}
}

func failure(reason string) Result {
	return Result{Reason: reason}
}

func classifyTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ReasonTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonConnectionError
	}
	if errors.Is(err, context.Canceled) {
		return ReasonConnectionError
	}
	return ReasonUnexpected(err)
}

func truncateForLog(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
