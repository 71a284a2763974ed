package n8n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/davepi/skillbridge/internal/session"
)

func testClient(url, apiKey string, timeout time.Duration) *Client {
	return NewClient(url, apiKey, timeout, zerolog.Nop())
}

func TestQuerySuccess(t *testing.T) {
	var gotPayload Payload
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":            true,
			"response":           "Paris.",
			"followup_questions": []string{"And Lyon?"},
		})
	}))
	defer ts.Close()

	c := testClient(ts.URL, "secret-key", time.Second)
	history := []session.IndexedExchange{{Question: "q0", Answer: "a0", Index: 0}}
	res := c.Query(context.Background(), "capital of France?", history, "sess-1")

	if !res.Success {
		t.Fatalf("Query() failed: %+v", res)
	}
	if res.Response != "Paris." {
		t.Fatalf("Response = %q, want %q", res.Response, "Paris.")
	}
	if len(res.FollowupQuestions) != 1 || res.FollowupQuestions[0] != "And Lyon?" {
		t.Fatalf("FollowupQuestions = %v, want [And Lyon?]", res.FollowupQuestions)
	}
	if res.Reason != "" {
		t.Fatalf("Reason = %q, want empty on success", res.Reason)
	}

	if gotAuth != "Bearer secret-key" {
		t.Fatalf("Authorization = %q, want bearer header", gotAuth)
	}
	if gotPayload.Query != "capital of France?" || gotPayload.SessionID != "sess-1" {
		t.Fatalf("payload = %+v, want query and session id", gotPayload)
	}
	if gotPayload.Source != Source {
		t.Fatalf("payload source = %q, want %q", gotPayload.Source, Source)
	}
	if gotPayload.Timestamp == 0 {
		t.Fatalf("payload timestamp missing")
	}
	if len(gotPayload.ChatHistory) != 1 {
		t.Fatalf("payload history = %+v, want one entry", gotPayload.ChatHistory)
	}
}

func TestQueryOmitsAuthHeaderWithoutKey(t *testing.T) {
	var sawAuth bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "response": "ok"})
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", time.Second)
	if res := c.Query(context.Background(), "q", nil, "s"); !res.Success {
		t.Fatalf("Query() failed: %+v", res)
	}
	if sawAuth {
		t.Fatalf("Authorization header sent without a configured key")
	}
}

func TestQueryHTTPStatusFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", time.Second)
	res := c.Query(context.Background(), "q", nil, "s")
	if res.Success {
		t.Fatalf("Query() succeeded on 500")
	}
	if res.Reason != "http-status:500" {
		t.Fatalf("Reason = %q, want %q", res.Reason, "http-status:500")
	}
}

func TestQueryInvalidBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", time.Second)
	res := c.Query(context.Background(), "q", nil, "s")
	if res.Success || res.Reason != ReasonInvalidBody {
		t.Fatalf("result = %+v, want invalid-response-body failure", res)
	}
}

func TestQueryTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", 50*time.Millisecond)
	res := c.Query(context.Background(), "q", nil, "s")
	if res.Success || res.Reason != ReasonTimeout {
		t.Fatalf("result = %+v, want timeout failure", res)
	}
}

func TestQueryConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := testClient(ts.URL, "", time.Second)
	res := c.Query(context.Background(), "q", nil, "s")
	if res.Success || res.Reason != ReasonConnectionError {
		t.Fatalf("result = %+v, want connection-error failure", res)
	}
}

func TestQueryWorkflowReportedFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "no workflow active"})
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", time.Second)
	res := c.Query(context.Background(), "q", nil, "s")
	if res.Success || res.Reason != "no workflow active" {
		t.Fatalf("result = %+v, want workflow reported reason", res)
	}
}

func TestQueryDropsNonStringFollowups(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"response":"ok","followup_questions":["keep",42,null,{"x":1},"also keep"]}`))
	}))
	defer ts.Close()

	c := testClient(ts.URL, "", time.Second)
	res := c.Query(context.Background(), "q", nil, "s")
	if !res.Success {
		t.Fatalf("Query() failed: %+v", res)
	}
	if strings.Join(res.FollowupQuestions, "|") != "keep|also keep" {
		t.Fatalf("FollowupQuestions = %v, want only string entries", res.FollowupQuestions)
	}
}
