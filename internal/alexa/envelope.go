// Package alexa defines the voice platform's request and response
// envelopes and helpers for building SSML responses.
package alexa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RequestType identifies inbound request envelope variants.
type RequestType string

const (
	TypeLaunchRequest       RequestType = "LaunchRequest"
	TypeIntentRequest       RequestType = "IntentRequest"
	TypeSessionEndedRequest RequestType = "SessionEndedRequest"
)

var ErrUnsupportedRequest = errors.New("unsupported request type")

// RequestEnvelope is the JSON document the platform POSTs per turn.
type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Request Request  `json:"request"`
}

// Session carries the platform-managed session identity and the
// attribute map it round-trips between turns.
type Session struct {
	New        bool                       `json:"new"`
	SessionID  string                     `json:"sessionId"`
	Attributes map[string]json.RawMessage `json:"attributes,omitempty"`
}

// Request is the per-turn payload inside the envelope.
type Request struct {
	Type      RequestType `json:"type"`
	RequestID string      `json:"requestId"`
	Timestamp string      `json:"timestamp"`
	Locale    string      `json:"locale"`
	Intent    *Intent     `json:"intent,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// Intent is a recognized user request with its filled slots.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is one piece of free-text captured by the platform's NLU.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SlotValue returns the trimmed value of a named slot, or "" when the
// slot is absent or unfilled.
func (i *Intent) SlotValue(name string) string {
	if i == nil {
		return ""
	}
	s, ok := i.Slots[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(s.Value)
}

// ParseRequestEnvelope decodes and validates an inbound envelope.
func ParseRequestEnvelope(data []byte) (RequestEnvelope, error) {
	var env RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return RequestEnvelope{}, fmt.Errorf("decode request envelope: %w", err)
	}
	switch env.Request.Type {
	case TypeLaunchRequest, TypeSessionEndedRequest:
		return env, nil
	case TypeIntentRequest:
		if env.Request.Intent == nil || strings.TrimSpace(env.Request.Intent.Name) == "" {
			return RequestEnvelope{}, errors.New("intent request without intent name")
		}
		return env, nil
	case "":
		return RequestEnvelope{}, errors.New("request envelope without type")
	default:
		return RequestEnvelope{}, fmt.Errorf("%w: %q", ErrUnsupportedRequest, env.Request.Type)
	}
}
