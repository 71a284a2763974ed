// Package session holds the per-conversation state the voice platform
// round-trips between turns as an attribute map.
package session

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Attribute keys inside the platform's session attribute map.
const (
	attrSessionID = "session_id"
	attrHistory   = "chat_history"
	attrFollowups = "followup_questions"
)

// Exchange is one completed question/answer turn.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// IndexedExchange is an Exchange annotated with its position in the
// session history, as transmitted to the workflow.
type IndexedExchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Index    int    `json:"index"`
}

// State is the typed view of one conversation's session attributes.
type State struct {
	SessionID string
	History   []Exchange
	Followups []string
}

// Start resets the conversation: empty history, fresh session id.
func (s *State) Start() {
	s.SessionID = uuid.NewString()
	s.History = nil
	s.Followups = nil
}

// Initialized reports whether Start has run for this conversation.
func (s *State) Initialized() bool {
	return s.SessionID != ""
}

// Record appends a completed exchange, keeping only the retain most
// recent entries. It never fails.
func (s *State) Record(question, answer string, retain int) {
	s.History = append(s.History, Exchange{Question: question, Answer: answer})
	if retain > 0 && len(s.History) > retain {
		s.History = s.History[len(s.History)-retain:]
	}
}

// Recent returns at most k of the newest exchanges, oldest first, each
// carrying its index within the returned window.
func (s *State) Recent(k int) []IndexedExchange {
	if k <= 0 || len(s.History) == 0 {
		return nil
	}
	if k > len(s.History) {
		k = len(s.History)
	}
	out := make([]IndexedExchange, 0, k)
	for i, e := range s.History[len(s.History)-k:] {
		out = append(out, IndexedExchange{Question: e.Question, Answer: e.Answer, Index: i})
	}
	return out
}

// Decode rebuilds State from the platform's raw attribute map.
// Malformed or missing attributes degrade to the zero value for that
// field rather than failing the turn.
func Decode(attrs map[string]json.RawMessage) State {
	var s State
	if len(attrs) == 0 {
		return s
	}
	if raw, ok := attrs[attrSessionID]; ok {
		var id string
		if json.Unmarshal(raw, &id) == nil {
			s.SessionID = id
		}
	}
	if raw, ok := attrs[attrHistory]; ok {
		var hist []Exchange
		if json.Unmarshal(raw, &hist) == nil {
			s.History = hist
		}
	}
	if raw, ok := attrs[attrFollowups]; ok {
		var fu []string
		if json.Unmarshal(raw, &fu) == nil {
			s.Followups = fu
		}
	}
	return s
}

// Encode renders State back into the attribute map the platform will
// persist for the next turn.
func (s *State) Encode() map[string]json.RawMessage {
	attrs := make(map[string]json.RawMessage, 3)
	id, _ := json.Marshal(s.SessionID)
	attrs[attrSessionID] = id

	hist := s.History
	if hist == nil {
		hist = []Exchange{}
	}
	h, _ := json.Marshal(hist)
	attrs[attrHistory] = h

	if len(s.Followups) > 0 {
		f, _ := json.Marshal(s.Followups)
		attrs[attrFollowups] = f
	}
	return attrs
}
