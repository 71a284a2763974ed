// Package skill routes recognized intents to their handlers and
// guarantees every turn ends in a spoken response.
package skill

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/davepi/skillbridge/internal/alexa"
	"github.com/davepi/skillbridge/internal/eventfeed"
	"github.com/davepi/skillbridge/internal/n8n"
	"github.com/davepi/skillbridge/internal/observability"
	"github.com/davepi/skillbridge/internal/session"
	"github.com/davepi/skillbridge/internal/speech"
)

// Intent names from the skill's interaction model.
const (
	IntentQuery        = "GptQueryIntent"
	IntentClearContext = "ClearContextIntent"
	IntentCancel       = "AMAZON.CancelIntent"
	IntentStop         = "AMAZON.StopIntent"

	querySlot = "query"
)

// Fixed utterances.
const (
	greeting         = "Chat mode activated."
	historyCleared   = "I've cleared our conversation history. What would you like to talk about?"
	farewell         = "Leaving chat mode."
	apology          = "Sorry, there was a problem processing your request. Please try again."
	emptyQueryPrompt = "I didn't catch your question. Please say it again."
	fallbackAnswer   = "Sorry, I couldn't come up with an answer."

	repromptDefault       = "What else can I help you with? You can ask another question or say 'stop' to exit."
	repromptWithFollowups = "You can ask another question, or say 'stop' to exit."
)

// Turn outcomes for metrics and the event feed.
const (
	outcomeOK         = "ok"
	outcomeFailure    = "failure"
	outcomeEmptyQuery = "empty_query"
	outcomeUnhandled  = "unhandled"
	outcomePanic      = "panic"
)

// WebhookClient is the outbound workflow dependency.
type WebhookClient interface {
	Query(ctx context.Context, query string, history []session.IndexedExchange, sessionID string) n8n.Result
}

// Router dispatches one request envelope per call. It holds no mutable
// state of its own: conversation state travels in the envelope's
// session attributes.
type Router struct {
	webhook          WebhookClient
	metrics          *observability.Metrics
	feed             *eventfeed.Feed
	log              zerolog.Logger
	historyRetention int
	historyWindow    int
}

func NewRouter(webhook WebhookClient, metrics *observability.Metrics, feed *eventfeed.Feed, log zerolog.Logger, historyRetention, historyWindow int) *Router {
	if historyRetention <= 0 {
		historyRetention = 10
	}
	if historyWindow <= 0 || historyWindow > historyRetention {
		historyWindow = min(5, historyRetention)
	}
	return &Router{
		webhook:          webhook,
		metrics:          metrics,
		feed:             feed,
		log:              log.With().Str("component", "skill").Logger(),
		historyRetention: historyRetention,
		historyWindow:    historyWindow,
	}
}

// HandleEnvelope processes one turn. It never panics outward: any
// failure inside a handler is converted into the generic apology so
// the conversation does not terminate silently.
func (r *Router) HandleEnvelope(ctx context.Context, env alexa.RequestEnvelope) (resp alexa.ResponseEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("request_id", env.Request.RequestID).Msg("handler panicked")
			r.observeTurn(env, outcomePanic, "", 0)
			resp = alexa.Ask(apology, apology, nil)
		}
	}()

	state := session.Decode(sessionAttributes(env))

	switch env.Request.Type {
	case alexa.TypeLaunchRequest:
		return r.handleLaunch(env, &state)
	case alexa.TypeSessionEndedRequest:
		return r.handleSessionEnded(env)
	case alexa.TypeIntentRequest:
		switch env.Request.Intent.Name {
		case IntentQuery:
			return r.handleQuery(ctx, env, &state)
		case IntentClearContext:
			return r.handleClearContext(env, &state)
		case IntentCancel, IntentStop:
			return r.handleStop(env)
		}
	}

	r.log.Warn().
		Str("request_type", string(env.Request.Type)).
		Str("intent", intentName(env)).
		Msg("unhandled request")
	r.observeTurn(env, outcomeUnhandled, "", 0)
	return alexa.Ask(apology, apology, state.Encode())
}

func (r *Router) handleLaunch(env alexa.RequestEnvelope, state *session.State) alexa.ResponseEnvelope {
	state.Start()
	r.log.Info().Str("session_id", state.SessionID).Msg("session started")
	r.observeTurn(env, outcomeOK, "", 0)
	return alexa.Ask(greeting, greeting, state.Encode())
}

func (r *Router) handleClearContext(env alexa.RequestEnvelope, state *session.State) alexa.ResponseEnvelope {
	state.Start()
	r.log.Info().Str("session_id", state.SessionID).Msg("conversation history cleared")
	r.observeTurn(env, outcomeOK, "", 0)
	return alexa.Ask(historyCleared, historyCleared, state.Encode())
}

func (r *Router) handleStop(env alexa.RequestEnvelope) alexa.ResponseEnvelope {
	r.observeTurn(env, outcomeOK, "", 0)
	return alexa.Tell(farewell)
}

func (r *Router) handleSessionEnded(env alexa.RequestEnvelope) alexa.ResponseEnvelope {
	r.log.Info().Str("reason", env.Request.Reason).Msg("platform ended session")
	return alexa.Silent()
}

func (r *Router) handleQuery(ctx context.Context, env alexa.RequestEnvelope, state *session.State) alexa.ResponseEnvelope {
	query := env.Request.Intent.SlotValue(querySlot)
	if query == "" {
		r.observeTurn(env, outcomeEmptyQuery, "", 0)
		return alexa.Ask(emptyQueryPrompt, emptyQueryPrompt, state.Encode())
	}

	if !state.Initialized() {
		state.Start()
	}

	started := time.Now()
	res := r.webhook.Query(ctx, query, state.Recent(r.historyWindow), state.SessionID)
	elapsed := time.Since(started)

	r.metrics.ObserveWebhookLatency(elapsed)
	r.metrics.WebhookCalls.WithLabelValues(webhookOutcomeLabel(res)).Inc()

	if !res.Success {
		r.publish(env, eventfeed.TurnEvent{
			Query:     query,
			Outcome:   outcomeFailure,
			Reason:    res.Reason,
			LatencyMS: elapsed.Milliseconds(),
		})
		r.metrics.Turns.WithLabelValues(intentLabel(env), outcomeFailure).Inc()
		return alexa.Ask(apology, apology, state.Encode())
	}

	answer := strings.TrimSpace(res.Response)
	if answer == "" {
		answer = fallbackAnswer
	}

	state.Record(query, answer, r.historyRetention)
	state.Followups = res.FollowupQuestions

	utterance := speech.Format(answer, res.FollowupQuestions)
	reprompt := repromptDefault
	if len(res.FollowupQuestions) > 0 {
		reprompt = repromptWithFollowups
	}

	r.publish(env, eventfeed.TurnEvent{
		Query:     query,
		Outcome:   outcomeOK,
		LatencyMS: elapsed.Milliseconds(),
	})
	r.metrics.Turns.WithLabelValues(intentLabel(env), outcomeOK).Inc()
	return alexa.Ask(utterance, reprompt, state.Encode())
}

func (r *Router) observeTurn(env alexa.RequestEnvelope, outcome, reason string, latency time.Duration) {
	r.metrics.Turns.WithLabelValues(intentLabel(env), outcome).Inc()
	r.publish(env, eventfeed.TurnEvent{
		Outcome:   outcome,
		Reason:    reason,
		LatencyMS: latency.Milliseconds(),
	})
}

func (r *Router) publish(env alexa.RequestEnvelope, ev eventfeed.TurnEvent) {
	if r.feed == nil {
		return
	}
	ev.SessionID = platformSessionID(env)
	ev.Intent = intentLabel(env)
	ev.TSMs = time.Now().UnixMilli()
	r.feed.Publish(ev)
}

func sessionAttributes(env alexa.RequestEnvelope) map[string]json.RawMessage {
	if env.Session == nil {
		return nil
	}
	return env.Session.Attributes
}

func platformSessionID(env alexa.RequestEnvelope) string {
	if env.Session == nil {
		return ""
	}
	return env.Session.SessionID
}

func intentName(env alexa.RequestEnvelope) string {
	if env.Request.Intent == nil {
		return ""
	}
	return env.Request.Intent.Name
}

func intentLabel(env alexa.RequestEnvelope) string {
	switch env.Request.Type {
	case alexa.TypeLaunchRequest:
		return "launch"
	case alexa.TypeSessionEndedRequest:
		return "session_ended"
	}
	switch intentName(env) {
	case IntentQuery:
		return "query"
	case IntentClearContext:
		return "clear_context"
	case IntentCancel, IntentStop:
		return "stop"
	default:
		return "unhandled"
	}
}

// webhookOutcomeLabel keeps metric label cardinality bounded: status
// codes and unexpected error text collapse to their reason family.
func webhookOutcomeLabel(res n8n.Result) string {
	if res.Success {
		return "success"
	}
	reason := res.Reason
	if i := strings.IndexByte(reason, ':'); i >= 0 {
		reason = reason[:i]
	}
	switch reason {
	case n8n.ReasonTimeout, n8n.ReasonConnectionError, n8n.ReasonInvalidBody, "http-status", "unexpected":
		return reason
	default:
		return "workflow-error"
	}
}
