package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/davepi/skillbridge/internal/alexa"
	"github.com/davepi/skillbridge/internal/config"
	"github.com/davepi/skillbridge/internal/eventfeed"
	"github.com/davepi/skillbridge/internal/observability"
	"github.com/davepi/skillbridge/internal/skill"
)

const maxEnvelopeBytes = 256 << 10

type Server struct {
	cfg      config.Config
	router   *skill.Router
	feed     *eventfeed.Feed
	metrics  *observability.Metrics
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, router *skill.Router, feed *eventfeed.Feed, metrics *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		router:  router,
		feed:    feed,
		metrics: metrics,
		log:     log.With().Str("component", "httpapi").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// The debug feed carries user query text; only same-origin
				// browser clients may attach when exposed beyond localhost.
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/skill", s.handleSkillRequest)
	r.Get("/debug/turns/ws", s.handleTurnFeedWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleSkillRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}

	env, err := alexa.ParseRequestEnvelope(body)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejecting malformed request envelope")
		respondError(w, http.StatusBadRequest, "invalid_envelope", err.Error())
		return
	}

	resp := s.router.HandleEnvelope(r.Context(), env)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTurnFeedWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := s.feed.Subscribe()
	s.metrics.FeedSubscribers.Set(float64(s.feed.SubscriberCount()))
	defer func() {
		cancel()
		s.metrics.FeedSubscribers.Set(float64(s.feed.SubscriberCount()))
	}()

	// Reader goroutine only detects disconnects; the feed is one-way.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
