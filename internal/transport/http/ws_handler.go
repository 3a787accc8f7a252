package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizzer-session-service/internal/app"
	"quizzer-session-service/internal/domain"
)

// WSHandler is the presentation adapter: each websocket connection owns
// exactly one session, forwards taker intents into it, and streams state
// snapshots back out.
type WSHandler struct {
	service  *app.SessionService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	Choice string `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// statePayload is a snapshot plus a ready-to-render countdown clock.
type statePayload struct {
	domain.Snapshot
	Clock string `json:"clock"`
}

func stateFrame(snap domain.Snapshot) outboundMessage[any] {
	return outboundMessage[any]{Type: "state", Payload: statePayload{
		Snapshot: snap,
		Clock:    formatClock(snap.RemainingSeconds),
	}}
}

// formatClock renders remaining seconds as M:SS for the timer display.
func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ServeWS upgrades the request and runs the session for one taker until
// the socket closes. The session's countdown is stopped on disconnect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := h.service.NewSession()
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- stateFrame(snap):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleIntent(r, session, send, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleIntent(r *http.Request, session *app.Session, send chan<- outboundMessage[any], inbound inboundMessage) {
	switch inbound.Type {
	case "list":
		summaries, err := h.service.ListQuizzes(r.Context())
		if err != nil {
			send <- errorFrame(err)
			return
		}
		send <- outboundMessage[any]{Type: "catalog", Payload: summaries}
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
			send <- errorFrame(fmt.Errorf("invalid select payload"))
			return
		}
		if err := h.service.Select(r.Context(), session, payload.QuizID); err != nil {
			h.logger.Warn("select rejected", zap.String("quizId", payload.QuizID), zap.Error(err))
			send <- errorFrame(err)
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorFrame(fmt.Errorf("invalid answer payload"))
			return
		}
		if err := session.RecordAnswer(payload.Choice); err != nil {
			send <- errorFrame(err)
		}
	case "advance":
		if err := session.Advance(); err != nil {
			send <- errorFrame(err)
		}
	case "restart":
		if err := session.Restart(); err != nil {
			send <- errorFrame(err)
		}
	default:
		send <- errorFrame(fmt.Errorf("unsupported message type"))
	}
}

func errorFrame(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
