package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ChatWebsocketHandler 是 /ws 連線的處理者
type ChatWebsocketHandler struct {
	router    *SessionRouter
	messageUC *MessageUseCase
	cfg       config.WebsocketConfig
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(router *SessionRouter, messageUC *MessageUseCase, cfg config.WebsocketConfig) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		router:    router,
		messageUC: messageUC,
		cfg:       cfg.WithDefaults(),
	}
}

// connSink bounded outbound queue of one connection, drained by its writer goroutine
type connSink struct {
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newConnSink(size int) *connSink {
	return &connSink{send: make(chan []byte, size)}
}

func (s *connSink) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionNotFound
	}
	select {
	case s.send <- payload:
		return nil
	default:
		return domain.ErrSlowConsumer
	}
}

func (s *connSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// HandleConnection 是 WebSocket 連線的進入點, returns after the connection is fully torn down
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	sink := newConnSink(h.cfg.SendBuffer)
	sessionID := h.router.Register(sink)
	log := logger.Log.With(zap.String("sessionID", sessionID), zap.String("remote", conn.RemoteAddr().String()))
	log.Info("websocket open", zap.Int("sessions", h.router.SessionCount()))

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, sink, log)
	}()

	defer func() {
		h.router.Unregister(sessionID)
		sink.close()
		<-writerDone
		_ = conn.Close()
		log.Info("websocket close", zap.Int("sessions", h.router.SessionCount()))
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.RatePerSecond), h.cfg.RateBurst)

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				log.Warn("websocket read error", zap.Error(err))
			} else {
				log.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		if !limiter.Allow() {
			h.sendError(sessionID, domain.CodeRateLimited)
			continue
		}
		if mt != websocket.TextMessage {
			h.sendError(sessionID, domain.CodeBadFrame)
			continue
		}
		h.dispatch(ctx, sessionID, message)
	}
}

// writePump 是唯一寫入 conn 的 goroutine, it also sends the keepalive pings
func (h *ChatWebsocketHandler) writePump(conn *websocket.Conn, sink *connSink, log *logger.LogInfo) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sink.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				// unblocks the reader so the session is unregistered
				_ = conn.Close()
				h.drain(sink)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteWait)); err != nil {
				log.Debug("websocket ping failed", zap.Error(err))
				_ = conn.Close()
				h.drain(sink)
				return
			}
		}
	}
}

// drain discards queued events until the sink is closed
func (h *ChatWebsocketHandler) drain(sink *connSink) {
	for range sink.send {
	}
}

func (h *ChatWebsocketHandler) dispatch(ctx context.Context, sessionID string, raw []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendError(sessionID, domain.CodeBadFrame)
		return
	}

	switch req.Event {
	case domain.EventJoin:
		h.join(sessionID, req.Data)

	case domain.EventChatMessage:
		var msg domain.ChatMessageRequest
		if err := json.Unmarshal(req.Data, &msg); err != nil {
			_ = h.router.SendToSession(sessionID, domain.WSResponse{
				Event: domain.EventChatMessageError,
				Data:  domain.MessageErrorPayload{},
				Error: domain.CodeInvalidInput,
			})
			return
		}
		h.messageUC.Send(ctx, sessionID, msg)

	default:
		h.sendError(sessionID, domain.CodeUnknownEvent)
	}
}

func (h *ChatWebsocketHandler) join(sessionID string, data json.RawMessage) {
	var req domain.JoinRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			h.sendError(sessionID, domain.CodeBadFrame)
			return
		}
	}

	userID, err := h.router.Bind(sessionID, req.UserID)
	resp := domain.WSResponse{Event: domain.EventJoined}
	switch {
	case err == nil, errors.Is(err, domain.ErrAlreadyBound):
		resp.Success = true
		resp.Data = domain.JoinedPayload{
			UserID:       userID,
			SessionID:    sessionID,
			AlreadyBound: err != nil,
		}
	case errors.Is(err, domain.ErrInvalidIdentity):
		resp.Error = domain.CodeInvalidIdentity
	default:
		logger.Log.Warn("join failed", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}
	_ = h.router.SendToSession(sessionID, resp)
}

func (h *ChatWebsocketHandler) sendError(sessionID, code string) {
	_ = h.router.SendToSession(sessionID, domain.WSResponse{
		Event: domain.EventError,
		Error: code,
	})
}
