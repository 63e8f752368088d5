package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/pkg/logger"
	"owner_chat_service/pkg/metrics"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Sink outbound side of one connection. Send must not block.
type Sink interface {
	Send(payload []byte) error
}

// Relay carries user-routed events to sessions held by other instances
type Relay interface {
	Publish(ctx context.Context, userID string, payload []byte) error
}

const (
	relayQueueSize      = 1024
	relayPublishTimeout = 2 * time.Second
)

type relayEvent struct {
	userID  string
	payload []byte
}

type session struct {
	id        string
	sink      Sink
	userID    string
	createdAt time.Time
}

// SessionRouter owns the live sessions and the user id → sessions index.
// Delivery is at-most-once and best-effort per session.
type SessionRouter struct {
	mu       sync.RWMutex
	sessions map[string]*session
	byUser   map[string]map[string]struct{}

	presence *PresenceRegistry
	relay    Relay
	relayQ   chan relayEvent
}

// NewSessionRouter create router bound to presence, relay may be nil.
// With a relay, RunRelay must be started to publish to other instances.
func NewSessionRouter(presence *PresenceRegistry, relay Relay) *SessionRouter {
	r := &SessionRouter{
		sessions: make(map[string]*session),
		byUser:   make(map[string]map[string]struct{}),
		presence: presence,
		relay:    relay,
	}
	if relay != nil {
		r.relayQ = make(chan relayEvent, relayQueueSize)
	}
	return r
}

// Register adds an anonymous session and returns its id
func (r *SessionRouter) Register(sink Sink) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &session{id: id, sink: sink, createdAt: time.Now()}
	metrics.ActiveConnections.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	return id
}

// Bind sets the session identity once. A conflicting later bind keeps the first identity
// and returns it with ErrAlreadyBound.
func (r *SessionRouter) Bind(sessionID, userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if s.userID != "" {
		if s.userID == userID {
			return userID, nil
		}
		return s.userID, domain.ErrAlreadyBound
	}

	s.userID = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[sessionID] = struct{}{}

	// presence changes together with the index
	r.presence.Join(userID, sessionID)
	return userID, nil
}

// Unregister drops the session and its presence, unknown ids are ignored
func (r *SessionRouter) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	metrics.ActiveConnections.Set(float64(len(r.sessions)))

	if s.userID == "" {
		return
	}
	if set := r.byUser[s.userID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.byUser, s.userID)
		}
	}
	r.presence.Leave(sessionID)
}

// userOf identity bound to sessionID, empty when anonymous or unknown
func (r *SessionRouter) userOf(sessionID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.userID
	}
	return ""
}

// sessionsOf ids of the local sessions bound to userID
func (r *SessionRouter) sessionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byUser[userID])
}

// SendToSession delivers event to one session
func (r *SessionRouter) SendToSession(sessionID string, event domain.WSResponse) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Event, err)
	}

	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := s.sink.Send(payload); err != nil {
		r.dropped(s.id, event.Event, err)
		return err
	}
	return nil
}

// RouteToUser delivers event to every session bound to userID, returns the local delivery count
func (r *SessionRouter) RouteToUser(userID string, event domain.WSResponse) int {
	return r.RouteToUsers(event, userID)
}

// RouteToUsers delivers event once to each session bound to any of userIDs
func (r *SessionRouter) RouteToUsers(event domain.WSResponse, userIDs ...string) int {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("route: encode event", zap.String("event", string(event.Event)), zap.Error(err))
		return 0
	}

	targets := lo.Uniq(userIDs)
	delivered := 0
	for _, userID := range targets {
		delivered += r.deliverLocal(userID, event.Event, payload)
	}
	for _, userID := range targets {
		r.enqueueRelay(userID, event.Event, payload)
	}
	return delivered
}

// DeliverRelayed hands an event received from another instance to local sessions of userID
func (r *SessionRouter) DeliverRelayed(userID string, payload []byte) {
	r.deliverLocal(userID, "relayed", payload)
}

// Broadcast delivers event to every registered session, bound or not
func (r *SessionRouter) Broadcast(event domain.WSResponse) int {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("broadcast: encode event", zap.String("event", string(event.Event)), zap.Error(err))
		return 0
	}

	r.mu.RLock()
	targets := lo.Values(r.sessions)
	r.mu.RUnlock()

	return r.sendAll(targets, event.Event, payload)
}

// BroadcastPresence sends users as online_users to every session, the publish side of PresenceRegistry.Run
func (r *SessionRouter) BroadcastPresence(users []string) {
	r.Broadcast(domain.WSResponse{Event: domain.EventOnlineUsers, Success: true, Data: users})
}

// SessionCount registered sessions on this instance
func (r *SessionRouter) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRouter) deliverLocal(userID string, event domain.Event, payload []byte) int {
	r.mu.RLock()
	targets := make([]*session, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		targets = append(targets, r.sessions[id])
	}
	r.mu.RUnlock()

	return r.sendAll(targets, event, payload)
}

func (r *SessionRouter) sendAll(targets []*session, event domain.Event, payload []byte) int {
	delivered := 0
	for _, s := range targets {
		if err := s.sink.Send(payload); err != nil {
			r.dropped(s.id, event, err)
			continue
		}
		delivered++
	}
	return delivered
}

// enqueueRelay never blocks, a full queue drops the relay copy only
func (r *SessionRouter) enqueueRelay(userID string, event domain.Event, payload []byte) {
	if r.relayQ == nil {
		return
	}
	select {
	case r.relayQ <- relayEvent{userID: userID, payload: payload}:
	default:
		metrics.DroppedEvents.Inc()
		logger.Log.Warn("relay queue full, dropped", zap.String("userID", userID), zap.String("event", string(event)))
	}
}

// RunRelay publishes queued user-routed events to the relay until ctx is done
func (r *SessionRouter) RunRelay(ctx context.Context) {
	if r.relayQ == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.relayQ:
			r.publish(ctx, ev)
		}
	}
}

func (r *SessionRouter) publish(ctx context.Context, ev relayEvent) {
	pubCtx, cancel := context.WithTimeout(ctx, relayPublishTimeout)
	defer cancel()
	if err := r.relay.Publish(pubCtx, ev.userID, ev.payload); err != nil {
		logger.Log.Warn("relay publish failed", zap.String("userID", ev.userID), zap.Error(err))
	}
}

func (r *SessionRouter) dropped(sessionID string, event domain.Event, err error) {
	metrics.DroppedEvents.Inc()
	level := logger.Log.Debug
	if errors.Is(err, domain.ErrSlowConsumer) {
		level = logger.Log.Warn
	}
	level("event dropped", zap.String("sessionID", sessionID), zap.String("event", string(event)), zap.Error(err))
}
