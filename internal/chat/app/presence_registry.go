package app

import (
	"context"
	"sort"
	"sync"

	"owner_chat_service/pkg/metrics"

	"github.com/samber/lo"
)

// PresenceRegistry 線上使用者: user id → open bound sessions.
// A user is present iff it holds at least one session; empty sets are deleted.
type PresenceRegistry struct {
	mu     sync.Mutex
	byUser map[string]map[string]struct{}
	byConn map[string]string

	// changed holds at most one pending signal, the dispatch loop reads the latest snapshot
	changed chan struct{}
}

// NewPresenceRegistry create an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser:  make(map[string]map[string]struct{}),
		byConn:  make(map[string]string),
		changed: make(chan struct{}, 1),
	}
}

// Join registers sessionID under userID. Returns false when the pair is already registered.
func (p *PresenceRegistry) Join(userID, sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if owner, ok := p.byConn[sessionID]; ok {
		if owner == userID {
			return false
		}
		p.removeLocked(sessionID)
	}

	set, ok := p.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		p.byUser[userID] = set
	}
	set[sessionID] = struct{}{}
	p.byConn[sessionID] = userID

	metrics.OnlineUsers.Set(float64(len(p.byUser)))
	p.signal()
	return true
}

// Leave removes sessionID from whichever user holds it. Returns false for unknown sessions.
func (p *PresenceRegistry) Leave(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.removeLocked(sessionID) {
		return false
	}
	metrics.OnlineUsers.Set(float64(len(p.byUser)))
	p.signal()
	return true
}

func (p *PresenceRegistry) removeLocked(sessionID string) bool {
	userID, ok := p.byConn[sessionID]
	if !ok {
		return false
	}
	delete(p.byConn, sessionID)

	set := p.byUser[userID]
	delete(set, sessionID)
	if len(set) == 0 {
		delete(p.byUser, userID)
	}
	return true
}

// Snapshot sorted online user ids at a single point in time
func (p *PresenceRegistry) Snapshot() []string {
	p.mu.Lock()
	users := lo.Keys(p.byUser)
	p.mu.Unlock()

	sort.Strings(users)
	return users
}

// IsOnline reports whether userID holds at least one session
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byUser[userID]
	return ok
}

func (p *PresenceRegistry) signal() {
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// Run calls publish with the current snapshot after every change until ctx is done.
// Bursts of joins/leaves collapse into one publish of the latest view.
func (p *PresenceRegistry) Run(ctx context.Context, publish func(users []string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.changed:
			publish(p.Snapshot())
		}
	}
}
