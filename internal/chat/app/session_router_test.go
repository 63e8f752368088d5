package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"owner_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*SessionRouter, *PresenceRegistry) {
	p := NewPresenceRegistry()
	return NewSessionRouter(p, nil), p
}

func TestSessionRouter_Bind(t *testing.T) {
	r, p := newTestRouter()
	id := r.Register(&fakeSink{})

	userID, err := r.Bind(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
	assert.True(t, p.IsOnline("alice"))
	assert.Equal(t, "alice", r.userOf(id))

	// same identity again is a no-op
	userID, err = r.Bind(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestSessionRouter_BindConflictKeepsFirst(t *testing.T) {
	r, p := newTestRouter()
	id := r.Register(&fakeSink{})
	_, _ = r.Bind(id, "alice")

	userID, err := r.Bind(id, "bob")
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)
	assert.Equal(t, "alice", userID)
	assert.False(t, p.IsOnline("bob"))
	assert.Equal(t, "alice", r.userOf(id))
}

func TestSessionRouter_BindErrors(t *testing.T) {
	r, _ := newTestRouter()
	id := r.Register(&fakeSink{})

	_, err := r.Bind(id, "")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	_, err = r.Bind("missing", "alice")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRouter_UnregisterLeavesPresence(t *testing.T) {
	r, p := newTestRouter()
	s1 := r.Register(&fakeSink{})
	s2 := r.Register(&fakeSink{})
	_, _ = r.Bind(s1, "alice")
	_, _ = r.Bind(s2, "alice")

	r.Unregister(s1)
	assert.True(t, p.IsOnline("alice"))
	assert.Equal(t, []string{s2}, r.sessionsOf("alice"))

	r.Unregister(s2)
	assert.False(t, p.IsOnline("alice"))
	assert.Empty(t, r.sessionsOf("alice"))
	assert.Equal(t, 0, r.SessionCount())

	// unknown ids are ignored
	r.Unregister(s2)
}

func TestSessionRouter_RouteToUsersOncePerSession(t *testing.T) {
	r, _ := newTestRouter()
	a1, a2, b1 := &fakeSink{}, &fakeSink{}, &fakeSink{}
	_, _ = r.Bind(r.Register(a1), "alice")
	_, _ = r.Bind(r.Register(a2), "alice")
	_, _ = r.Bind(r.Register(b1), "bob")

	n := r.RouteToUsers(domain.WSResponse{Event: domain.EventChatMessage, Success: true}, "alice", "bob", "alice")

	assert.Equal(t, 3, n)
	for _, s := range []*fakeSink{a1, a2, b1} {
		assert.Len(t, s.byEvent(domain.EventChatMessage), 1)
	}
}

func TestSessionRouter_FailingSinkDoesNotBlockOthers(t *testing.T) {
	r, _ := newTestRouter()
	bad := &fakeSink{fail: domain.ErrSlowConsumer}
	good := &fakeSink{}
	_, _ = r.Bind(r.Register(bad), "alice")
	_, _ = r.Bind(r.Register(good), "alice")

	n := r.RouteToUser("alice", domain.WSResponse{Event: domain.EventNewMessage})

	assert.Equal(t, 1, n)
	assert.Len(t, good.byEvent(domain.EventNewMessage), 1)
}

func TestSessionRouter_SendToSession(t *testing.T) {
	r, _ := newTestRouter()
	s := &fakeSink{}
	id := r.Register(s)

	require.NoError(t, r.SendToSession(id, domain.WSResponse{Event: domain.EventError, Error: "x"}))
	assert.Len(t, s.byEvent(domain.EventError), 1)

	err := r.SendToSession("missing", domain.WSResponse{Event: domain.EventError})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRouter_BroadcastReachesAnonymousSessions(t *testing.T) {
	r, _ := newTestRouter()
	anon, bound := &fakeSink{}, &fakeSink{}
	r.Register(anon)
	_, _ = r.Bind(r.Register(bound), "alice")

	r.BroadcastPresence([]string{"alice"})

	assert.Len(t, anon.byEvent(domain.EventOnlineUsers), 1)
	assert.Len(t, bound.byEvent(domain.EventOnlineUsers), 1)
	assert.JSONEq(t, `["alice"]`, string(anon.byEvent(domain.EventOnlineUsers)[0].Data))
}

func TestSessionRouter_RelayPublishAndDeliver(t *testing.T) {
	published := make(chan string, 2)
	record := func(args mock.Arguments) { published <- args.String(1) }

	relay := new(MockRelay)
	relay.On("Publish", mock.Anything, "bob", mock.Anything).Return(nil).Once().Run(record)
	relay.On("Publish", mock.Anything, "carol", mock.Anything).Return(errors.New("redis down")).Once().Run(record)

	r := NewSessionRouter(NewPresenceRegistry(), relay)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.RunRelay(ctx)

	b := &fakeSink{}
	_, _ = r.Bind(r.Register(b), "bob")

	r.RouteToUser("bob", domain.WSResponse{Event: domain.EventNewMessage})
	// relay failure only logs
	r.RouteToUser("carol", domain.WSResponse{Event: domain.EventNewMessage})

	for _, want := range []string{"bob", "carol"} {
		select {
		case got := <-published:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("relay publish for %s not seen", want)
		}
	}

	r.DeliverRelayed("bob", []byte(`{"event":"new_message","success":true}`))

	assert.Len(t, b.byEvent(domain.EventNewMessage), 2)
	relay.AssertExpectations(t)
}

// stalledRelay never completes a publish before its context ends
type stalledRelay struct {
	calls chan string
}

func (s *stalledRelay) Publish(ctx context.Context, userID string, _ []byte) error {
	select {
	case s.calls <- userID:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSessionRouter_StalledRelayDoesNotDelayLocalDelivery(t *testing.T) {
	relay := &stalledRelay{calls: make(chan string, 8)}
	r := NewSessionRouter(NewPresenceRegistry(), relay)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.RunRelay(ctx)

	a, b := &fakeSink{}, &fakeSink{}
	_, _ = r.Bind(r.Register(a), "alice")
	_, _ = r.Bind(r.Register(b), "bob")

	start := time.Now()
	delivered := r.RouteToUsers(domain.WSResponse{Event: domain.EventChatMessage}, "alice", "bob")

	assert.Equal(t, 2, delivered)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Len(t, a.byEvent(domain.EventChatMessage), 1)
	assert.Len(t, b.byEvent(domain.EventChatMessage), 1)

	select {
	case <-relay.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("relay never received the event")
	}
}

func TestSessionRouter_FullRelayQueueDropsWithoutBlocking(t *testing.T) {
	relay := new(MockRelay)
	// RunRelay is not started, so the queue only fills
	r := NewSessionRouter(NewPresenceRegistry(), relay)
	s := &fakeSink{}
	_, _ = r.Bind(r.Register(s), "alice")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < relayQueueSize+10; i++ {
			r.RouteToUser("alice", domain.WSResponse{Event: domain.EventNewMessage})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("routing blocked on a full relay queue")
	}
	assert.Len(t, s.byEvent(domain.EventNewMessage), relayQueueSize+10)
	relay.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
