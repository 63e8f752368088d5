package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"owner_chat_service/internal/chat/domain"
	errprocess "owner_chat_service/pkg/err"
	"owner_chat_service/pkg/metrics"

	"github.com/google/uuid"
)

// MessageStore persists chat messages and answers the history queries
type MessageStore interface {
	// Insert assigns ID, CreatedAt and Read=false, then persists the message
	Insert(ctx context.Context, msg domain.Message) (domain.Message, error)
	// Query both directions between userA and userB, ascending by CreatedAt then ID
	Query(ctx context.Context, userA, userB string, page, pageSize int) ([]domain.Message, int64, error)
	// MarkRead flags every unread senderID→receiverID message, idempotent
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
	// DistinctCorrespondents senders who wrote to ownerID with their latest message, newest first
	DistinctCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error)
}

// stamper hands out message IDs and creation times in insertion order.
// CreatedAt never goes backwards within a store, ties are broken by the time-ordered ID.
type stamper struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newStamper() *stamper {
	return &stamper{now: time.Now}
}

func (s *stamper) stamp(msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return msg, fmt.Errorf("message id: %w", err)
	}

	at := s.now().UTC().Truncate(time.Millisecond)
	if at.Before(s.last) {
		at = s.last
	}
	s.last = at

	msg.ID = id.String()
	msg.CreatedAt = at
	msg.Read = false
	return msg, nil
}

func checkPaging(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return fmt.Errorf("%w: page=%d pageSize=%d", domain.ErrInvalidInput, page, pageSize)
	}
	return nil
}

// pageOffset rows before page, ok is false when the offset does not fit in an int
func pageOffset(page, pageSize int) (int, bool) {
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

func storeErr(op string, err error) error {
	return errprocess.Wrap(domain.ErrStoreUnavailable, op, err)
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
