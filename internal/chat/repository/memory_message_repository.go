package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"owner_chat_service/internal/chat/domain"

	"github.com/samber/lo"
)

// MemoryMessageStore keeps messages in process, used by tests and the memory store driver
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	stamp    *stamper

	// failWith, when set, is returned wrapped as ErrStoreUnavailable by every call
	failWith error
}

// NewMemoryMessageStore create an empty in-process store
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{stamp: newStamper()}
}

// SetFailure makes every following call fail with cause, nil restores normal operation
func (s *MemoryMessageStore) SetFailure(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = cause
}

// SetClock replaces the wall clock used for CreatedAt
func (s *MemoryMessageStore) SetClock(now func() time.Time) {
	s.stamp.mu.Lock()
	defer s.stamp.mu.Unlock()
	s.stamp.now = now
}

func (s *MemoryMessageStore) Insert(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, storeErr("insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return domain.Message{}, storeErr("insert", s.failWith)
	}

	msg, err := s.stamp.stamp(msg)
	if err != nil {
		return domain.Message{}, storeErr("insert", err)
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *MemoryMessageStore) Query(ctx context.Context, userA, userB string, page, pageSize int) ([]domain.Message, int64, error) {
	if err := checkPaging(page, pageSize); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, storeErr("query", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, 0, storeErr("query", s.failWith)
	}

	conv := lo.Filter(s.messages, func(m domain.Message, _ int) bool {
		return (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA)
	})
	sort.SliceStable(conv, func(i, j int) bool {
		if !conv[i].CreatedAt.Equal(conv[j].CreatedAt) {
			return conv[i].CreatedAt.Before(conv[j].CreatedAt)
		}
		return conv[i].ID < conv[j].ID
	})

	total := int64(len(conv))
	skip, ok := pageOffset(page, pageSize)
	if !ok || skip >= len(conv) {
		return []domain.Message{}, total, nil
	}
	end := min(skip+pageSize, len(conv))

	out := make([]domain.Message, end-skip)
	copy(out, conv[skip:end])
	return out, total, nil
}

func (s *MemoryMessageStore) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErr("mark read", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, storeErr("mark read", s.failWith)
	}

	var updated int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryMessageStore) DistinctCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("correspondents", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, storeErr("correspondents", s.failWith)
	}

	// messages are appended in stamp order, so the last one seen per sender is the latest
	latest := make(map[string]domain.Message)
	for _, m := range s.messages {
		if m.ReceiverID == ownerID {
			latest[m.SenderID] = m
		}
	}

	last := lo.Values(latest)
	sort.Slice(last, func(i, j int) bool {
		if !last[i].CreatedAt.Equal(last[j].CreatedAt) {
			return last[i].CreatedAt.After(last[j].CreatedAt)
		}
		return last[i].ID > last[j].ID
	})

	return lo.Map(last, func(m domain.Message, _ int) domain.ChatUserSummary {
		return domain.ChatUserSummary{
			ID:          m.SenderID,
			Name:        m.SenderName,
			Avatar:      m.SenderAvatar,
			LastMessage: m.Content,
			LastAt:      m.CreatedAt,
		}
	}), nil
}
