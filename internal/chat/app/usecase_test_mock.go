package app

import (
	"context"

	"owner_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageStore Mock repository.MessageStore
type MockMessageStore struct {
	mock.Mock
}

// Insert mock insert
func (m *MockMessageStore) Insert(ctx context.Context, msg domain.Message) (domain.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(domain.Message), args.Error(1)
}

// Query mock paged conversation
func (m *MockMessageStore) Query(ctx context.Context, userA, userB string, page, pageSize int) ([]domain.Message, int64, error) {
	args := m.Called(ctx, userA, userB, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Message), args.Get(1).(int64), args.Error(2)
}

// MarkRead mock mark read
func (m *MockMessageStore) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

// DistinctCorrespondents mock owner inbox
func (m *MockMessageStore) DistinctCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatUserSummary), args.Error(1)
}

// MockNotifier Mock repository.Notifier
type MockNotifier struct {
	mock.Mock
}

// Notify mock notify
func (m *MockNotifier) Notify(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// Close mock close
func (m *MockNotifier) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRelay Mock Relay
type MockRelay struct {
	mock.Mock
}

// Publish mock relay publish
func (m *MockRelay) Publish(ctx context.Context, userID string, payload []byte) error {
	args := m.Called(ctx, userID, payload)
	return args.Error(0)
}
