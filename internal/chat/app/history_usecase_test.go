package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedConversation(t *testing.T, store repository.MessageStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		from, to := "user", "owner"
		if i%2 == 1 {
			from, to = to, from
		}
		_, err := store.Insert(context.Background(), domain.Message{SenderID: from, ReceiverID: to, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
}

func TestHistoryUseCase_Defaults(t *testing.T) {
	logger.SetNewNop()
	store := new(MockMessageStore)
	store.On("Query", mock.Anything, "u", "o", 1, 20).Return([]domain.Message{}, int64(0), nil).Once()
	store.On("Query", mock.Anything, "u", "o", 3, 100).Return([]domain.Message{}, int64(0), nil).Once()

	uc := NewHistoryUseCase(store, nil, config.HistoryConfig{}, time.Second)

	_, err := uc.GetHistory(context.Background(), "u", "o", 0, 0)
	require.NoError(t, err)
	_, err = uc.GetHistory(context.Background(), "u", "o", 3, 5000)
	require.NoError(t, err)

	store.AssertExpectations(t)
}

func TestHistoryUseCase_RequiresIDs(t *testing.T) {
	uc := NewHistoryUseCase(new(MockMessageStore), nil, config.HistoryConfig{}, time.Second)

	_, err := uc.GetHistory(context.Background(), "", "o", 1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.MarkRead(context.Background(), "s", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ListCorrespondents(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryUseCase_PageTwoOfFifteen(t *testing.T) {
	store := repository.NewMemoryMessageStore()
	seedConversation(t, store, 15)
	uc := NewHistoryUseCase(store, nil, config.HistoryConfig{}, time.Second)

	page, err := uc.GetHistory(context.Background(), "user", "owner", 2, 10)

	require.NoError(t, err)
	assert.EqualValues(t, 15, page.Total)
	require.Len(t, page.Messages, 5)
	assert.Equal(t, "m10", page.Messages[0].Content)
	assert.Equal(t, "m14", page.Messages[4].Content)
}

func TestHistoryUseCase_MarkReadPushesReceipt(t *testing.T) {
	logger.SetNewNop()
	store := repository.NewMemoryMessageStore()
	seedConversation(t, store, 3) // user→owner twice, owner→user once

	router := NewSessionRouter(NewPresenceRegistry(), nil)
	sender := &fakeSink{}
	_, _ = router.Bind(router.Register(sender), "user")

	uc := NewHistoryUseCase(store, router, config.HistoryConfig{}, time.Second)

	updated, err := uc.MarkRead(context.Background(), "user", "owner")
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	receipts := sender.byEvent(domain.EventMessagesRead)
	require.Len(t, receipts, 1)
	assert.JSONEq(t, `{"senderID":"user","receiverID":"owner","updated":2}`, string(receipts[0].Data))

	// second call changes nothing
	updated, err = uc.MarkRead(context.Background(), "user", "owner")
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestHistoryUseCase_StoreErrorPropagates(t *testing.T) {
	store := new(MockMessageStore)
	store.On("DistinctCorrespondents", mock.Anything, "o").Return(nil, fmt.Errorf("%w: boom", domain.ErrStoreUnavailable))

	uc := NewHistoryUseCase(store, nil, config.HistoryConfig{}, time.Second)
	_, err := uc.ListCorrespondents(context.Background(), "o")

	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
