package app

import (
	"context"
	"fmt"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// HistoryUseCase read side of the chat: paged history, read receipts, correspondents
type HistoryUseCase struct {
	store   repository.MessageStore
	router  *SessionRouter
	paging  config.HistoryConfig
	timeout time.Duration
}

// NewHistoryUseCase router may be nil, then mark-read pushes no receipt
func NewHistoryUseCase(store repository.MessageStore, router *SessionRouter, paging config.HistoryConfig, storeTimeout time.Duration) *HistoryUseCase {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &HistoryUseCase{
		store:   store,
		router:  router,
		paging:  paging.WithDefaults(),
		timeout: storeTimeout,
	}
}

// GetHistory one page of the userID/ownerID conversation, page defaults to 1 and limit to
// the configured default, limit is capped at the configured max
func (uc *HistoryUseCase) GetHistory(ctx context.Context, userID, ownerID string, page, limit int) (domain.HistoryPage, error) {
	if userID == "" || ownerID == "" {
		return domain.HistoryPage{}, fmt.Errorf("%w: userId and ownerId are required", domain.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = uc.paging.DefaultPageSize
	}
	limit = min(limit, uc.paging.MaxPageSize)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	messages, total, err := uc.store.Query(ctx, userID, ownerID, page, limit)
	if err != nil {
		return domain.HistoryPage{}, err
	}
	return domain.HistoryPage{Messages: messages, Total: total}, nil
}

// MarkRead flags senderID→receiverID as read and tells the sender's sessions
func (uc *HistoryUseCase) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	if senderID == "" || receiverID == "" {
		return 0, fmt.Errorf("%w: senderId and receiverId are required", domain.ErrInvalidInput)
	}

	storeCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	updated, err := uc.store.MarkRead(storeCtx, senderID, receiverID)
	if err != nil {
		return 0, err
	}

	if uc.router != nil {
		uc.router.RouteToUser(senderID, domain.WSResponse{
			Event:   domain.EventMessagesRead,
			Success: true,
			Data:    domain.MessagesReadPayload{SenderID: senderID, ReceiverID: receiverID, Updated: updated},
		})
	}
	logger.Log.Debug("mark read", zap.String("senderID", senderID), zap.String("receiverID", receiverID), zap.Int64("updated", updated))
	return updated, nil
}

// ListCorrespondents users who wrote to ownerID, newest conversation first
func (uc *HistoryUseCase) ListCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: ownerId is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	return uc.store.DistinctCorrespondents(ctx, ownerID)
}
