package app

import (
	"context"
	"errors"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/pkg/logger"
	"owner_chat_service/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultStoreTimeout = 5 * time.Second

// MessageState where a chat_message ended up
type MessageState int

const (
	// StateReceived frame decoded
	StateReceived MessageState = iota
	// StateValidated required fields present
	StateValidated
	// StatePersisted stored, not yet fanned out
	StatePersisted
	// StateDelivered fanned out to sender and receiver sessions
	StateDelivered
	// StateRejectedInvalid failed validation, nothing stored
	StateRejectedInvalid
	// StatePersistFailed store error or timeout, nothing delivered
	StatePersistFailed
)

func (s MessageState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StatePersisted:
		return "persisted"
	case StateDelivered:
		return "delivered"
	case StateRejectedInvalid:
		return "rejected_invalid"
	case StatePersistFailed:
		return "persist_failed"
	}
	return "unknown"
}

// SendResult outcome of one chat_message
type SendResult struct {
	State   MessageState
	Message domain.Message
	Err     error
}

// MessageUseCase 負責處理聊天訊息: validate, persist, then fan out
type MessageUseCase struct {
	store      repository.MessageStore
	router     *SessionRouter
	dispatcher *NotificationDispatcher
	validate   *validator.Validate
	timeout    time.Duration
}

// NewMessageUseCase dispatcher may be nil to disable external notifications
func NewMessageUseCase(
	store repository.MessageStore,
	router *SessionRouter,
	dispatcher *NotificationDispatcher,
	storeTimeout time.Duration,
) *MessageUseCase {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &MessageUseCase{
		store:      store,
		router:     router,
		dispatcher: dispatcher,
		validate:   validator.New(),
		timeout:    storeTimeout,
	}
}

// Send handles a chat_message from originSession. Failures are acknowledged to
// originSession only, success is delivered as chat_message to both parties and
// new_message to the receiver.
func (uc *MessageUseCase) Send(ctx context.Context, originSession string, req domain.ChatMessageRequest) SendResult {
	res := SendResult{State: StateReceived}

	if err := uc.validate.Struct(req); err != nil {
		res.State, res.Err = StateRejectedInvalid, errors.Join(domain.ErrInvalidInput, err)
		uc.fail(originSession, req.ClientMessageID, domain.CodeInvalidInput, res)
		return res
	}
	res.State = StateValidated

	storeCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	msg, err := uc.store.Insert(storeCtx, req.ToMessage())
	if err != nil {
		res.State, res.Err = StatePersistFailed, err
		uc.fail(originSession, req.ClientMessageID, domain.CodeStoreUnavailable, res)
		return res
	}
	res.State, res.Message = StatePersisted, msg

	uc.router.RouteToUsers(domain.WSResponse{
		Event:   domain.EventChatMessage,
		Success: true,
		Data:    msg,
	}, msg.SenderID, msg.ReceiverID)

	if msg.SenderID != msg.ReceiverID {
		uc.router.RouteToUser(msg.ReceiverID, domain.WSResponse{
			Event:   domain.EventNewMessage,
			Success: true,
			Data:    msg,
		})
	}
	res.State = StateDelivered
	metrics.MessagesTotal.WithLabelValues(res.State.String()).Inc()

	if uc.dispatcher != nil {
		uc.dispatcher.Enqueue(msg)
	}

	logger.Log.Debug("message delivered", zap.String("id", msg.ID), zap.String("senderID", msg.SenderID), zap.String("receiverID", msg.ReceiverID))
	return res
}

func (uc *MessageUseCase) fail(originSession, clientMessageID, code string, res SendResult) {
	metrics.MessagesTotal.WithLabelValues(res.State.String()).Inc()
	logger.Log.Warn("chat_message failed", zap.String("sessionID", originSession), zap.String("state", res.State.String()), zap.Error(res.Err))

	ack := domain.WSResponse{
		Event:   domain.EventChatMessageError,
		Success: false,
		Data:    domain.MessageErrorPayload{ClientMessageID: clientMessageID},
		Error:   code,
	}
	if err := uc.router.SendToSession(originSession, ack); err != nil {
		logger.Log.Debug("failure ack not delivered", zap.String("sessionID", originSession), zap.Error(err))
	}
}

// NotificationDispatcher pushes persisted messages to a Notifier off the request path.
// The queue is bounded, a full queue drops the notification.
type NotificationDispatcher struct {
	notifier repository.Notifier
	queue    chan domain.Message
	timeout  time.Duration
}

// NewNotificationDispatcher create dispatcher, call Run to start draining
func NewNotificationDispatcher(notifier repository.Notifier, size int, timeout time.Duration) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &NotificationDispatcher{
		notifier: notifier,
		queue:    make(chan domain.Message, size),
		timeout:  timeout,
	}
}

// Enqueue returns false when the message was dropped
func (d *NotificationDispatcher) Enqueue(msg domain.Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		logger.Log.Warn("notification queue full, dropped", zap.String("id", msg.ID))
		return false
	}
}

// Run publishes queued messages until ctx is done
func (d *NotificationDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			d.publish(ctx, msg)
		}
	}
}

func (d *NotificationDispatcher) publish(ctx context.Context, msg domain.Message) {
	pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(pubCtx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		logger.Log.Warn("notify failed", zap.String("id", msg.ID), zap.String("receiverID", msg.ReceiverID), zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}
