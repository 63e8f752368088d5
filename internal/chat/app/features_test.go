package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/logger"

	"github.com/cucumber/godog"
)

type chatWorld struct {
	store    *repository.MemoryMessageStore
	presence *PresenceRegistry
	router   *SessionRouter
	messages *MessageUseCase
	history  *HistoryUseCase

	sinks    map[string][]*fakeSink
	sessions map[string][]string
	page     domain.HistoryPage
}

func (w *chatWorld) aRunningChatService() error {
	logger.SetNewNop()
	w.store = repository.NewMemoryMessageStore()
	w.presence = NewPresenceRegistry()
	w.router = NewSessionRouter(w.presence, nil)
	w.messages = NewMessageUseCase(w.store, w.router, nil, time.Second)
	w.history = NewHistoryUseCase(w.store, w.router, config.HistoryConfig{}, time.Second)
	w.sinks = map[string][]*fakeSink{}
	w.sessions = map[string][]string{}
	return nil
}

func (w *chatWorld) isConnectedWithSessions(user string, n int) error {
	for i := 0; i < n; i++ {
		s := &fakeSink{}
		id := w.router.Register(s)
		if _, err := w.router.Bind(id, user); err != nil {
			return err
		}
		w.sinks[user] = append(w.sinks[user], s)
		w.sessions[user] = append(w.sessions[user], id)
	}
	return nil
}

func (w *chatWorld) sendsTo(sender, content, receiver string) error {
	if len(w.sessions[sender]) == 0 {
		return fmt.Errorf("%s has no session", sender)
	}
	w.messages.Send(context.Background(), w.sessions[sender][0], domain.ChatMessageRequest{
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
	})
	return nil
}

func (w *chatWorld) theStoreHoldsMessagesFromTo(n int, sender, receiver string) error {
	msgs, _, err := w.store.Query(context.Background(), sender, receiver, 1, 100)
	if err != nil {
		return err
	}
	count := 0
	for _, m := range msgs {
		if m.SenderID == sender && m.ReceiverID == receiver {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("expected %d messages from %s to %s, got %d", n, sender, receiver, count)
	}
	return nil
}

func (w *chatWorld) everySessionReceives(user, event string) error {
	for i, s := range w.sinks[user] {
		if got := len(s.byEvent(domain.Event(event))); got != 1 {
			return fmt.Errorf("session %d of %s got %d %s events", i, user, got, event)
		}
	}
	return nil
}

func (w *chatWorld) noSessionReceives(user, event string) error {
	for i, s := range w.sinks[user] {
		if got := len(s.byEvent(domain.Event(event))); got != 0 {
			return fmt.Errorf("session %d of %s got %d %s events", i, user, got, event)
		}
	}
	return nil
}

func (w *chatWorld) oneSessionDisconnects(user string) error {
	ids := w.sessions[user]
	if len(ids) == 0 {
		return fmt.Errorf("%s has no session", user)
	}
	w.router.Unregister(ids[0])
	w.sessions[user] = ids[1:]
	return nil
}

func (w *chatWorld) everySessionDisconnects(user string) error {
	for _, id := range w.sessions[user] {
		w.router.Unregister(id)
	}
	w.sessions[user] = nil
	return nil
}

func (w *chatWorld) isOnline(user string) error {
	if !w.presence.IsOnline(user) {
		return fmt.Errorf("%s should be online, snapshot %v", user, w.presence.Snapshot())
	}
	return nil
}

func (w *chatWorld) isOffline(user string) error {
	if w.presence.IsOnline(user) {
		return fmt.Errorf("%s should be offline", user)
	}
	return nil
}

func (w *chatWorld) messagesBetween(n int, userA, userB string) error {
	for i := 0; i < n; i++ {
		from, to := userA, userB
		if i%2 == 1 {
			from, to = userB, userA
		}
		if _, err := w.store.Insert(context.Background(), domain.Message{SenderID: from, ReceiverID: to, Content: fmt.Sprintf("m%d", i)}); err != nil {
			return err
		}
	}
	return nil
}

func (w *chatWorld) requestsPage(user string, page, limit int, owner string) error {
	p, err := w.history.GetHistory(context.Background(), user, owner, page, limit)
	w.page = p
	return err
}

func (w *chatWorld) messagesReturnedWithTotal(n, total int) error {
	if len(w.page.Messages) != n || w.page.Total != int64(total) {
		return fmt.Errorf("got %d messages total %d", len(w.page.Messages), w.page.Total)
	}
	return nil
}

func InitializeChatScenario(sc *godog.ScenarioContext) {
	w := &chatWorld{}

	sc.Step(`^a running chat service$`, w.aRunningChatService)
	sc.Step(`^"([^"]*)" is connected with (\d+) sessions?$`, w.isConnectedWithSessions)
	sc.Step(`^"([^"]*)" sends "([^"]*)" to "([^"]*)"$`, w.sendsTo)
	sc.Step(`^the store holds (\d+) messages? from "([^"]*)" to "([^"]*)"$`, w.theStoreHoldsMessagesFromTo)
	sc.Step(`^every session of "([^"]*)" receives a "([^"]*)" event$`, w.everySessionReceives)
	sc.Step(`^no session of "([^"]*)" receives a "([^"]*)" event$`, w.noSessionReceives)
	sc.Step(`^one session of "([^"]*)" disconnects$`, w.oneSessionDisconnects)
	sc.Step(`^every session of "([^"]*)" disconnects$`, w.everySessionDisconnects)
	sc.Step(`^"([^"]*)" is online$`, w.isOnline)
	sc.Step(`^"([^"]*)" is offline$`, w.isOffline)
	sc.Step(`^(\d+) messages between "([^"]*)" and "([^"]*)"$`, w.messagesBetween)
	sc.Step(`^"([^"]*)" requests page (\d+) with limit (\d+) of the history with "([^"]*)"$`, w.requestsPage)
	sc.Step(`^(\d+) messages are returned with total (\d+)$`, w.messagesReturnedWithTotal)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeChatScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
