package app

import (
	"encoding/json"
	"sync"

	"owner_chat_service/internal/chat/domain"
)

// frame decoded server event as a client sees it
type frame struct {
	Event   domain.Event    `json:"event"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fakeSink struct {
	mu     sync.Mutex
	frames []frame
	fail   error
}

func (f *fakeSink) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	var fr frame
	if err := json.Unmarshal(payload, &fr); err != nil {
		return err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSink) byEvent(ev domain.Event) []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []frame
	for _, fr := range f.frames {
		if fr.Event == ev {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeSink) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func decodeMessage(fr frame) domain.Message {
	var m domain.Message
	_ = json.Unmarshal(fr.Data, &m)
	return m
}
