package service

import (
	"sync"

	"github.com/google/uuid"
)

// hub fans auth events out to subscribers of this process when no Redis
// is configured.
type hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[uuid.UUID]map[chan Event]struct{})}
}

func (h *hub) subscribe(userID uuid.UUID) (chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// publish never blocks; a subscriber that is not draining loses the event.
func (h *hub) publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *hub) count(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
