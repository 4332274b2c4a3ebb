package gateway

import (
	"fmt"
	"sync"

	"github.com/dawei41468/CardGameApp/pkg/presence"
	"github.com/dawei41468/CardGameApp/pkg/queue"
	"github.com/google/uuid"
)

const noticeQueueSize = 64

// clientSession pairs a room session with the queue of notices that
// accumulate between WebSocket deliveries.
type clientSession struct {
	id      string
	session *presence.Session
	notices queue.Queue
}

func (c *clientSession) notify(message string) {
	if err := c.notices.Enqueue(NoticePayload{Message: message}); err != nil {
		// A full queue drops the newest notice.
		return
	}
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*clientSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*clientSession),
	}
}

func (r *sessionRegistry) add(session *presence.Session) *clientSession {
	cs := &clientSession{
		id:      uuid.NewString(),
		session: session,
		notices: queue.NewInMemoryQueue(noticeQueueSize),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[cs.id] = cs
	return cs
}

func (r *sessionRegistry) get(id string) (*clientSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", id)
	}
	return cs, nil
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
