package editor

import (
	"context"
	"fmt"
	"sync"

	"imagetext-studio/autosave"
	"imagetext-studio/core"
	"imagetext-studio/rendersync"

	"github.com/sirupsen/logrus"
)

// Manager hands out one editing session per composition id, creating them
// on demand and restoring any autosaved state on first access.
type Manager struct {
	mu       sync.Mutex
	store    core.SnapshotStore
	sessions map[string]*Session
}

// NewManager creates a session registry backed by the given snapshot store.
// A nil store disables autosave.
func NewManager(store core.SnapshotStore) *Manager {
	return &Manager{
		store:    store,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for a composition id, creating it if needed.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		return session
	}

	var saver *autosave.Adapter
	if m.store != nil {
		key := fmt.Sprintf("%s/%s", autosave.DefaultKey, id)
		saver = autosave.New(m.store, key, autosave.DefaultDelay)
	}
	session := NewSession(rendersync.NewShadowSurface(core.CanvasSize{}), saver)
	if session.RestoreSaved(context.Background()) {
		logrus.WithField("composition_id", id).Info("Session restored from autosave")
	}
	m.sessions[id] = session
	return session
}

// Remove flushes and drops the session for a composition id.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		session.Flush()
	}
}

// FlushAll forces pending debounced work on every session, e.g. at shutdown.
func (m *Manager) FlushAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()
	for _, session := range sessions {
		session.Flush()
	}
}
