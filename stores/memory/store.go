package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imagetext-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore implements ShareStore, CompositionStore and SnapshotStore in
// process memory. Useful for development and tests.
type memStore struct {
	mu           sync.RWMutex
	shares       map[string][]byte
	compositions map[string]map[string]*core.Composition // userID -> compositionID
	snapshots    map[string][]byte
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		shares:       make(map[string][]byte),
		compositions: make(map[string]map[string]*core.Composition),
		snapshots:    make(map[string][]byte),
	}
}

// FindID retrieves a shared composition by its ID. Part of the ShareStore
// interface.
func (s *memStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("share_id", id)
	data, ok := s.shares[id]
	if !ok {
		log.Warn("Share with specified ID not found")
		return nil, core.ErrShareNotFound
	}

	share := &core.Share{}
	share.Data.Write(data)
	log.Info("Share retrieved successfully")
	return share, nil
}

// Create stores a new shared composition blob. Part of the ShareStore
// interface.
func (s *memStore) Create(ctx context.Context, share *core.Share) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	data := make([]byte, share.Data.Len())
	copy(data, share.Data.Bytes())
	s.shares[id] = data

	logrus.WithFields(logrus.Fields{
		"share_id":    id,
		"data_length": len(data),
	}).Info("Share created successfully")
	return id, nil
}

// List returns metadata for all compositions owned by a user. Part of the
// CompositionStore interface.
func (s *memStore) List(ctx context.Context, userID string) ([]*core.Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, ok := s.compositions[userID]
	if !ok {
		return []*core.Composition{}, nil
	}

	comps := make([]*core.Composition, 0, len(owned))
	for _, comp := range owned {
		// List views stay light: no Data blob.
		comps = append(comps, &core.Composition{
			ID:        comp.ID,
			UserID:    comp.UserID,
			Name:      comp.Name,
			Thumbnail: comp.Thumbnail,
			CreatedAt: comp.CreatedAt,
			UpdatedAt: comp.UpdatedAt,
		})
	}

	logrus.WithField("user_id", userID).Infof("Listed %d compositions", len(comps))
	return comps, nil
}

// Get returns a single composition, ensuring it belongs to the user. Part of
// the CompositionStore interface.
func (s *memStore) Get(ctx context.Context, userID, id string) (*core.Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "composition_id": id})

	owned, ok := s.compositions[userID]
	if !ok {
		log.Warn("User has no compositions")
		return nil, core.ErrCompositionNotFound
	}

	comp, ok := owned[id]
	if !ok {
		log.Warn("Composition not found for user")
		return nil, core.ErrCompositionNotFound
	}

	log.Info("Composition retrieved successfully")
	return comp, nil
}

// Save creates or updates a composition for a user. Part of the
// CompositionStore interface.
func (s *memStore) Save(ctx context.Context, comp *core.Composition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": comp.UserID, "composition_id": comp.ID})

	if comp.UserID == "" {
		return errEmptyField("UserID")
	}
	if comp.ID == "" {
		return errEmptyField("ID")
	}

	owned, ok := s.compositions[comp.UserID]
	if !ok {
		owned = make(map[string]*core.Composition)
		s.compositions[comp.UserID] = owned
	}

	now := time.Now()
	if existing, exists := owned[comp.ID]; exists {
		comp.CreatedAt = existing.CreatedAt
	} else {
		comp.CreatedAt = now
	}
	comp.UpdatedAt = now

	owned[comp.ID] = comp
	log.Info("Composition saved successfully")
	return nil
}

// Delete removes a composition, ensuring it belongs to the user. Part of the
// CompositionStore interface.
func (s *memStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "composition_id": id})

	owned, ok := s.compositions[userID]
	if !ok {
		log.Warn("User has no compositions to delete from")
		return core.ErrCompositionNotFound
	}
	if _, ok := owned[id]; !ok {
		log.Warn("Composition not found for deletion")
		return core.ErrCompositionNotFound
	}

	delete(owned, id)
	log.Info("Composition deleted successfully")
	return nil
}

// GetSnapshot reads an autosave blob. Part of the SnapshotStore interface.
func (s *memStore) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[key]
	if !ok {
		return nil, core.ErrSnapshotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// PutSnapshot writes an autosave blob. Part of the SnapshotStore interface.
func (s *memStore) PutSnapshot(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.snapshots[key] = stored
	return nil
}

// DeleteSnapshot removes an autosave blob; a missing key is not an error.
// Part of the SnapshotStore interface.
func (s *memStore) DeleteSnapshot(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

func errEmptyField(field string) error {
	return fmt.Errorf("%s cannot be empty for save operation", field)
}
