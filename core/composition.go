package core

import (
	"bytes"
	"context"
	"errors"
	"time"
)

// Lookup errors shared by all storage backends.
var (
	ErrCompositionNotFound = errors.New("composition not found")
	ErrShareNotFound       = errors.New("share not found")
	ErrSnapshotNotFound    = errors.New("snapshot not found")
)

type (
	// Composition is a user-saved image/text composition: the serialized
	// document plus listing metadata.
	Composition struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"` // Not exposed in JSON responses, used internally.
		Name      string    `json:"name"`
		Thumbnail string    `json:"thumbnail,omitempty"`
		Data      []byte    `json:"data,omitempty"` // The full document, not included in list views.
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// CompositionStore defines the persistence layer for user-owned
	// compositions. All operations are scoped to a specific user.
	CompositionStore interface {
		// List returns metadata for all compositions owned by a user. The
		// returned objects should not carry Data to keep list responses light.
		List(ctx context.Context, userID string) ([]*Composition, error)

		// Get returns a single composition by ID, ensuring it belongs to the user.
		Get(ctx context.Context, userID, id string) (*Composition, error)

		// Save creates or updates a composition for a user.
		Save(ctx context.Context, comp *Composition) error

		// Delete removes a composition, ensuring it belongs to the user.
		Delete(ctx context.Context, userID, id string) error
	}

	// Share is an anonymously shared composition blob.
	Share struct {
		Data bytes.Buffer
	}

	// ShareStore persists anonymous shares addressed by generated id.
	ShareStore interface {
		FindID(ctx context.Context, id string) (*Share, error)
		Create(ctx context.Context, share *Share) (string, error)
	}

	// SnapshotStore is plain key-value durability for autosave blobs.
	// Get returns ErrSnapshotNotFound when no blob exists under the key;
	// that is a normal condition, not a failure.
	SnapshotStore interface {
		GetSnapshot(ctx context.Context, key string) ([]byte, error)
		PutSnapshot(ctx context.Context, key string, data []byte) error
		DeleteSnapshot(ctx context.Context, key string) error
	}
)
