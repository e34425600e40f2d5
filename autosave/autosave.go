// Package autosave gives the editor best-effort durability across reloads:
// document changes are debounced and serialized to a key-value snapshot
// store, and restored on the next session start.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"imagetext-studio/core"
	"imagetext-studio/debounce"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultKey is the fixed storage key for the autosave blob.
	DefaultKey = "image-text-composition"

	// DefaultDelay coalesces bursts of edits into one write.
	DefaultDelay = 2 * time.Second

	// version is recorded alongside the blob; bump on layout changes.
	version = 1
)

// savedState is the persisted shape. Selection is never saved.
type savedState struct {
	Version    int                   `json:"version"`
	Background *core.BackgroundImage `json:"background,omitempty"`
	Layers     []core.TextLayer      `json:"layers"`
	Canvas     core.CanvasSize       `json:"canvas"`
}

// Adapter debounces document snapshots into a SnapshotStore. Storage
// failures are logged and swallowed; autosave never surfaces an error into
// the editing flow.
type Adapter struct {
	store    core.SnapshotStore
	key      string
	debounce *debounce.Debouncer
}

// New creates an adapter writing under key after delay. Zero values fall
// back to DefaultKey and DefaultDelay.
func New(store core.SnapshotStore, key string, delay time.Duration) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Adapter{
		store:    store,
		key:      key,
		debounce: debounce.New(delay),
	}
}

// Schedule queues the snapshot for a debounced write. A later Schedule call
// within the delay supersedes this one.
func (a *Adapter) Schedule(snap core.DocumentSnapshot) {
	snap = snap.Clone()
	a.debounce.Trigger(func() {
		a.save(snap)
	})
}

// Flush writes any pending snapshot immediately.
func (a *Adapter) Flush() {
	a.debounce.Flush()
}

func (a *Adapter) save(snap core.DocumentSnapshot) {
	state := savedState{
		Version:    version,
		Background: snap.Background,
		Layers:     snap.Layers,
		Canvas:     snap.Canvas,
	}
	data, err := json.Marshal(state)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize autosave snapshot")
		return
	}
	if err := a.store.PutSnapshot(context.Background(), a.key, data); err != nil {
		logrus.WithError(err).WithField("key", a.key).Warn("Failed to write autosave snapshot")
		return
	}
	logrus.WithFields(logrus.Fields{
		"key":         a.key,
		"layer_count": len(snap.Layers),
	}).Debug("Autosave written")
}

// Restore loads the saved snapshot, if one exists. Absence of a snapshot is
// a normal condition and returns ok=false, as do read or decode failures.
func (a *Adapter) Restore(ctx context.Context) (core.DocumentSnapshot, bool) {
	data, err := a.store.GetSnapshot(ctx, a.key)
	if err != nil {
		if !errors.Is(err, core.ErrSnapshotNotFound) {
			logrus.WithError(err).WithField("key", a.key).Warn("Failed to read autosave snapshot")
		}
		return core.DocumentSnapshot{}, false
	}

	var state savedState
	if err := json.Unmarshal(data, &state); err != nil {
		logrus.WithError(err).WithField("key", a.key).Warn("Autosave snapshot is corrupt, ignoring")
		return core.DocumentSnapshot{}, false
	}

	return core.DocumentSnapshot{
		Background: state.Background,
		Layers:     state.Layers,
		Canvas:     state.Canvas,
	}, true
}

// Reset drops both the pending write and the persisted blob.
func (a *Adapter) Reset(ctx context.Context) {
	a.debounce.Cancel()
	if err := a.store.DeleteSnapshot(ctx, a.key); err != nil {
		logrus.WithError(err).WithField("key", a.key).Warn("Failed to clear autosave snapshot")
	}
}
