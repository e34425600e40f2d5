package sqlite

import (
	"context"
	"database/sql"
	"log"
	"time"

	"imagetext-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	shareTableStmt := `CREATE TABLE IF NOT EXISTS shares (id TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(shareTableStmt); err != nil {
		log.Fatalf("failed to create shares table: %v", err)
	}

	compTableStmt := `
	CREATE TABLE IF NOT EXISTS compositions (
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		name TEXT,
		thumbnail TEXT,
		data BLOB,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (user_id, id)
	);`
	if _, err = db.Exec(compTableStmt); err != nil {
		log.Fatalf("failed to create compositions table: %v", err)
	}

	snapshotTableStmt := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		data BLOB,
		updated_at DATETIME
	);`
	if _, err = db.Exec(snapshotTableStmt); err != nil {
		log.Fatalf("failed to create snapshots table: %v", err)
	}

	return &sqliteStore{db}
}

// ShareStore implementation
func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	log := logrus.WithField("share_id", id)
	log.Debug("Retrieving share by ID")
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM shares WHERE id = ?", id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Share with specified ID not found")
			return nil, core.ErrShareNotFound
		}
		log.WithError(err).Error("Failed to retrieve share")
		return nil, err
	}
	share := &core.Share{}
	share.Data.Write(data)
	log.Info("Share retrieved successfully")
	return share, nil
}

func (s *sqliteStore) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()
	data := share.Data.Bytes()
	log := logrus.WithFields(logrus.Fields{
		"share_id":    id,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx, "INSERT INTO shares (id, data) VALUES (?, ?)", id, data)
	if err != nil {
		log.WithError(err).Error("Failed to create share")
		return "", err
	}
	log.Info("Share created successfully")
	return id, nil
}

// CompositionStore implementation
func (s *sqliteStore) List(ctx context.Context, userID string) ([]*core.Composition, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, updated_at, thumbnail FROM compositions WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []*core.Composition
	for rows.Next() {
		var comp core.Composition
		comp.UserID = userID
		if err := rows.Scan(&comp.ID, &comp.Name, &comp.UpdatedAt, &comp.Thumbnail); err != nil {
			return nil, err
		}
		comps = append(comps, &comp)
	}
	return comps, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, userID, id string) (*core.Composition, error) {
	var comp core.Composition
	comp.UserID = userID
	comp.ID = id
	err := s.db.QueryRowContext(ctx, "SELECT name, data, created_at, updated_at, thumbnail FROM compositions WHERE user_id = ? AND id = ?", userID, id).
		Scan(&comp.Name, &comp.Data, &comp.CreatedAt, &comp.UpdatedAt, &comp.Thumbnail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrCompositionNotFound
		}
		return nil, err
	}
	return &comp, nil
}

func (s *sqliteStore) Save(ctx context.Context, comp *core.Composition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM compositions WHERE user_id = ? AND id = ?", comp.UserID, comp.ID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	now := time.Now()
	if exists {
		_, err = tx.ExecContext(ctx, "UPDATE compositions SET name = ?, data = ?, updated_at = ?, thumbnail = ? WHERE user_id = ? AND id = ?",
			comp.Name, comp.Data, now, comp.Thumbnail, comp.UserID, comp.ID)
	} else {
		_, err = tx.ExecContext(ctx, "INSERT INTO compositions (id, user_id, name, data, created_at, updated_at, thumbnail) VALUES (?, ?, ?, ?, ?, ?, ?)",
			comp.ID, comp.UserID, comp.Name, comp.Data, now, now, comp.Thumbnail)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM compositions WHERE user_id = ? AND id = ?", userID, id)
	return err
}

// SnapshotStore implementation
func (s *sqliteStore) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE key = ?", key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *sqliteStore) PutSnapshot(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at",
		key, data, time.Now())
	return err
}

func (s *sqliteStore) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key)
	return err
}
