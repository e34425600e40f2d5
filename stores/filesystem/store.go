package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"imagetext-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// ShareStore implementation for anonymous sharing
func (s *fsStore) sharePath(id string) string {
	return filepath.Join(s.basePath, "shares", id)
}

func (s *fsStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	filePath := s.sharePath(id)
	log := logrus.WithField("share_id", id)

	log.WithField("file_path", filePath).Info("Retrieving share by ID")
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
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

func (s *fsStore) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()
	filePath := s.sharePath(id)
	log := logrus.WithFields(logrus.Fields{
		"share_id":  id,
		"file_path": filePath,
	})
	log.Info("Creating new share")

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create shares directory")
		return "", err
	}
	if err := os.WriteFile(filePath, share.Data.Bytes(), 0644); err != nil {
		log.WithError(err).Error("Failed to create share")
		return "", err
	}

	log.Info("Share created successfully")
	return id, nil
}

// CompositionStore implementation for user-owned compositions
func (s *fsStore) userPath(userID string) string {
	return filepath.Join(s.basePath, "users", userID)
}

// insideBase guards against path traversal through user-supplied ids.
func (s *fsStore) insideBase(filePath string) error {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return err
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(absFile, absBase) {
		return fmt.Errorf("invalid path: access denied")
	}
	return nil
}

func (s *fsStore) List(ctx context.Context, userID string) ([]*core.Composition, error) {
	userPath := s.userPath(userID)
	log := logrus.WithField("user_id", userID).WithField("path", userPath)

	files, err := os.ReadDir(userPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("User directory does not exist, returning empty list.")
			return []*core.Composition{}, nil
		}
		log.WithError(err).Error("Failed to read user directory")
		return nil, err
	}

	comps := make([]*core.Composition, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		filePath := filepath.Join(userPath, file.Name())
		fileInfo, err := file.Info()
		if err != nil {
			log.WithError(err).Warnf("Failed to get file info for %s, skipping", file.Name())
			continue
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			log.WithError(err).Warnf("Failed to read composition file %s, skipping", file.Name())
			continue
		}

		var comp core.Composition
		if err := json.Unmarshal(data, &comp); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal composition file %s, skipping", file.Name())
			continue
		}

		// List views stay light, and the filesystem is authoritative for
		// the update time.
		comp.Data = nil
		comp.UpdatedAt = fileInfo.ModTime()
		comps = append(comps, &comp)
	}

	log.Infof("Listed %d compositions", len(comps))
	return comps, nil
}

func (s *fsStore) Get(ctx context.Context, userID, id string) (*core.Composition, error) {
	filePath := filepath.Join(s.userPath(userID), id)
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "composition_id": id, "path": filePath})

	if err := s.insideBase(filePath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Composition file not found")
			return nil, core.ErrCompositionNotFound
		}
		log.WithError(err).Error("Failed to read composition file")
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		log.WithError(err).Error("Failed to get file stats")
		return nil, err
	}

	var comp core.Composition
	if err := json.Unmarshal(data, &comp); err != nil {
		log.WithError(err).Error("Failed to unmarshal composition data")
		return nil, err
	}
	comp.UpdatedAt = info.ModTime()

	log.Info("Composition retrieved successfully")
	return &comp, nil
}

func (s *fsStore) Save(ctx context.Context, comp *core.Composition) error {
	userPath := s.userPath(comp.UserID)
	filePath := filepath.Join(userPath, comp.ID)
	log := logrus.WithFields(logrus.Fields{"user_id": comp.UserID, "composition_id": comp.ID, "path": filePath})

	if err := s.insideBase(filePath); err != nil {
		return err
	}
	if err := os.MkdirAll(userPath, 0755); err != nil {
		log.WithError(err).Error("Failed to create user directory")
		return err
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		comp.CreatedAt = time.Now()
	} else if err == nil {
		// The filesystem doesn't record creation time; the previous mod time
		// is the closest stand-in.
		comp.CreatedAt = info.ModTime()
	}
	comp.UpdatedAt = time.Now()

	log.Info("Saving composition")
	data, err := json.Marshal(comp)
	if err != nil {
		log.WithError(err).Error("Failed to marshal composition for saving")
		return err
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write composition file")
		return err
	}
	return nil
}

func (s *fsStore) Delete(ctx context.Context, userID, id string) error {
	filePath := filepath.Join(s.userPath(userID), id)
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "composition_id": id, "path": filePath})

	if err := s.insideBase(filePath); err != nil {
		return err
	}

	err := os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Composition file not found for deletion, considered successful.")
			return nil
		}
		log.WithError(err).Error("Failed to delete composition file")
		return err
	}

	log.Info("Composition deleted successfully")
	return nil
}

// SnapshotStore implementation for autosave blobs
func (s *fsStore) snapshotPath(key string) string {
	// Autosave keys contain slashes; flatten them into a single file name.
	name := strings.ReplaceAll(key, "/", "_")
	return filepath.Join(s.basePath, "snapshots", name)
}

func (s *fsStore) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	filePath := s.snapshotPath(key)
	if err := s.insideBase(filePath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to read snapshot file")
		return nil, err
	}
	return data, nil
}

func (s *fsStore) PutSnapshot(ctx context.Context, key string, data []byte) error {
	filePath := s.snapshotPath(key)
	if err := s.insideBase(filePath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		logrus.WithError(err).Error("Failed to create snapshots directory")
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to write snapshot file")
		return err
	}
	return nil
}

func (s *fsStore) DeleteSnapshot(ctx context.Context, key string) error {
	filePath := s.snapshotPath(key)
	if err := s.insideBase(filePath); err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
