package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"imagetext-studio/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

// ShareStore implementation for anonymous sharing
func (s *s3Store) FindID(ctx context.Context, id string) (*core.Share, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join("shares", id)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share with id %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read share data: %v", err)
	}

	share := &core.Share{}
	share.Data.Write(data)
	return share, nil
}

func (s *s3Store) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join("shares", id)),
		Body:   bytes.NewReader(share.Data.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload share: %v", err)
	}

	return id, nil
}

// CompositionStore implementation for user-owned compositions
func (s *s3Store) compositionKey(userID, compID string) (string, error) {
	// Sanitize the id to prevent path traversal; it must be a simple name.
	if path.Base(compID) != compID {
		return "", fmt.Errorf("invalid composition id: must not be a path")
	}
	if compID == "" || compID == "." || compID == ".." {
		return "", fmt.Errorf("invalid composition id: must not be empty or a dot directory")
	}
	return path.Join("compositions", userID, compID), nil
}

func (s *s3Store) List(ctx context.Context, userID string) ([]*core.Composition, error) {
	prefix := path.Join("compositions", userID) + "/"
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list compositions for user %s: %v", userID, err)
	}

	comps := make([]*core.Composition, 0, len(output.Contents))
	for _, object := range output.Contents {
		resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    object.Key,
		})
		if err != nil {
			log.Printf("warn: failed to get object %s: %v", *object.Key, err)
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("warn: failed to read object body %s: %v", *object.Key, err)
			continue
		}

		var comp core.Composition
		if err := json.Unmarshal(data, &comp); err != nil {
			log.Printf("warn: failed to unmarshal composition %s: %v", *object.Key, err)
			continue
		}

		// List views stay light: no Data blob.
		comp.Data = nil
		comps = append(comps, &comp)
	}

	return comps, nil
}

func (s *s3Store) Get(ctx context.Context, userID, id string) (*core.Composition, error) {
	key, err := s.compositionKey(userID, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrCompositionNotFound
		}
		return nil, fmt.Errorf("failed to get composition %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read composition data: %v", err)
	}

	var comp core.Composition
	if err := json.Unmarshal(data, &comp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal composition data: %v", err)
	}

	return &comp, nil
}

func (s *s3Store) Save(ctx context.Context, comp *core.Composition) error {
	key, err := s.compositionKey(comp.UserID, comp.ID)
	if err != nil {
		return err
	}

	// Preserve CreatedAt on update
	if comp.CreatedAt.IsZero() {
		existing, err := s.Get(ctx, comp.UserID, comp.ID)
		if err == nil && existing != nil {
			comp.CreatedAt = existing.CreatedAt
		} else {
			comp.CreatedAt = time.Now()
		}
	}
	comp.UpdatedAt = time.Now()

	data, err := json.Marshal(comp)
	if err != nil {
		return fmt.Errorf("failed to marshal composition: %v", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save composition %s: %v", comp.ID, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, userID, id string) error {
	key, err := s.compositionKey(userID, id)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete composition %s: %v", id, err)
	}
	return nil
}

// SnapshotStore implementation for autosave blobs
func (s *s3Store) snapshotKey(key string) string {
	return path.Join("snapshots", key)
}

func (s *s3Store) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.snapshotKey(key)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %v", key, err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *s3Store) PutSnapshot(ctx context.Context, key string, data []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.snapshotKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %v", key, err)
	}
	return nil
}

func (s *s3Store) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.snapshotKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %v", key, err)
	}
	return nil
}
