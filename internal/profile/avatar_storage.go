package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AvatarStorage is the object-storage collaborator, scoped to avatar images.
// Keys are session-scoped: one avatar per user, overwritten on upload.
type AvatarStorage interface {
	Upload(ctx context.Context, uid string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string, w io.Writer) (string, error)
	Delete(ctx context.Context, key string) error
}

type gridfsStorage struct {
	bucket *gridfs.Bucket
}

func NewGridFSStorage(db *mongo.Database) (AvatarStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("avatars"))
	if err != nil {
		return nil, fmt.Errorf("create gridfs bucket: %w", err)
	}
	return &gridfsStorage{bucket: bucket}, nil
}

func avatarKey(uid string) string {
	return fmt.Sprintf("avatars/%s", uid)
}

func (s *gridfsStorage) Upload(ctx context.Context, uid string, data []byte, contentType string) (string, error) {
	key := avatarKey(uid)

	// One object per key: drop any previous revision first.
	if err := s.Delete(ctx, key); err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	if _, err := s.bucket.UploadFromStream(key, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return key, nil
}

func (s *gridfsStorage) Download(ctx context.Context, key string, w io.Writer) (string, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if err != nil {
		return "", fmt.Errorf("open avatar %q: %w", key, err)
	}
	defer stream.Close()

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		var meta struct {
			ContentType string `bson:"content_type"`
		}
		if errDecode := bson.Unmarshal(file.Metadata, &meta); errDecode == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	if _, err := io.Copy(w, stream); err != nil {
		return "", fmt.Errorf("read avatar %q: %w", key, err)
	}
	return contentType, nil
}

func (s *gridfsStorage) Delete(ctx context.Context, key string) error {
	cursor, err := s.bucket.Find(bson.M{"filename": key})
	if err != nil {
		return fmt.Errorf("find avatar %q: %w", key, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID interface{} `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return fmt.Errorf("decode avatar file: %w", err)
		}
		if err := s.bucket.Delete(file.ID); err != nil {
			return fmt.Errorf("delete avatar %q: %w", key, err)
		}
	}
	return cursor.Err()
}
