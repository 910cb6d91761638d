package storage

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AvatarStore keeps user avatars in an object-storage backend, one
// object per user keyed by account id.
type AvatarStore struct {
	backend ObjectStorage
}

// NewAvatarStore constructs an AvatarStore for the provided backend.
func NewAvatarStore(backend ObjectStorage) *AvatarStore {
	return &AvatarStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Save uploads a user's avatar, replacing any previous one, and returns
// the object key.
func (s *AvatarStore) Save(ctx context.Context, userID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	key := avatarKey(userID)
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns a reader for a user's avatar.
func (s *AvatarStore) Open(ctx context.Context, userID uuid.UUID) (io.ReadCloser, error) {
	return s.backend.Get(ctx, avatarKey(userID))
}

// Remove deletes a user's avatar object.
func (s *AvatarStore) Remove(ctx context.Context, userID uuid.UUID) error {
	return s.backend.Delete(ctx, avatarKey(userID))
}

// Bucket returns the configured bucket name.
func (s *AvatarStore) Bucket() string {
	return s.backend.Bucket()
}

func avatarKey(userID uuid.UUID) string {
	return "avatars/" + userID.String()
}
