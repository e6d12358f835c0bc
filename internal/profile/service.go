package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BITS4/babyshop/internal/domain"
)

type Service struct {
	repo    ProfileRepository
	avatars AvatarStorage
}

func NewService(repo ProfileRepository, avatars AvatarStorage) *Service {
	return &Service{repo: repo, avatars: avatars}
}

// Get returns the session's profile. A user who never saved one gets an
// empty profile carrying just the identity fields.
func (s *Service) Get(ctx context.Context, session *domain.Session) (*domain.UserProfile, error) {
	p, err := s.repo.Get(ctx, session.UID)
	if errors.Is(err, ErrProfileNotFound) {
		return &domain.UserProfile{UID: session.UID, Email: session.Email}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save upserts the profile. Identity fields come from the session; the email
// is the identity key and cannot be changed here.
func (s *Service) Save(ctx context.Context, session *domain.Session, p domain.UserProfile) (*domain.UserProfile, error) {
	current, err := s.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	current.DisplayName = strings.TrimSpace(p.DisplayName)
	current.Address = strings.TrimSpace(p.Address)
	current.Phone = strings.TrimSpace(p.Phone)

	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return current, nil
}

func (s *Service) UploadAvatar(ctx context.Context, session *domain.Session, data []byte, contentType string) (*domain.UserProfile, error) {
	key, err := s.avatars.Upload(ctx, session.UID, data, contentType)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	current.AvatarKey = key
	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return current, nil
}

func (s *Service) DownloadAvatar(ctx context.Context, session *domain.Session, w io.Writer) (string, error) {
	current, err := s.Get(ctx, session)
	if err != nil {
		return "", err
	}
	if current.AvatarKey == "" {
		return "", ErrProfileNotFound
	}
	return s.avatars.Download(ctx, current.AvatarKey, w)
}

func (s *Service) DeleteAvatar(ctx context.Context, session *domain.Session) (*domain.UserProfile, error) {
	current, err := s.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if current.AvatarKey == "" {
		return current, nil
	}

	if err := s.avatars.Delete(ctx, current.AvatarKey); err != nil {
		return nil, err
	}
	current.AvatarKey = ""
	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return current, nil
}
