package service

import (
	"context"
	"errors"
	"strings"

	"chatapp/internal/cache"
	"chatapp/internal/models"
	"chatapp/internal/repository"
	"chatapp/internal/validation"
)

// UserService manages profiles.
type UserService struct {
	users   repository.UserRepository
	cache   *cache.Cache
	uploads *UploadService
}

// NewUserService returns a UserService. c and uploads may be nil.
func NewUserService(users repository.UserRepository, c *cache.Cache, uploads *UploadService) *UserService {
	return &UserService{users: users, cache: c, uploads: uploads}
}

type updateNameInput struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

type updateAboutMeInput struct {
	AboutMe string `json:"about_me" validate:"max=1000"`
}

type updateStatusInput struct {
	Status string `json:"status" validate:"max=100"`
}

// GetProfile returns the user with its avatar resolved, reading through the profile cache.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserProfileKey(userID), &user, cache.UserProfileTTL, func() error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.ResolveAvatar(s.uploads.Resolver())
	return &user, nil
}

func (s *UserService) UpdateName(ctx context.Context, userID, name string) (*models.User, error) {
	in := updateNameInput{Name: strings.TrimSpace(name)}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, map[string]any{"name": in.Name})
}

func (s *UserService) UpdateAboutMe(ctx context.Context, userID, aboutMe string) (*models.User, error) {
	in := updateAboutMeInput{AboutMe: strings.TrimSpace(aboutMe)}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, map[string]any{"about_me": in.AboutMe})
}

func (s *UserService) UpdateStatus(ctx context.Context, userID, status string) (*models.User, error) {
	in := updateStatusInput{Status: strings.TrimSpace(status)}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, map[string]any{"status": in.Status})
}

// UpdateAvatar replaces the stored avatar file and points the profile at it.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, in UploadInput) (*models.User, error) {
	if s.uploads == nil {
		return nil, models.NewInternalError(errors.New("uploads are not configured"))
	}
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	in.OwnerID = userID
	key, err := s.uploads.Replace(ctx, AvatarImage, current.Avatar, in)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, map[string]any{"avatar": key})
}

// ListUsers returns every user except the caller.
func (s *UserService) ListUsers(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	users, err := s.users.ListExcept(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	models.ResolveAvatars(users, s.uploads.Resolver())
	return users, nil
}

func (s *UserService) update(ctx context.Context, userID string, fields map[string]any) (*models.User, error) {
	user, err := s.users.UpdateFields(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.UserProfileKey(userID))
	user.ResolveAvatar(s.uploads.Resolver())
	return user, nil
}
