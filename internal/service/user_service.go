package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"expertsolve.com/hub/pkg/storage"
)

const MaxAvatarSize = 5 << 20

type UpdateProfileInput struct {
	FullName       *string `json:"fullName" binding:"omitempty,min=1,max=100"`
	Username       *string `json:"username" binding:"omitempty,min=3,max=50"`
	Bio            *string `json:"bio" binding:"omitempty,max=2000"`
	Location       *string `json:"location" binding:"omitempty,max=100"`
	Website        *string `json:"website" binding:"omitempty,url,max=255"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,url,max=500"`
}

type UpdateExpertiseInput struct {
	CategoryIDs []uint `json:"expertiseCategories" binding:"required"`
}

type RateInput struct {
	Rating int     `json:"rating" binding:"required,min=1,max=5"`
	Review *string `json:"review" binding:"omitempty,max=2000"`
}

type ChangeRoleInput struct {
	UserType string `json:"userType" binding:"required,oneof=user student expert admin"`
}

// AvatarUpload is a profile picture read from a multipart form.
type AvatarUpload struct {
	Reader      io.Reader
	FileName    string
	Size        int64
	ContentType string
}

type ExpertRatingSummary struct {
	Ratings    []model.ExpertRating    `json:"ratings"`
	Statistics *model.RatingStatistics `json:"statistics"`
}

type UserService interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	ListExperts(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error)
	UpdateExpertise(ctx context.Context, userID uint, categoryIDs []uint) ([]model.ExpertiseArea, error)
	UploadAvatar(ctx context.Context, userID uint, upload AvatarUpload) (*model.User, error)
	ChangeRole(ctx context.Context, userID uint, role string) (*model.User, error)

	Follow(ctx context.Context, followerID, targetID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, targetID uint) error
	Followers(ctx context.Context, userID uint) ([]model.UserSummary, error)
	Following(ctx context.Context, userID uint) ([]model.UserSummary, error)

	RateExpert(ctx context.Context, raterID, expertID uint, input RateInput) (*model.ExpertRating, error)
	ExpertRatings(ctx context.Context, expertID uint) (*ExpertRatingSummary, error)
}

type userService struct {
	users         repository.UserRepository
	categories    repository.CategoryRepository
	notifications NotificationService
	imageStorage  storage.ImageStorage
	uploadFolder  string
	log           *logger.Logger
}

// NewUserService accepts a nil imageStorage; avatar uploads then fail
// with 503.
func NewUserService(
	users repository.UserRepository,
	categories repository.CategoryRepository,
	notifications NotificationService,
	imageStorage storage.ImageStorage,
	uploadFolder string,
	log *logger.Logger,
) UserService {
	return &userService{
		users:         users,
		categories:    categories,
		notifications: notifications,
		imageStorage:  imageStorage,
		uploadFolder:  uploadFolder,
		log:           log,
	}
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindWithExpertise(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

func (s *userService) ListExperts(ctx context.Context) ([]model.User, error) {
	return s.users.ListExperts(ctx)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error) {
	fields := map[string]any{}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, apperror.BadRequest("Full name cannot be empty")
		}
		fields["full_name"] = name
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		existing, err := s.users.FindByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperror.BadRequest("Username is already taken")
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
		fields["username"] = username
	}
	if input.Bio != nil {
		fields["bio"] = normalizeOptional(input.Bio)
	}
	if input.Location != nil {
		fields["location"] = normalizeOptional(input.Location)
	}
	if input.Website != nil {
		fields["website"] = normalizeOptional(input.Website)
	}
	if input.ProfilePicture != nil {
		fields["profile_picture"] = normalizeOptional(input.ProfilePicture)
	}
	if len(fields) == 0 {
		return nil, apperror.BadRequest("No fields to update")
	}

	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, conflictAs(notFound(err, "User not found"), http.StatusBadRequest, "Username is already taken")
	}
	return s.Get(ctx, userID)
}

func (s *userService) UpdateExpertise(ctx context.Context, userID uint, categoryIDs []uint) ([]model.ExpertiseArea, error) {
	ids, err := validateCategories(ctx, s.categories, categoryIDs)
	if err != nil {
		return nil, err
	}
	if err := s.users.ReplaceExpertise(ctx, userID, ids); err != nil {
		return nil, err
	}
	return s.users.Expertise(ctx, userID)
}

func (s *userService) UploadAvatar(ctx context.Context, userID uint, upload AvatarUpload) (*model.User, error) {
	if s.imageStorage == nil {
		return nil, apperror.Unavailable("Image upload is not configured")
	}
	if upload.Size > MaxAvatarSize {
		return nil, apperror.BadRequest("Image must be 5MB or smaller")
	}
	if !isImage(upload.ContentType, upload.FileName) {
		return nil, apperror.BadRequest("Only JPEG, PNG, GIF or WebP images are allowed")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	url, err := s.imageStorage.UploadImage(ctx, upload.Reader, path.Join(s.uploadFolder, "avatars"), upload.FileName)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.users.UpdateProfilePicture(ctx, userID, &url); err != nil {
		if derr := s.imageStorage.DeleteImage(context.WithoutCancel(ctx), url); derr != nil {
			s.log.Warn("failed to delete orphaned avatar", "user_id", userID, "error", derr)
		}
		return nil, err
	}

	if old := user.ProfilePicture; old != nil && storage.PublicIDFromURL(*old) != "" {
		if err := s.imageStorage.DeleteImage(ctx, *old); err != nil {
			s.log.Warn("failed to delete previous avatar", "user_id", userID, "error", err)
		}
	}
	return s.Get(ctx, userID)
}

func isImage(contentType, fileName string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return contentType == "" || contentType == "application/octet-stream"
	}
	return false
}

func (s *userService) ChangeRole(ctx context.Context, userID uint, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, apperror.BadRequest("Invalid user type")
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, notFound(err, "User not found")
	}
	return s.Get(ctx, userID)
}

func (s *userService) Follow(ctx context.Context, followerID, targetID uint) (bool, error) {
	if followerID == targetID {
		return false, apperror.BadRequest("You cannot follow yourself")
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return false, notFound(err, "User not found")
	}

	created, err := s.users.Follow(ctx, followerID, targetID)
	if err != nil {
		return false, err
	}
	if created {
		follower, err := s.users.FindByID(ctx, followerID)
		name := "Someone"
		if err == nil {
			name = follower.FullName
		}
		s.notifications.Notify(ctx, &model.Notification{
			UserID:           targetID,
			ActorID:          &followerID,
			Title:            "New follower",
			Message:          fmt.Sprintf("%s started following you", name),
			NotificationType: model.NotificationNewFollower,
			ReferenceID:      &followerID,
			ReferenceType:    "user",
		})
	}
	return created, nil
}

func (s *userService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	removed, err := s.users.Unfollow(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("You are not following this user")
	}
	return nil
}

func (s *userService) Followers(ctx context.Context, userID uint) ([]model.UserSummary, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "User not found")
	}
	return s.users.Followers(ctx, userID)
}

func (s *userService) Following(ctx context.Context, userID uint) ([]model.UserSummary, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "User not found")
	}
	return s.users.Following(ctx, userID)
}

func (s *userService) RateExpert(ctx context.Context, raterID, expertID uint, input RateInput) (*model.ExpertRating, error) {
	if raterID == expertID {
		return nil, apperror.BadRequest("You cannot rate yourself")
	}
	expert, err := s.users.FindByID(ctx, expertID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	if !expert.IsExpert() {
		return nil, apperror.BadRequest("Only experts can be rated")
	}

	rating := &model.ExpertRating{
		ExpertID: expertID,
		RaterID:  raterID,
		Rating:   input.Rating,
		Review:   normalizeOptional(input.Review),
	}
	if err := s.users.RateExpert(ctx, rating); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:           expertID,
		ActorID:          &raterID,
		Title:            "New rating",
		Message:          fmt.Sprintf("You received a %d-star rating", input.Rating),
		NotificationType: model.NotificationNewRating,
		ReferenceID:      &expertID,
		ReferenceType:    "expert",
	})
	return rating, nil
}

func (s *userService) ExpertRatings(ctx context.Context, expertID uint) (*ExpertRatingSummary, error) {
	if _, err := s.users.FindByID(ctx, expertID); err != nil {
		return nil, notFound(err, "User not found")
	}
	ratings, err := s.users.ExpertRatings(ctx, expertID)
	if err != nil {
		return nil, err
	}
	stats, err := s.users.ExpertRatingStatistics(ctx, expertID)
	if err != nil {
		return nil, err
	}
	return &ExpertRatingSummary{Ratings: ratings, Statistics: stats}, nil
}
