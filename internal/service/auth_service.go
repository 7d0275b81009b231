package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

type RegisterInput struct {
	Email               string  `json:"email" binding:"required,email,max=255"`
	Password            string  `json:"password" binding:"required,min=6,max=72"`
	FullName            string  `json:"fullName" binding:"required,max=100"`
	Username            string  `json:"username" binding:"required,min=3,max=50"`
	Bio                 *string `json:"bio"`
	UserType            string  `json:"userType" binding:"omitempty,oneof=user student expert admin"`
	ProfilePicture      *string `json:"profilePicture" binding:"omitempty,url,max=500"`
	ExpertiseCategories []uint  `json:"expertiseCategories"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput, meta RequestMeta) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput, meta RequestMeta) (*AuthResult, error)
	Profile(ctx context.Context, userID uint) (*model.User, error)
	Refresh(ctx context.Context, userID uint, meta RequestMeta) (*AuthResult, error)
}

type authService struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	sessions   repository.SessionRepository
	activity   ActivityService
	tokens     *TokenIssuer
	log        *logger.Logger
}

func NewAuthService(
	users repository.UserRepository,
	categories repository.CategoryRepository,
	sessions repository.SessionRepository,
	activity ActivityService,
	tokens *TokenIssuer,
	log *logger.Logger,
) AuthService {
	return &authService{
		users:      users,
		categories: categories,
		sessions:   sessions,
		activity:   activity,
		tokens:     tokens,
		log:        log,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput, meta RequestMeta) (*AuthResult, error) {
	email := model.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	role := input.UserType
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin {
		return nil, apperror.BadRequest("Admin accounts cannot be registered")
	}

	if err := s.ensureUserUnique(ctx, email, username); err != nil {
		return nil, err
	}

	var expertise []uint
	if role == model.RoleExpert && len(input.ExpertiseCategories) > 0 {
		var err error
		if expertise, err = validateCategories(ctx, s.categories, input.ExpertiseCategories); err != nil {
			return nil, err
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          email,
		PasswordHash:   string(hashedPassword),
		FullName:       strings.TrimSpace(input.FullName),
		Username:       username,
		Bio:            normalizeOptional(input.Bio),
		UserType:       role,
		ProfilePicture: normalizeOptional(input.ProfilePicture),
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user, expertise); err != nil {
		return nil, conflictAs(err, http.StatusBadRequest, "User already exists with this email or username")
	}

	if user.IsExpert() {
		if user.Expertise, err = s.users.Expertise(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	s.activity.Record(ctx, user.ID, ActionRegister, "user", user.ID, meta, map[string]any{"user_type": role})
	return s.issue(ctx, user, meta)
}

func (s *authService) Login(ctx context.Context, input LoginInput, meta RequestMeta) (*AuthResult, error) {
	invalid := apperror.Unauthorized("Invalid email or password")

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to update last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	s.activity.Record(ctx, user.ID, ActionLogin, "user", user.ID, meta, nil)
	return s.issue(ctx, user, meta)
}

func (s *authService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindWithExpertise(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

// Refresh reissues a token carrying the role currently stored for the user.
func (s *authService) Refresh(ctx context.Context, userID uint, meta RequestMeta) (*AuthResult, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}
	return s.issue(ctx, user, meta)
}

func (s *authService) issue(ctx context.Context, user *model.User, meta RequestMeta) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	session := &model.UserSession{
		UserID:    user.ID,
		TokenID:   token.ID,
		IPAddress: meta.IPAddress,
		UserAgent: truncate(meta.UserAgent, 512),
		ExpiresAt: token.ExpiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.log.Warn("failed to record session", "user_id", user.ID, "error", err)
	}

	return &AuthResult{Token: token.Token, User: user}, nil
}

func (s *authService) ensureUserUnique(ctx context.Context, email, username string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return apperror.BadRequest("User already exists with this email")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return apperror.BadRequest("Username is already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

// validateCategories dedupes ids and checks that every one exists.
func validateCategories(ctx context.Context, categories repository.CategoryRepository, ids []uint) ([]uint, error) {
	seen := make(map[uint]bool, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	count, err := categories.CountExisting(ctx, unique)
	if err != nil {
		return nil, err
	}
	if count != int64(len(unique)) {
		return nil, apperror.BadRequest("One or more expertise categories do not exist")
	}
	return unique, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
