package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
)

const revokedPrefix = "revoked:"

// CredentialValidator checks a tracker identity
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, username, apiToken string) bool
}

// RevocationStore remembers logged-out tokens until they expire
type RevocationStore interface {
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
}

// PMLoginInput holds a project manager's tracker identity
type PMLoginInput struct {
	Username     string
	JiraUsername string
	JiraAPIToken string
	TelegramID   *int64
}

// RegisterInput holds the fields of a self-registered account
type RegisterInput struct {
	Username   string
	Password   string
	Email      *string
	Role       entities.UserRole
	TelegramID *int64
}

// AuthResponse is returned by every successful login
type AuthResponse struct {
	User        *entities.User
	AccessToken string
	ExpiresIn   int64
}

// Service authenticates users and validates sessions
type Service struct {
	users      repositories.UserRepository
	validator  CredentialValidator
	jwtManager *jwt.Manager
	revoked    RevocationStore
	logger     *zap.Logger
}

// NewService creates the auth service
func NewService(users repositories.UserRepository, validator CredentialValidator, jwtManager *jwt.Manager, revoked RevocationStore, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		validator:  validator,
		jwtManager: jwtManager,
		revoked:    revoked,
		logger:     logger,
	}
}

// PMLogin signs a project manager in with tracker credentials. The account is created
// on first login and the credentials are stored for later tracker calls.
func (s *Service) PMLogin(ctx context.Context, in PMLoginInput) (*AuthResponse, error) {
	username := strings.TrimSpace(in.Username)
	jiraUsername := strings.TrimSpace(in.JiraUsername)
	if username == "" || jiraUsername == "" || in.JiraAPIToken == "" {
		return nil, fmt.Errorf("%w: username, tracker username and API token are required", ucerrors.ErrInvalidInput)
	}

	if !s.validator.ValidateCredentials(ctx, jiraUsername, in.JiraAPIToken) {
		return nil, ucerrors.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		user = entities.NewUser(username, entities.RoleProjectManager)
		user.SetTrackerCredentials(jiraUsername, in.JiraAPIToken)
		user.TelegramID = in.TelegramID
		user.UpdateLastLogin()
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if !user.IsProjectManager() {
			return nil, ucerrors.ErrRoleViolation
		}
		user.SetTrackerCredentials(jiraUsername, in.JiraAPIToken)
		if in.TelegramID != nil {
			user.TelegramID = in.TelegramID
		}
		user.UpdateLastLogin()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if s.logger != nil {
		s.logger.Info("🔐 Project manager authenticated", zap.String("username", user.Username))
	}
	return s.issue(user)
}

// Register creates an account with a password. A roster-only user added by a project
// manager, which has no password yet, is claimed instead of rejected.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: username and a password of at least 8 characters are required", ucerrors.ErrInvalidInput)
	}
	if !in.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ucerrors.ErrInvalidInput, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		user = entities.NewUser(username, in.Role)
		user.PasswordHash = &hashed
		user.Email = in.Email
		user.TelegramID = in.TelegramID
		user.UpdateLastLogin()
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, entities.ErrUserAlreadyExists) {
				return nil, ucerrors.ErrAlreadyExists
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if user.PasswordHash != nil || user.IsProjectManager() {
			return nil, ucerrors.ErrAlreadyExists
		}
		// Roster-only user: the role was set by the project manager and is kept.
		user.PasswordHash = &hashed
		if in.Email != nil {
			user.Email = in.Email
		}
		if in.TelegramID != nil {
			user.TelegramID = in.TelegramID
		}
		user.UpdateLastLogin()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if s.logger != nil {
		s.logger.Info("🆕 User registered", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	}
	return s.issue(user)
}

// Login checks a username and password
func (s *Service) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, ucerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ucerrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ucerrors.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil && s.logger != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return s.issue(user)
}

// ValidateSession verifies the token, checks it was not logged out and loads its user with the team
func (s *Service) ValidateSession(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ucerrors.ErrTokenExpired
		}
		return nil, ucerrors.ErrTokenInvalid
	}

	if s.revoked != nil {
		key, err := s.jwtManager.HashToken(token)
		if err != nil {
			return nil, ucerrors.ErrTokenInvalid
		}
		_, revoked, err := s.revoked.Get(ctx, revokedPrefix+key)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ucerrors.ErrTokenRevoked
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, ucerrors.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return ucerrors.ErrTokenInvalid
	}
	if s.revoked == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	key, err := s.jwtManager.HashToken(token)
	if err != nil {
		return ucerrors.ErrTokenInvalid
	}
	if err := s.revoked.Set(ctx, revokedPrefix+key, claims.UserID.String(), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) issue(user *entities.User) (*AuthResponse, error) {
	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int64(s.jwtManager.GetAccessExpiry().Seconds()),
	}, nil
}
