package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"stockgate/internal/apperrors"
	"stockgate/internal/logging"
	"stockgate/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordBytes = 72 // bcrypt ignores anything past this

type Service struct {
	store  Store
	tokens *TokenIssuer
	cost   int
	logger *slog.Logger

	// compared against when the email is unknown so both failure paths cost one bcrypt run
	dummyHash []byte
}

func NewService(store Store, tokens *TokenIssuer, cost int, logger *slog.Logger) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("stockgate-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{
		store:     store,
		tokens:    tokens,
		cost:      cost,
		logger:    logging.Resolve(logger),
		dummyHash: dummy,
	}, nil
}

func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register creates a user. role defaults to user when empty.
func (s *Service) Register(ctx context.Context, email, password string, role models.UserRole) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.Validation("email is not a valid address")
	}
	if len(password) > maxPasswordBytes {
		return nil, apperrors.Validation("password must be at most 72 bytes")
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.Validation(`role must be "user" or "admin"`)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate returns apperrors.ErrInvalidCredentials for an unknown email
// and for a wrong password alike.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}
