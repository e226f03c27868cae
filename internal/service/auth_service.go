package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cost-sage/internal/dto"
	"cost-sage/internal/models"
	"cost-sage/internal/repository"
	"cost-sage/pkg/auth"
	"cost-sage/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SessionStore interface {
	Store(ctx context.Context, session *models.Session, exclusive bool) error
	Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteByToken(ctx context.Context, userID uuid.UUID, token string) error
}

type TokenManager interface {
	GenerateToken(userID uuid.UUID, email, name string) (string, time.Time, error)
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthService is the session manager: it issues tokens at register/login,
// resolves them to identities and revokes them at logout.
type AuthService struct {
	users        UserStore
	sessions     SessionStore
	tokens       TokenManager
	singleActive bool
	logger       *zap.Logger
	now          func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, tokens TokenManager, singleActive bool, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		singleActive: singleActive,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct("Invalid registration data", req); err != nil {
		return nil, err
	}
	// the validator counts runes, bcrypt counts bytes
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, &ValidationError{
			Message: "Invalid registration data",
			Fields:  map[string]string{"password": fmt.Sprintf("max=%d", auth.MaxPasswordBytes)},
		}
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		s.logger.Info("Registration rejected: user exists", zap.String("email", logger.MaskEmail(req.Email)))
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashedPassword,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Industry:    strings.TrimSpace(req.Industry),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return authResponse("Registration successful", token, user), nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct("Invalid login data", req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("Login failed: user not found", zap.String("email", logger.MaskEmail(req.Email)))
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		s.logger.Info("Login failed: invalid credentials", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()), zap.Bool("single_session", s.singleActive))
	return authResponse("Login successful", token, user), nil
}

// Authenticate resolves a bearer token. The token must verify, its user must
// still exist and it must be one of that user's stored sessions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.sessions.Exists(ctx, user.ID, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !ok {
		return nil, ErrStaleToken
	}

	return &models.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, identity *models.Identity) error {
	var err error
	if s.singleActive {
		err = s.sessions.DeleteByUser(ctx, identity.UserID)
	} else {
		err = s.sessions.DeleteByToken(ctx, identity.UserID, identity.Token)
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("User logged out", zap.String("user_id", identity.UserID.String()))
	return nil
}

func (s *AuthService) Status(ctx context.Context, identity *models.Identity) (*dto.AuthStatusResponse, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionUserNotFound
		}
		return nil, err
	}
	return &dto.AuthStatusResponse{Success: true, User: userResponse(user)}, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (string, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.sessions.Store(ctx, session, s.singleActive); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func authResponse(message, token string, user *models.User) *dto.AuthResponse {
	return &dto.AuthResponse{
		Success: true,
		Message: message,
		Token:   token,
		User:    userResponse(user),
	}
}

func userResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		Name:        user.Name,
		Email:       user.Email,
		CompanyName: user.CompanyName,
		Industry:    user.Industry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
