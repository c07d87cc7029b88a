package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/auth/jwt"
	"github.com/gokatarajesh/classquiz/internal/domain"
)

// UserStore persists accounts. CreateUser returns a domain conflict error when the email is taken;
// lookups return a domain not-found error when nothing matches.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Service handles authentication and user management.
type Service struct {
	users    UserStore
	tokenMgr *jwt.Manager
	hash     func(string) (string, error)
	now      func() time.Time
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	// BcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
	BcryptCost int
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	hash := HashPassword
	if opts.BcryptCost > 0 {
		cost := opts.BcryptCost
		hash = func(p string) (string, error) { return hashPasswordCost(p, cost) }
	}
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		hash:     hash,
		now:      time.Now,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

var errInvalidCredentials = &domain.Error{Kind: domain.KindUnauthorized, Message: "invalid credentials"}

// Register creates a new account with the requested role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.User, *TokenPair, error) {
	if err := req.Validate(); err != nil {
		return domain.User{}, nil, err
	}

	passwordHash, err := s.hash(req.Password)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, nil, &domain.Error{Kind: domain.KindConflict, Message: "email already registered", Err: err}
		}
		return domain.User{}, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates a user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (domain.User, *TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, nil, errInvalidCredentials
		}
		return domain.User{}, nil, fmt.Errorf("load user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return domain.User{}, nil, errInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// RefreshToken generates a new token pair from a refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindUnauthorized, Message: "invalid refresh token", Err: err}
	}

	// the account may have been removed since the token was issued
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.Error{Kind: domain.KindUnauthorized, Message: "user not found"}
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	return s.generateTokenPair(user)
}

// ValidateToken validates an access token and returns the caller identity.
func (s *Service) ValidateToken(tokenString string) (domain.Identity, error) {
	claims, err := s.tokenMgr.ValidateAccessToken(tokenString)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UserID: claims.UserID,
		Role:   claims.Role,
		Email:  claims.Email,
		Name:   claims.FullName,
	}, nil
}

// Me returns the stored account for id.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *Service) generateTokenPair(user domain.User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}
