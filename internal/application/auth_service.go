package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/domain/repository"
	"github.com/daylog-hq/daylog/pkg/helpers"
)

// ErrInvalidCredentials covers both unknown username and wrong password, so
// login failures are indistinguishable to the caller.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)

const sessionTTL = 24 * time.Hour

// TokenPair is the access/refresh pair set as cookies after login.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// AuthService handles registration, login, and Redis-backed sessions.
type AuthService struct {
	Store  repository.Store
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewAuthService(store repository.Store, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	return &AuthService{Store: store, JWT: jwt, Redis: rdb, Logger: logger}
}

// Register creates a new employee account. The store returns
// errs.ErrConflict for a taken username; that propagates unchanged.
func (s *AuthService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Store.CreateUser(ctx, username, hash, "")
}

// Authenticate validates username/password without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and issues a token pair plus a Redis session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates the token pair and records the session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(strconv.FormatInt(u.ID, 10))
		fields := map[string]any{
			"user_id":    strconv.FormatInt(u.ID, 10),
			"username":   u.Username,
			"role":       u.Role,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		}
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			// Auth rejects requests without a session hash, so a token pair
			// issued past a failed write would be unusable anyway.
			if s.Logger != nil {
				s.Logger.WithError(rErr).WithField("key", key).Error("session write failed")
			}
			return TokenPair{}, fmt.Errorf("session store: %w", rErr)
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh trades a valid refresh token for a new pair and a renewed session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: invalid refresh token", errs.ErrUnauthorized)
	}
	id, err := claims.Subject()
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: invalid refresh token", errs.ErrUnauthorized)
	}
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: unknown user", errs.ErrUnauthorized)
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout removes the user's session.
func (s *AuthService) Logout(ctx context.Context, userID int64) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(strconv.FormatInt(userID, 10))
	if err := s.Redis.Del(ctx, key).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("session delete failed")
	}
}

// GetUser loads a user by id (current-session lookup).
func (s *AuthService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.Store.GetUser(ctx, id)
}
