package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisSessionKeyPrefix = "refresh:"

var ErrInvalidToken = errors.New("invalid or expired refresh token")

// UserDTO is the identity attached to a verified refresh session.
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ISessionService verifies the refresh credential carried on a connection
// handshake. Issuing and rotating tokens is the auth service's business;
// this side only consumes sessions it finds in Redis.
type ISessionService interface {
	VerifyRefreshToken(ctx context.Context, token string) (*UserDTO, error)
}

type sessionService struct {
	rdc *redis.Client
}

var _ ISessionService = (*sessionService)(nil)

func NewSessionService(rdc *redis.Client) ISessionService {
	return &sessionService{rdc: rdc}
}

// refreshSession is the JSON value the auth service stores per token hash.
type refreshSession struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// VerifyRefreshToken resolves a raw refresh token to its user. Tokens are
// stored under "refresh:<sha256 hex>" with the session TTL, so an expired
// token simply misses.
func (svc *sessionService) VerifyRefreshToken(ctx context.Context, token string) (*UserDTO, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	raw, err := svc.rdc.Get(ctx, SessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		zap.L().Error("session.lookup", zap.Error(err))
		return nil, err
	}

	var data refreshSession
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		zap.L().Warn("session.malformed", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if data.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &UserDTO{ID: data.UserID, Email: data.Email, Name: data.Name}, nil
}

// SessionKey maps a raw token to its Redis key. Only the hash touches Redis.
func SessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return redisSessionKeyPrefix + hex.EncodeToString(sum[:])
}
