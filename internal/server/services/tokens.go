package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/dbx"
	"github.com/sidhlee/task-manager-api/internal/server/auth"
	"github.com/sidhlee/task-manager-api/internal/server/config"
	"github.com/sidhlee/task-manager-api/internal/server/models"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
)

// TokenService issues session tokens and tracks which of them are still
// active. A token authenticates only while its signature verifies and it is
// a member of its user's active set.
type TokenService struct {
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	validity    time.Duration
}

func NewTokenService(m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		validity:    cfg.TokenValidityDuration,
	}
}

// Issue signs a new token for userID and adds it to the active set.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, error) {
	return s.IssueTx(ctx, s.repomanager.Conn(), userID)
}

// IssueTx is Issue on the caller's transaction handle.
func (s *TokenService) IssueTx(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.validity)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	if err := s.repomanager.Tokens(db).Add(ctx, userID, token); err != nil {
		return "", fmt.Errorf("error storing token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and returns the embedded user id. It does
// not consult the active set.
func (s *TokenService) Verify(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return userID, nil
}

func (s *TokenService) IsActive(ctx context.Context, userID, token string) (bool, error) {
	return s.repomanager.Tokens(s.repomanager.Conn()).Exists(ctx, userID, token)
}

// Revoke removes exactly token from userID's active set. Unknown tokens are
// ignored.
func (s *TokenService) Revoke(ctx context.Context, userID, token string) error {
	return s.repomanager.Tokens(s.repomanager.Conn()).Remove(ctx, userID, token)
}

func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.repomanager.Tokens(s.repomanager.Conn()).RemoveAll(ctx, userID)
	return err
}

// Resolve loads the user behind a verified token, requiring the token to be
// active. Any miss is reported as common.ErrorUnauthorized.
func (s *TokenService) Resolve(ctx context.Context, userID, token string) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByIDAndToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Authenticate is Verify followed by Resolve.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, userID, token)
}
