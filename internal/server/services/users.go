// Package services contains server-side business logic: token issuance and
// revocation, account management with cascading deletes, and owner-scoped
// task operations.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/cryptox"
	"github.com/sidhlee/task-manager-api/internal/dbx"
	"github.com/sidhlee/task-manager-api/internal/logging"
	"github.com/sidhlee/task-manager-api/internal/server/avatars"
	"github.com/sidhlee/task-manager-api/internal/server/config"
	"github.com/sidhlee/task-manager-api/internal/server/models"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
)

// Mailer sends account notifications.
type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendGoodbye(ctx context.Context, email, name string) error
}

// AvatarStore keeps normalized avatar images keyed by user id.
type AvatarStore interface {
	Put(ctx context.Context, userID string, png []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

// UserInput is the registration payload.
type UserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Age      int    `json:"age" validate:"gte=0"`
	Password string `json:"password" validate:"required,min=6,bcryptmax,nopassword"`
}

func (in *UserInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Password = strings.TrimSpace(in.Password)
}

var allowedUserUpdates = []string{"name", "email", "password", "age"}

type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	mailer      Mailer
	avatars     AvatarStore
	log         logging.Logger
	bcryptCost  int

	// notifications tracks fire-and-forget mail so shutdown can wait for it.
	notifications sync.WaitGroup
}

func NewUserService(m repomanager.RepositoryManager, tokens *TokenService, mailer Mailer, avatarStore AvatarStore, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		repomanager: m,
		tokens:      tokens,
		mailer:      mailer,
		avatars:     avatarStore,
		log:         log.With("module", "users"),
		bcryptCost:  cfg.BcryptCost,
	}
}

// Register creates the account and its first session token in one
// transaction, then sends the welcome mail in the background.
func (s *UserService) Register(ctx context.Context, in UserInput) (*models.User, string, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return nil, "", err
	}

	hash, err := cryptox.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	var (
		user  *models.User
		token string
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:        in.Email,
			Name:         in.Name,
			Age:          in.Age,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.NewValidationError("email", "Email is already registered")
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		token, err = s.tokens.IssueTx(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.notify(ctx, "welcome", func(ctx context.Context) error {
		return s.mailer.SendWelcome(ctx, user.Email, user.Name)
	})

	return user, token, nil
}

// Login exchanges credentials for a new session token. Unknown e-mail and
// wrong password are both reported as common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", err
	}

	if !cryptox.CheckPassword(user.PasswordHash, strings.TrimSpace(password)) {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes only the token the request was made with.
func (s *UserService) Logout(ctx context.Context, user *models.User, token string) error {
	return s.tokens.Revoke(ctx, user.ID, token)
}

func (s *UserService) LogoutAll(ctx context.Context, user *models.User) error {
	return s.tokens.RevokeAll(ctx, user.ID)
}

// Update applies a partial update limited to name, email, password and age.
// A changed password is re-hashed before it is stored.
func (s *UserService) Update(ctx context.Context, user *models.User, patch map[string]json.RawMessage) (*models.User, error) {
	if err := checkAllowedUpdates(patch, allowedUserUpdates...); err != nil {
		return nil, err
	}

	in := UserInput{Email: user.Email, Name: user.Name, Age: user.Age}
	verr := &common.ValidationError{}
	collect := func(field string, dst any) bool {
		ok, err := decodePatch(patch, field, dst)
		var ve *common.ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				verr.Add(k, v)
			}
		}
		return ok
	}
	collect("email", &in.Email)
	collect("name", &in.Name)
	collect("age", &in.Age)
	passwordChanged := collect("password", &in.Password)
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	in.normalize()
	var except []string
	if !passwordChanged {
		except = append(except, "Password")
	}
	if err := validateStruct(&in, except...); err != nil {
		return nil, err
	}

	updated := user.Clone()
	updated.Email = in.Email
	updated.Name = in.Name
	updated.Age = in.Age
	if passwordChanged {
		hash, err := cryptox.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		updated.PasswordHash = hash
	}

	updated, err := s.repomanager.Users(s.repomanager.Conn()).Update(ctx, updated)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("email", "Email is already registered")
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the user's tasks and then the user in one transaction.
// Either everything is gone or nothing changed. Tokens go with the user
// row. Avatar cleanup and the goodbye mail run only after commit.
func (s *UserService) Delete(ctx context.Context, user *models.User) (*models.User, error) {
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Tasks(tx).DeleteByOwner(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting tasks: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.avatars.Delete(ctx, user.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.log.Warn(ctx, "avatar cleanup failed", "user_id", user.ID, "error", err)
	}

	s.notify(ctx, "goodbye", func(ctx context.Context) error {
		return s.mailer.SendGoodbye(ctx, user.Email, user.Name)
	})

	return user, nil
}

// SetAvatar normalizes an uploaded image and stores it for user.
func (s *UserService) SetAvatar(ctx context.Context, user *models.User, contentType string, data []byte) error {
	img, err := avatars.Normalize(contentType, data)
	if err != nil {
		return err
	}
	return s.avatars.Put(ctx, user.ID, img)
}

// DeleteAvatar clears the avatar; clearing a missing avatar succeeds.
func (s *UserService) DeleteAvatar(ctx context.Context, user *models.User) error {
	if err := s.avatars.Delete(ctx, user.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

// GetAvatar returns the stored PNG of any user.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.avatars.Get(ctx, userID)
}

// Wait blocks until background notifications have finished.
func (s *UserService) Wait() {
	s.notifications.Wait()
}

func (s *UserService) notify(ctx context.Context, kind string, send func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		if err := send(ctx); err != nil {
			s.log.Warn(ctx, "notification failed", "kind", kind, "error", err)
		}
	}()
}
