// Package users declares the credential store contract for user records.
package users

import (
	"context"

	"github.com/sidhlee/task-manager-api/internal/server/models"
)

// Repository persists user records. Lookups return common.ErrorNotFound when
// no row matches; Create and Update return common.ErrorAlreadyExists when the
// e-mail is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByIDAndToken finds the user only while token is in its active set.
	GetByIDAndToken(ctx context.Context, id, token string) (*models.User, error)

	// Update writes email, name, age and password hash.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error

	// SetAvatar stores avatar bytes; nil clears them.
	SetAvatar(ctx context.Context, id string, avatar []byte) error
	GetAvatar(ctx context.Context, id string) ([]byte, error)
}
