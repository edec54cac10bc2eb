// Package tokens stores the active session tokens of each user.
package tokens

import "context"

// Repository keeps the set of active tokens per user. A token absent from the
// set is revoked even if its signature is still valid.
type Repository interface {
	Add(ctx context.Context, userID, token string) error
	Exists(ctx context.Context, userID, token string) (bool, error)

	// Remove revokes a single token; removing an unknown token is not an error.
	Remove(ctx context.Context, userID, token string) error
	RemoveAll(ctx context.Context, userID string) (int64, error)
}
