package avatars

import (
	"context"

	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
)

// DBStore keeps avatars in the avatar column of the user record.
type DBStore struct {
	repomanager repomanager.RepositoryManager
}

func NewDBStore(m repomanager.RepositoryManager) *DBStore {
	return &DBStore{repomanager: m}
}

func (s *DBStore) Put(ctx context.Context, userID string, png []byte) error {
	return s.repomanager.Users(s.repomanager.Conn()).SetAvatar(ctx, userID, png)
}

func (s *DBStore) Get(ctx context.Context, userID string) ([]byte, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetAvatar(ctx, userID)
}

func (s *DBStore) Delete(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.repomanager.Conn()).SetAvatar(ctx, userID, nil)
}
