package repomanager

import (
	"context"

	"github.com/sidhlee/task-manager-api/internal/dbx"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/memory"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/tasks"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/tokens"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/users"
)

// memoryTx marks repositories requested inside WithTx. It is never used as
// a real connection.
type memoryTx struct {
	dbx.DBTX
}

// MemoryRepositoryManager serves every repository from one memory.Store.
// WithTx runs exclusively and restores the store when fn fails; operations
// on Conn() wait for a running transaction to finish.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Conn() dbx.DBTX {
	return nil
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return m.store.RunTx(func() error {
		return fn(ctx, &memoryTx{})
	})
}

func inTx(db dbx.DBTX) bool {
	_, ok := db.(*memoryTx)
	return ok
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	if inTx(db) {
		return memory.NewUsersRepositoryTx(m.store)
	}
	return memory.NewUsersRepository(m.store)
}

func (m *MemoryRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	if inTx(db) {
		return memory.NewTokensRepositoryTx(m.store)
	}
	return memory.NewTokensRepository(m.store)
}

func (m *MemoryRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	if inTx(db) {
		return memory.NewTasksRepositoryTx(m.store)
	}
	return memory.NewTasksRepository(m.store)
}
