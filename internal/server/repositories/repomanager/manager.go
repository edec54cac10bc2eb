package repomanager

import (
	"context"

	"github.com/sidhlee/task-manager-api/internal/dbx"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/tasks"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/tokens"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or transaction
// handle and owns the transaction boundary.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// Conn is the non-transactional handle.
	Conn() dbx.DBTX

	// WithTx runs fn in one transaction; repositories built from the handle
	// passed to fn take part in it.
	WithTx(ctx context.Context, fn dbx.TxFunc) error

	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
