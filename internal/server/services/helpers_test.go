package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sidhlee/task-manager-api/internal/logging"
	"github.com/sidhlee/task-manager-api/internal/server/avatars"
	"github.com/sidhlee/task-manager-api/internal/server/config"
	"github.com/sidhlee/task-manager-api/internal/server/models"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
)

type fakeMailer struct {
	mu      sync.Mutex
	welcome []string
	goodbye []string
}

func (f *fakeMailer) SendWelcome(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcome = append(f.welcome, email)
	return nil
}

func (f *fakeMailer) SendGoodbye(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goodbye = append(f.goodbye, email)
	return nil
}

type fixture struct {
	rm     repomanager.RepositoryManager
	tokens *TokenService
	users  *UserService
	tasks  *TaskService
	mailer *fakeMailer
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "test-secret", BcryptCost: bcrypt.MinCost}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, repomanager.NewMemoryRepositoryManager())
}

func newFixtureWith(t *testing.T, rm repomanager.RepositoryManager) *fixture {
	t.Helper()
	cfg := testConfig()
	mailer := &fakeMailer{}
	tokens := NewTokenService(rm, cfg)
	return &fixture{
		rm:     rm,
		tokens: tokens,
		users:  NewUserService(rm, tokens, mailer, avatars.NewDBStore(rm), logging.Nop(), cfg),
		tasks:  NewTaskService(rm),
		mailer: mailer,
	}
}

func (f *fixture) register(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	u, tok, err := f.users.Register(context.Background(), UserInput{
		Email:    email,
		Name:     "User " + email,
		Password: "red12345!",
	})
	require.NoError(t, err)
	return u, tok
}

func ptr[T any](v T) *T { return &v }
