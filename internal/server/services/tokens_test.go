package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/auth"
)

func TestTokenService_IssueIsUniqueAndActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, first := f.register(t, "a@example.com")

	second, err := f.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, tok := range []string{first, second} {
		ok, err := f.tokens.IsActive(ctx, u.ID, tok)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestTokenService_TokenAuthenticatesOnlyItsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, tokA := f.register(t, "a@example.com")
	b, tokB := f.register(t, "b@example.com")

	got, err := f.tokens.Authenticate(ctx, tokA)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = f.tokens.Authenticate(ctx, tokB)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.tokens.Resolve(ctx, b.ID, tokA)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestTokenService_RejectsForeignAndMalformedTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "a@example.com")

	forged, err := auth.GenerateToken(u.ID, []byte("other-secret"), 0)
	require.NoError(t, err)
	_, err = f.tokens.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.tokens.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// Correctly signed but never issued.
	unissued, err := auth.GenerateToken(u.ID, []byte("test-secret"), 0)
	require.NoError(t, err)
	_, err = f.tokens.Authenticate(ctx, unissued)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.tokens.Resolve(ctx, "not-a-uuid", unissued)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	rmFixture := newFixture(t)
	u, _ := rmFixture.register(t, "a@example.com")

	cfg := testConfig()
	cfg.TokenValidityDuration = -time.Minute
	svc := NewTokenService(rmFixture.rm, cfg)

	tok, err := svc.Issue(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestTokenService_RevokeRemovesExactToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, t1 := f.register(t, "a@example.com")
	t2, err := f.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(ctx, u.ID, t1))

	_, err = f.tokens.Authenticate(ctx, t1)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.tokens.Authenticate(ctx, t2)
	assert.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(ctx, u.ID, t1), "revoking twice is a no-op")
}

func TestTokenService_RevokeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, t1 := f.register(t, "a@example.com")
	t2, err := f.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokens.RevokeAll(ctx, u.ID))

	for _, tok := range []string{t1, t2} {
		_, err := f.tokens.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	}
}

func TestTokenService_ConcurrentRevokesDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, first := f.register(t, "a@example.com")

	toks := []string{first}
	for i := 0; i < 20; i++ {
		tok, err := f.tokens.Issue(ctx, u.ID)
		require.NoError(t, err)
		toks = append(toks, tok)
	}
	keep := toks[len(toks)-1]

	var wg sync.WaitGroup
	for _, tok := range toks[:len(toks)-1] {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			assert.NoError(t, f.tokens.Revoke(ctx, u.ID, tok))
		}(tok)
	}
	wg.Wait()

	for _, tok := range toks {
		ok, err := f.tokens.IsActive(ctx, u.ID, tok)
		require.NoError(t, err)
		assert.Equal(t, tok == keep, ok)
	}
}
