package memory

import "context"

// TokensRepository implements tokens.Repository on a Store.
type TokensRepository struct {
	s    *Store
	inTx bool
}

func NewTokensRepository(s *Store) *TokensRepository {
	return &TokensRepository{s: s}
}

// NewTokensRepositoryTx returns a repository for use inside Store.RunTx.
func NewTokensRepositoryTx(s *Store) *TokensRepository {
	return &TokensRepository{s: s, inTx: true}
}

func (r *TokensRepository) Add(_ context.Context, userID, token string) error {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[userID] = append(r.s.tokens[userID], token)
	return nil
}

func (r *TokensRepository) Exists(_ context.Context, userID, token string) (bool, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tokens[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *TokensRepository) Remove(_ context.Context, userID, token string) error {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := r.s.tokens[userID]
	kept := list[:0]
	for _, t := range list {
		if t != token {
			kept = append(kept, t)
		}
	}
	r.s.tokens[userID] = kept
	return nil
}

func (r *TokensRepository) RemoveAll(_ context.Context, userID string) (int64, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.tokens[userID]))
	delete(r.s.tokens, userID)
	return n, nil
}
