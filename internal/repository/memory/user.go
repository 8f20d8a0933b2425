package memory

import (
	"context"
	"sync"
	"time"

	"clicker/internal/domain"
)

// UserRepo implements repository.UserRepository in memory
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepo creates an empty user store
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User)}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.users[user.ID] = *user

	u := *user
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) Exists(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// EmailTokenRepo implements repository.EmailTokenRepository in memory
type EmailTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.EmailToken
}

// NewEmailTokenRepo creates an empty token store
func NewEmailTokenRepo() *EmailTokenRepo {
	return &EmailTokenRepo{tokens: make(map[string]domain.EmailToken)}
}

// Save replaces any pending token for the same email
func (r *EmailTokenRepo) Save(_ context.Context, token *domain.EmailToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.Email == token.Email {
			delete(r.tokens, k)
		}
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *EmailTokenRepo) Find(_ context.Context, token string) (*domain.EmailToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &t, nil
}

func (r *EmailTokenRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *EmailTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}
