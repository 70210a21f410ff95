package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryAccountRepository keeps accounts in memory. Useful for development and tests.
type InMemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	byEmail  map[string]uuid.UUID
}

func NewInMemoryAccountRepository() *InMemoryAccountRepository {
	return &InMemoryAccountRepository{
		accounts: make(map[uuid.UUID]Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (r *InMemoryAccountRepository) Create(ctx context.Context, account Account) error {
	email := strings.ToLower(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return ErrDuplicateEmail
	}
	account.Email = email
	r.accounts[account.ID] = account
	r.byEmail[email] = account.ID
	return nil
}

func (r *InMemoryAccountRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.accounts[id], nil
}

func (r *InMemoryAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *InMemoryAccountRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if account.ConfirmedAt == nil {
		account.ConfirmedAt = &at
		r.accounts[id] = account
	}
	return nil
}
