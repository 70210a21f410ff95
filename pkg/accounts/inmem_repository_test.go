package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAccountRepository(t *testing.T) {
	repo := NewInMemoryAccountRepository()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, repo.Create(ctx, Account{ID: id, Email: "Anna@Example.fi"}))
	assert.ErrorIs(t, repo.Create(ctx, Account{ID: uuid.New(), Email: "anna@example.FI"}), ErrDuplicateEmail)

	got, err := repo.FindByEmail(ctx, "ANNA@EXAMPLE.FI")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	first := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkConfirmed(ctx, id, first))
	require.NoError(t, repo.MarkConfirmed(ctx, id, first.Add(time.Hour)))
	got, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, *got.ConfirmedAt)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, repo.MarkConfirmed(ctx, uuid.New(), first), ErrAccountNotFound)
}
