package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/model"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	store, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	// The schema is usable after the second pass.
	msg := model.Message{
		ID:        "m1",
		AccountID: "acct1",
		Date:      time.Now().UTC(),
	}
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))
}

func TestMigratePopulatesSenderDomainIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg := model.Message{
		ID:          "m1",
		AccountID:   "acct1",
		FromAddress: "News@Shop.Example",
		Date:        time.Now().UTC(),
	}
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	var domain string
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT sender_domain FROM messages WHERE id = ?`, "m1").Scan(&domain))
	assert.Equal(t, "shop.example", domain)
}
