package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testMessage(id string, date time.Time) model.Message {
	return model.Message{
		ID:          id,
		AccountID:   "acct1",
		FromAddress: "sender@example.com",
		FromName:    "Sender",
		To:          []string{"me@home.example"},
		Subject:     "subject " + id,
		Snippet:     "snippet",
		Body:        "body",
		Date:        date,
		Size:        1024,
	}
}

func TestSaveAndGetMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	msg := testMessage("m1", now)
	msg.Cc = []string{"cc@home.example"}
	msg.Labels = []string{"inbox"}
	msg.Attachments = []model.Attachment{{ID: "a1", Name: "doc.pdf", MimeType: "application/pdf", Size: 2048}}
	msg.UnsubscribeURL = "https://example.com/unsub"
	msg.IsStarred = true

	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	got, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, msg.Subject, got.Subject)
	assert.Equal(t, msg.To, got.To)
	assert.Equal(t, msg.Cc, got.Cc)
	assert.Equal(t, msg.Labels, got.Labels)
	assert.Equal(t, msg.Attachments, got.Attachments)
	assert.Equal(t, msg.UnsubscribeURL, got.UnsubscribeURL)
	assert.True(t, got.IsStarred)
	assert.Equal(t, model.CategoryUncategorized, got.Category)
	assert.True(t, got.Date.Equal(now))
}

func TestSaveMessagesReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	msg := testMessage("m1", now)
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	msg.Subject = "updated"
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	msgs, err := store.GetMessages(ctx, service.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "updated", msgs[0].Subject)
}

func TestSaveMessagesValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name string
		msgs []model.Message
	}{
		{name: "nil slice", msgs: nil},
		{name: "empty slice", msgs: []model.Message{}},
		{name: "missing id", msgs: []model.Message{{AccountID: "a", Date: time.Now()}}},
		{name: "missing account", msgs: []model.Message{{ID: "m1", Date: time.Now()}}},
		{name: "missing date", msgs: []model.Message{{ID: "m1", AccountID: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.SaveMessages(ctx, tt.msgs))
		})
	}
}

func TestGetMessagesFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var msgs []model.Message
	for i := 0; i < 5; i++ {
		msg := testMessage(fmt.Sprintf("m%d", i), base.AddDate(0, 0, i))
		if i%2 == 0 {
			msg.AccountID = "acct2"
		}
		msgs = append(msgs, msg)
	}
	require.NoError(t, store.SaveMessages(ctx, msgs))
	require.NoError(t, store.UpdateCategory(ctx, "m0", "marketing"))

	t.Run("newest first", func(t *testing.T) {
		got, err := store.GetMessages(ctx, service.MessageFilter{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, "m4", got[0].ID)
		assert.Equal(t, "m0", got[4].ID)
	})

	t.Run("by account", func(t *testing.T) {
		got, err := store.GetMessages(ctx, service.MessageFilter{AccountID: "acct2"})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("by category", func(t *testing.T) {
		got, err := store.GetMessages(ctx, service.MessageFilter{Category: "marketing"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "m0", got[0].ID)
	})

	t.Run("since", func(t *testing.T) {
		since := base.AddDate(0, 0, 3)
		got, err := store.GetMessages(ctx, service.MessageFilter{Since: &since})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := store.GetMessages(ctx, service.MessageFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "m3", got[0].ID)
		assert.Equal(t, "m2", got[1].ID)
	})
}

func TestGetMessageAbsent(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetMessage(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg := testMessage("m1", time.Now().UTC())
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	require.NoError(t, store.UpdateCategory(ctx, "m1", "Financial"))
	got, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "financial", got.Category)

	// Clearing falls back to the uncategorized sentinel.
	require.NoError(t, store.UpdateCategory(ctx, "m1", ""))
	got, err = store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryUncategorized, got.Category)
}

func TestUpdateImportance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg := testMessage("m1", time.Now().UTC())
	require.NoError(t, store.SaveMessages(ctx, []model.Message{msg}))

	require.NoError(t, store.UpdateImportance(ctx, "m1", 0.85))
	got, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, got.Importance, 0.001)

	assert.ErrorIs(t, store.UpdateImportance(ctx, "m1", 1.5), ErrInvalidRange)
	assert.ErrorIs(t, store.UpdateImportance(ctx, "m1", -0.1), ErrInvalidRange)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.SaveMessages(ctx, []model.Message{
		testMessage("m1", now),
		testMessage("m2", now),
		testMessage("m3", now),
	}))

	require.NoError(t, store.MarkRead(ctx, []string{"m1", "m3"}, true))

	for id, want := range map[string]bool{"m1": true, "m2": false, "m3": true} {
		got, err := store.GetMessage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.IsRead, id)
	}

	// An empty batch is a no-op, not an error.
	require.NoError(t, store.MarkRead(ctx, nil, true))
}
