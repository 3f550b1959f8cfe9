package cleanup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/model"
)

func TestGetSuggestionsMarketingVolume(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	// 60 recent marketing messages without unsubscribe links: only the
	// volume suggestion fires.
	for i := 0; i < 60; i++ {
		store.AddMessages(model.Message{
			ID:          fmt.Sprintf("mk%d", i),
			FromAddress: fmt.Sprintf("sender%d@promo.example", i),
			Subject:     fmt.Sprintf("Offer %d", i),
			Category:    "marketing",
			Date:        testNow.AddDate(0, 0, -(i % 30)),
		})
	}

	suggestions, err := engine.GetSuggestions(ctx, "")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, model.CleanupSpam, s.Type)
	assert.Equal(t, model.PriorityLow, s.Priority)
	assert.Len(t, s.EmailIDs, 60)
}

func TestGetSuggestionsPriorityOrder(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	// Duplicates (high priority).
	store.AddMessages(
		model.Message{ID: "d1", Subject: "dup", FromAddress: "a@b.example", Snippet: "x", Size: 100, Date: testNow.AddDate(0, 0, -1)},
		model.Message{ID: "d2", Subject: "dup", FromAddress: "a@b.example", Snippet: "x", Size: 100, Date: testNow.AddDate(0, 0, -2)},
	)
	// Dormant subscription (medium priority).
	for i := 0; i < 3; i++ {
		store.AddMessages(model.Message{
			ID:             fmt.Sprintf("sub%d", i),
			FromAddress:    "news@dormant.example",
			Subject:        fmt.Sprintf("newsletter %d", i),
			Snippet:        fmt.Sprintf("issue %d", i),
			Category:       "marketing",
			UnsubscribeURL: "https://dormant.example/unsub",
			Date:           testNow.AddDate(0, 0, -120-i),
		})
	}
	// Old shopping mail (low priority).
	store.AddMessages(model.Message{
		ID:          "order",
		FromAddress: "orders@store.example",
		Subject:     "order shipped",
		Category:    "shopping",
		Size:        500,
		Date:        testNow.AddDate(0, 0, -400),
	})

	suggestions, err := engine.GetSuggestions(ctx, "")
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	assert.Equal(t, model.CleanupDuplicate, suggestions[0].Type)
	assert.Equal(t, model.PriorityHigh, suggestions[0].Priority)
	assert.Equal(t, model.CleanupInactiveSubscription, suggestions[1].Type)
	assert.Equal(t, model.CleanupOldTransactional, suggestions[2].Type)
}

func TestDuplicateSuggestionKeepsCanonical(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "newest", Subject: "dup", FromAddress: "a@b.example", Snippet: "x", Size: 10, Date: testNow},
		model.Message{ID: "older", Subject: "dup", FromAddress: "a@b.example", Snippet: "x", Size: 20, Date: testNow.AddDate(0, 0, -1)},
		model.Message{ID: "oldest", Subject: "dup", FromAddress: "a@b.example", Snippet: "x", Size: 30, Date: testNow.AddDate(0, 0, -2)},
	)

	suggestions, err := engine.GetSuggestions(ctx, "")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, model.CleanupDuplicate, s.Type)
	assert.ElementsMatch(t, []string{"older", "oldest"}, s.EmailIDs)
	assert.Equal(t, int64(50), s.EstimatedBytes)
}

func TestGetSuggestionsEmptyCorpus(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	suggestions, err := engine.GetSuggestions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGetSuggestionsStableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	for i := 0; i < 55; i++ {
		store.AddMessages(model.Message{
			ID:          fmt.Sprintf("m%d", i),
			FromAddress: fmt.Sprintf("s%d@x.example", i),
			Subject:     fmt.Sprintf("subject %d", i),
			Category:    "marketing",
			Date:        testNow.Add(-time.Duration(i) * time.Hour),
		})
	}

	first, err := engine.GetSuggestions(ctx, "")
	require.NoError(t, err)
	second, err := engine.GetSuggestions(ctx, "")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	// IDs are fresh per run; the payload is identical.
	assert.Equal(t, first[0].EmailIDs, second[0].EmailIDs)
	assert.Equal(t, first[0].Type, second[0].Type)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}
