package cleanup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/model"
)

func TestExecuteActionArchive(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "m1", AccountID: "acct1"},
		model.Message{ID: "m2", AccountID: "acct2"},
	)

	report, err := engine.ExecuteAction(ctx, Action{
		Type:     ActionArchive,
		EmailIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Affected)
	assert.Equal(t, 0, report.Failed)

	calls := gateway.CallsFor("archive")
	require.Len(t, calls, 2)
	assert.Equal(t, "acct1", calls[0].AccountID)
	assert.Equal(t, "acct2", calls[1].AccountID)
}

func TestExecuteActionCountsUnknownMessages(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	store.AddMessages(model.Message{ID: "known", AccountID: "acct1"})

	report, err := engine.ExecuteAction(ctx, Action{
		Type:     ActionDelete,
		EmailIDs: []string{"known", "ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Affected)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, gateway.CallsFor("delete"), 1)
}

func TestExecuteActionProviderFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "m1", AccountID: "acct1"},
		model.Message{ID: "m2", AccountID: "acct1"},
	)
	gateway.FailOn("delete")

	report, err := engine.ExecuteAction(ctx, Action{
		Type:     ActionDelete,
		EmailIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Affected)
	assert.Equal(t, 2, report.Failed)
}

func TestExecuteActionMarkRead(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "m1"},
		model.Message{ID: "m2"},
	)

	report, err := engine.ExecuteAction(ctx, Action{
		Type:     ActionMarkRead,
		EmailIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Affected)

	for _, id := range []string{"m1", "m2"} {
		msg, err := store.GetMessage(ctx, id)
		require.NoError(t, err)
		assert.True(t, msg.IsRead)
	}
}

func TestExecuteActionUnknownType(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.ExecuteAction(context.Background(), Action{Type: ActionType("shred")})
	assert.Error(t, err)
}

func TestExecuteActionCancellation(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	store.AddMessages(model.Message{ID: "m1", AccountID: "acct1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.ExecuteAction(ctx, Action{
		Type:     ActionArchive,
		EmailIDs: []string{"m1"},
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Affected)
}

func TestBulkUnsubscribe(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "with-link", UnsubscribeURL: "https://a.example/unsub"},
		model.Message{ID: "no-link"},
		model.Message{ID: "also-link", UnsubscribeURL: "https://b.example/unsub"},
	)

	ids := []string{"with-link", "no-link", "also-link", "missing"}
	result, err := engine.BulkUnsubscribe(ctx, ids)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, len(ids), result.Processed+result.Skipped)
	assert.Equal(t, []string{"https://a.example/unsub", "https://b.example/unsub"}, result.Links)
	assert.Len(t, gateway.CallsFor("openLink"), 2)
}

func TestBulkUnsubscribeLinkFailureStillCountsProcessed(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	store.AddMessages(model.Message{ID: "m1", UnsubscribeURL: "https://a.example/unsub"})
	gateway.FailOn("openLink")

	result, err := engine.BulkUnsubscribe(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)
}

func TestBulkUnsubscribeCancellation(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	store.AddMessages(
		model.Message{ID: "m1", UnsubscribeURL: "https://a.example/unsub"},
		model.Message{ID: "m2", UnsubscribeURL: "https://b.example/unsub"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first item is processed before the inter-item delay observes the
	// cancelled context.
	result, err := engine.BulkUnsubscribe(ctx, []string{"m1", "m2"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Processed)
}
