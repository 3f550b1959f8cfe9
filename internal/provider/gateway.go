// Package provider supplies ProviderGateway implementations. Real mailbox
// backends live outside this module; the default gateway only logs the side
// effects it is asked for.
package provider

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LogGateway satisfies service.ProviderGateway by logging each requested
// side effect without touching any remote mailbox. It is the default
// gateway for dry runs and local development.
type LogGateway struct {
	calls atomic.Int64
}

// NewLogGateway creates a logging gateway.
func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

// Calls returns how many side effects have been requested.
func (g *LogGateway) Calls() int64 {
	return g.calls.Load()
}

// Archive logs an archive request.
func (g *LogGateway) Archive(_ context.Context, accountID, messageID string) error {
	g.calls.Add(1)
	slog.Info("Provider archive", "account_id", accountID, "message_id", messageID)
	return nil
}

// Delete logs a delete request.
func (g *LogGateway) Delete(_ context.Context, accountID, messageID string) error {
	g.calls.Add(1)
	slog.Info("Provider delete", "account_id", accountID, "message_id", messageID)
	return nil
}

// Move logs a move request.
func (g *LogGateway) Move(_ context.Context, accountID, messageID, folder string) error {
	g.calls.Add(1)
	slog.Info("Provider move", "account_id", accountID, "message_id", messageID, "folder", folder)
	return nil
}

// MarkRead logs a read-state request.
func (g *LogGateway) MarkRead(_ context.Context, accountID, messageID string, read bool) error {
	g.calls.Add(1)
	slog.Info("Provider mark read", "account_id", accountID, "message_id", messageID, "read", read)
	return nil
}

// OpenExternalLink logs a link-open request.
func (g *LogGateway) OpenExternalLink(_ context.Context, url string) error {
	g.calls.Add(1)
	slog.Info("Provider open link", "url", url)
	return nil
}
