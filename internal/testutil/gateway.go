package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/mailsift/mailsift/internal/common"
)

// GatewayCall records one side effect requested of the recording gateway.
type GatewayCall struct {
	Op        string
	AccountID string
	MessageID string
	Folder    string
	URL       string
	Read      bool
}

// RecordingGateway is a ProviderGateway that records every call and can be
// told to fail specific operations.
type RecordingGateway struct {
	FailOps map[string]error
	Calls   []GatewayCall
	mu      sync.Mutex
}

// NewRecordingGateway creates a recording gateway.
func NewRecordingGateway() *RecordingGateway {
	return &RecordingGateway{FailOps: make(map[string]error)}
}

// FailOn makes every subsequent call of the given op return an error.
func (g *RecordingGateway) FailOn(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Non-retryable so engines fail fast instead of exhausting retries.
	g.FailOps[op] = &common.RetryableError{
		Err:       fmt.Errorf("forced %s failure", op),
		Retryable: false,
	}
}

// CallsFor returns the recorded calls of one op.
func (g *RecordingGateway) CallsFor(op string) []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var calls []GatewayCall
	for _, call := range g.Calls {
		if call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

func (g *RecordingGateway) record(call GatewayCall) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, call)
	return g.FailOps[call.Op]
}

// Archive records an archive request.
func (g *RecordingGateway) Archive(_ context.Context, accountID, messageID string) error {
	return g.record(GatewayCall{Op: "archive", AccountID: accountID, MessageID: messageID})
}

// Delete records a delete request.
func (g *RecordingGateway) Delete(_ context.Context, accountID, messageID string) error {
	return g.record(GatewayCall{Op: "delete", AccountID: accountID, MessageID: messageID})
}

// Move records a move request.
func (g *RecordingGateway) Move(_ context.Context, accountID, messageID, folder string) error {
	return g.record(GatewayCall{Op: "move", AccountID: accountID, MessageID: messageID, Folder: folder})
}

// MarkRead records a read-state request.
func (g *RecordingGateway) MarkRead(_ context.Context, accountID, messageID string, read bool) error {
	return g.record(GatewayCall{Op: "markRead", AccountID: accountID, MessageID: messageID, Read: read})
}

// OpenExternalLink records a link-open request.
func (g *RecordingGateway) OpenExternalLink(_ context.Context, url string) error {
	return g.record(GatewayCall{Op: "openLink", URL: url})
}
