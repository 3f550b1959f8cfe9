// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// MessageFilter defines filtering options for message queries.
type MessageFilter struct {
	Since     *time.Time
	AccountID string
	Category  string
	Limit     int
	Offset    int
}

// EmailStore defines the contract for the message and rule persistence
// layer. The engines treat the snapshot it returns as read-only except for
// the narrow update calls they issue explicitly.
type EmailStore interface {
	// Message operations
	GetMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	UpdateCategory(ctx context.Context, id, category string) error
	UpdateImportance(ctx context.Context, id string, importance float64) error
	MarkRead(ctx context.Context, ids []string, read bool) error

	// Rule operations
	SaveRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	GetRules(ctx context.Context) ([]model.Rule, error)
	DeleteRule(ctx context.Context, id int64) error
}

// ProviderGateway defines the contract for side effects against a remote
// mailbox. Implementations live outside the core; each call is an
// independently failable I/O operation.
type ProviderGateway interface {
	Archive(ctx context.Context, accountID, messageID string) error
	Delete(ctx context.Context, accountID, messageID string) error
	Move(ctx context.Context, accountID, messageID, folder string) error
	MarkRead(ctx context.Context, accountID, messageID string, read bool) error
	OpenExternalLink(ctx context.Context, url string) error
}

// RetryOptions configures retry behavior for provider operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
