// Package testutil provides in-memory collaborators for engine tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// MemoryStore is an in-memory EmailStore for tests.
type MemoryStore struct {
	messages map[string]model.Message
	rules    map[int64]model.Rule
	nextRule int64
	mu       sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]model.Message),
		rules:    make(map[int64]model.Rule),
	}
}

// AddMessages seeds the store with messages.
func (s *MemoryStore) AddMessages(msgs ...model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		if msg.Category == "" {
			msg.Category = model.CategoryUncategorized
		}
		s.messages[msg.ID] = msg
	}
}

// GetMessages returns messages matching the filter, most recent first.
func (s *MemoryStore) GetMessages(_ context.Context, filter service.MessageFilter) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []model.Message
	for _, msg := range s.messages {
		if filter.AccountID != "" && msg.AccountID != filter.AccountID {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(msg.Category, filter.Category) {
			continue
		}
		if filter.Since != nil && msg.Date.Before(*filter.Since) {
			continue
		}
		msgs = append(msgs, msg)
	}

	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].Date.Equal(msgs[j].Date) {
			return msgs[i].Date.After(msgs[j].Date)
		}
		return msgs[i].ID < msgs[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(msgs) {
			return nil, nil
		}
		msgs = msgs[filter.Offset:]
	}
	if filter.Limit > 0 && len(msgs) > filter.Limit {
		msgs = msgs[:filter.Limit]
	}

	return msgs, nil
}

// GetMessage returns a message by id, or nil when absent.
func (s *MemoryStore) GetMessage(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

// UpdateCategory writes a message's category.
func (s *MemoryStore) UpdateCategory(_ context.Context, id, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil
	}
	msg.Category = strings.ToLower(category)
	s.messages[id] = msg
	return nil
}

// UpdateImportance writes a message's importance.
func (s *MemoryStore) UpdateImportance(_ context.Context, id string, importance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil
	}
	msg.Importance = importance
	s.messages[id] = msg
	return nil
}

// MarkRead sets the read flag on a batch of messages.
func (s *MemoryStore) MarkRead(_ context.Context, ids []string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			msg.IsRead = read
			s.messages[id] = msg
		}
	}
	return nil
}

// SaveRule inserts or updates a rule, assigning ids to new rules.
func (s *MemoryStore) SaveRule(_ context.Context, rule *model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule.ID == 0 {
		s.nextRule++
		rule.ID = s.nextRule
	} else if rule.ID > s.nextRule {
		s.nextRule = rule.ID
	}
	s.rules[rule.ID] = *rule
	return nil
}

// GetRule returns a rule by id, or nil when absent.
func (s *MemoryStore) GetRule(_ context.Context, id int64) (*model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

// GetRules returns all rules in creation order.
func (s *MemoryStore) GetRules(_ context.Context) ([]model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := make([]model.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

// DeleteRule removes a rule.
func (s *MemoryStore) DeleteRule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
	return nil
}
