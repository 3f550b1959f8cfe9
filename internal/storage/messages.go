package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// SaveMessages inserts or replaces a batch of messages. Used by ingestion;
// the engines themselves never write whole messages.
func (s *Store) SaveMessages(ctx context.Context, msgs []model.Message) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMessages(msgs); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO messages (
			id, account_id, from_address, from_name, to_addresses, cc_addresses,
			subject, snippet, body, date, category, importance,
			labels, attachments, unsubscribe_url, size, is_read, is_starred,
			sender_domain
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range msgs {
		msg := &msgs[i]
		if msg.Category == "" {
			msg.Category = model.CategoryUncategorized
		}

		to, err := json.Marshal(msg.To)
		if err != nil {
			return fmt.Errorf("failed to encode recipients for %s: %w", msg.ID, err)
		}
		cc, err := json.Marshal(msg.Cc)
		if err != nil {
			return fmt.Errorf("failed to encode cc for %s: %w", msg.ID, err)
		}
		labels, err := json.Marshal(msg.Labels)
		if err != nil {
			return fmt.Errorf("failed to encode labels for %s: %w", msg.ID, err)
		}
		attachments, err := json.Marshal(msg.Attachments)
		if err != nil {
			return fmt.Errorf("failed to encode attachments for %s: %w", msg.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			msg.ID, msg.AccountID, msg.FromAddress, msg.FromName, string(to), string(cc),
			msg.Subject, msg.Snippet, msg.Body, msg.Date.UTC(), msg.Category, msg.Importance,
			string(labels), string(attachments), msg.UnsubscribeURL, msg.Size,
			msg.IsRead, msg.IsStarred, msg.SenderDomain(),
		); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}

	return nil
}

const messageColumns = `
	id, account_id, from_address, from_name, to_addresses, cc_addresses,
	subject, snippet, body, date, category, importance,
	labels, attachments, unsubscribe_url, size, is_read, is_starred`

// GetMessages returns messages matching the filter, most recent first.
func (s *Store) GetMessages(ctx context.Context, filter service.MessageFilter) ([]model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + messageColumns + ` FROM messages`
	var clauses []string
	var args []any

	if filter.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Since != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return msgs, nil
}

// GetMessage returns a single message by id, or nil when absent.
func (s *Store) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// UpdateCategory writes a message's category.
func (s *Store) UpdateCategory(ctx context.Context, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if category == "" {
		category = model.CategoryUncategorized
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET category = ? WHERE id = ?`, strings.ToLower(category), id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// UpdateImportance writes a message's importance score.
func (s *Store) UpdateImportance(ctx context.Context, id string, importance float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if importance < 0 || importance > 1 {
		return ErrInvalidRange
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET importance = ? WHERE id = ?`, importance, id)
	if err != nil {
		return fmt.Errorf("failed to update importance: %w", err)
	}
	return nil
}

// MarkRead sets the read flag on a batch of messages.
func (s *Store) MarkRead(ctx context.Context, ids []string, read bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, 0, len(ids)+1)
	args = append(args, read)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_read = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var msg model.Message
	var to, cc, labels, attachments string
	var date time.Time

	err := row.Scan(
		&msg.ID, &msg.AccountID, &msg.FromAddress, &msg.FromName, &to, &cc,
		&msg.Subject, &msg.Snippet, &msg.Body, &date, &msg.Category, &msg.Importance,
		&labels, &attachments, &msg.UnsubscribeURL, &msg.Size, &msg.IsRead, &msg.IsStarred,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.Date = date
	if err := json.Unmarshal([]byte(to), &msg.To); err != nil {
		return nil, fmt.Errorf("failed to decode recipients for %s: %w", msg.ID, err)
	}
	if err := json.Unmarshal([]byte(cc), &msg.Cc); err != nil {
		return nil, fmt.Errorf("failed to decode cc for %s: %w", msg.ID, err)
	}
	if err := json.Unmarshal([]byte(labels), &msg.Labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels for %s: %w", msg.ID, err)
	}
	if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments for %s: %w", msg.ID, err)
	}

	return &msg, nil
}
