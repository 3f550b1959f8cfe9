// Package model defines the core data structures for the mailsift application.
package model

import (
	"strings"
	"time"
)

// Attachment describes a single file attached to a message.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Message represents a single email message from any account.
// Messages are owned by the EmailStore; the engines only read them and
// request narrow mutations (category, read state) through the store.
type Message struct {
	Date           time.Time    `json:"date"`
	ID             string       `json:"id"`
	AccountID      string       `json:"account_id"`
	FromAddress    string       `json:"from_address"`
	FromName       string       `json:"from_name"`
	Subject        string       `json:"subject"`
	Snippet        string       `json:"snippet"`
	Body           string       `json:"body"`
	Category       string       `json:"category"`
	UnsubscribeURL string       `json:"unsubscribe_url,omitempty"`
	To             []string     `json:"to"`
	Cc             []string     `json:"cc,omitempty"`
	Labels         []string     `json:"labels,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Importance     float64      `json:"importance"`
	Size           int64        `json:"size"`
	IsRead         bool         `json:"is_read"`
	IsStarred      bool         `json:"is_starred"`
}

// CategoryUncategorized is the category assigned when no definition scores
// above zero.
const CategoryUncategorized = "uncategorized"

// HasAttachments reports whether the message carries at least one attachment.
func (m *Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// AttachmentBytes returns the summed size of all attachments.
func (m *Message) AttachmentBytes() int64 {
	var total int64
	for _, a := range m.Attachments {
		total += a.Size
	}
	return total
}

// SenderDomain returns the lower-cased domain part of the sender address,
// or "" when the address has no @.
func (m *Message) SenderDomain() string {
	addr := strings.ToLower(strings.TrimSpace(m.FromAddress))
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return addr[at+1:]
}

// HasUnsubscribeLink reports whether the message carries an unsubscribe URL.
func (m *Message) HasUnsubscribeLink() bool {
	return m.UnsubscribeURL != ""
}
