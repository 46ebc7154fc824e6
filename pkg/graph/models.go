package graph

import (
	"encoding/json"
	"time"
)

// ListMessagesResponse is one page of the message-list endpoint. Value is kept
// raw so pages can be persisted verbatim; absence of both Count and NextLink
// signals the end of pagination.
type ListMessagesResponse struct {
	Value    []json.RawMessage `json:"value"`
	Count    *int              `json:"@odata.count,omitempty"`
	NextLink string            `json:"@odata.nextLink,omitempty"`
}

// Message represents a single chat message as returned by the remote API
type Message struct {
	ID                   string       `json:"id"`
	CreatedDateTime      time.Time    `json:"createdDateTime,omitempty"`
	LastModifiedDateTime time.Time    `json:"lastModifiedDateTime,omitempty"`
	LastEditedDateTime   *time.Time   `json:"lastEditedDateTime,omitempty"`
	From                 *From        `json:"from,omitempty"`
	Body                 ItemBody     `json:"body"`
	Attachments          []Attachment `json:"attachments,omitempty"`
	Reactions            []Reaction   `json:"reactions,omitempty"`
}

// EffectiveTimestamp returns the message's creation time, falling back to the
// last-modified time when creation time is absent
func (m *Message) EffectiveTimestamp() time.Time {
	if !m.CreatedDateTime.IsZero() {
		return m.CreatedDateTime
	}
	return m.LastModifiedDateTime
}

// From identifies the origin of a message. At most one of User or Application
// is populated.
type From struct {
	User        *Identity `json:"user,omitempty"`
	Application *Identity `json:"application,omitempty"`
}

// Identity is a user or application identity
type Identity struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// ItemBody is a message body with its content type ("text" or "html")
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// ContentTypeHTML is the rich/markup body content type
const ContentTypeHTML = "html"

// Attachment carries an opaque content string, itself JSON encoding a nested
// message preview
type Attachment struct {
	ID          string `json:"id,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Reaction is a single reaction applied to a message
type Reaction struct {
	DisplayName string `json:"displayName"`
}

// User is the response of the who-am-i endpoint
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}
