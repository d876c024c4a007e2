package models

import (
	"encoding/json"
	"time"
)

// Message is a message as materialized from an API response.
type Message struct {
	ID          Snowflake           `json:"id"`
	ChannelID   Snowflake           `json:"channel_id"`
	GuildID     Snowflake           `json:"guild_id,omitempty"`
	Author      *User               `json:"author,omitempty"`
	WebhookID   Snowflake           `json:"webhook_id,omitempty"`
	Content     string              `json:"content"`
	Timestamp   time.Time           `json:"timestamp"`
	TTS         bool                `json:"tts"`
	Nonce       json.RawMessage     `json:"nonce,omitempty"`
	Embeds      []Embed             `json:"embeds,omitempty"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
}

// MessageAttachment describes an uploaded file as echoed by the server.
type MessageAttachment struct {
	ID          Snowflake `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
}

// MessageAuthor is the author identity of a message, flattened for filtering.
type MessageAuthor struct {
	ID        Snowflake
	Name      string
	IsWebhook bool
}

// MessageAuthor returns the author of the message. Webhook-authored messages
// carry the webhook ID as author ID.
func (m *Message) MessageAuthor() MessageAuthor {
	author := MessageAuthor{IsWebhook: !m.WebhookID.IsZero()}
	if m.Author != nil {
		author.ID = m.Author.ID
		author.Name = m.Author.Username
	}
	if author.IsWebhook && author.ID.IsZero() {
		author.ID = m.WebhookID
	}
	return author
}

// IsFromWebhook reports whether the message was authored by the given webhook
func (m *Message) IsFromWebhook(webhookID Snowflake) bool {
	author := m.MessageAuthor()
	return author.IsWebhook && author.ID == webhookID
}
