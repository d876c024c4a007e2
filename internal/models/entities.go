package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Mentionable is anything that renders to an inline mention token.
type Mentionable interface {
	MentionTag() string
}

// User is an account that can author messages.
type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Bot           bool      `json:"bot,omitempty"`
}

// MentionTag renders a user mention
func (u *User) MentionTag() string {
	return "<@" + u.ID.String() + ">"
}

// Member is a user in the context of a guild.
type Member struct {
	User    *User     `json:"user"`
	GuildID Snowflake `json:"guild_id,omitempty"`
	Nick    string    `json:"nick,omitempty"`
}

// MentionTag renders the underlying user's mention
func (m *Member) MentionTag() string {
	if m.User == nil {
		return ""
	}
	return m.User.MentionTag()
}

// Role is a guild role.
type Role struct {
	ID   Snowflake `json:"id"`
	Name string    `json:"name"`
}

// MentionTag renders a role mention
func (r *Role) MentionTag() string {
	return "<@&" + r.ID.String() + ">"
}

// ChannelType identifies the kind of channel.
type ChannelType int

// Channel types used by the dispatch pipeline.
const (
	ChannelTypeGuildText ChannelType = 0
	ChannelTypeDM        ChannelType = 1
	ChannelTypeGroupDM   ChannelType = 3
	ChannelTypeNews      ChannelType = 5
)

// Channel is a text-capable channel.
type Channel struct {
	ID         Snowflake   `json:"id"`
	Type       ChannelType `json:"type"`
	GuildID    Snowflake   `json:"guild_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	Recipients []*User     `json:"recipients,omitempty"`
	// Partial channels are placeholders built from a reference such as a
	// webhook's channel ID. Caches do not keep them.
	Partial bool `json:"-"`
}

// MentionTag renders a channel mention
func (c *Channel) MentionTag() string {
	return "<#" + c.ID.String() + ">"
}

// IsPrivate reports whether the channel is a direct message channel
func (c *Channel) IsPrivate() bool {
	return c.Type == ChannelTypeDM || c.Type == ChannelTypeGroupDM
}

// Webhook is an incoming webhook bound to a channel.
type Webhook struct {
	ID        Snowflake `json:"id"`
	Token     string    `json:"token"`
	ChannelID Snowflake `json:"channel_id"`
	GuildID   Snowflake `json:"guild_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
}

// ParseWebhookURL extracts the ID and token from a webhook execution URL of
// the form .../webhooks/{id}/{token}. The channel is unknown until fetched.
func ParseWebhookURL(rawURL string) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(segments); i++ {
		if segments[i] != "webhooks" {
			continue
		}
		id, err := ParseSnowflake(segments[i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid webhook id: %w", err)
		}
		if segments[i+2] == "" {
			break
		}
		return &Webhook{ID: id, Token: segments[i+2]}, nil
	}
	return nil, fmt.Errorf("not a webhook URL: %s", rawURL)
}

// Icon is a previously uploaded image addressed by URL.
type Icon struct {
	URL *url.URL
}

// NewIcon parses rawURL into an Icon
func NewIcon(rawURL string) (*Icon, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Icon{URL: u}, nil
}

// FileName returns the last path element of the icon URL
func (i *Icon) FileName() string {
	if i.URL == nil {
		return ""
	}
	return path.Base(i.URL.Path)
}
