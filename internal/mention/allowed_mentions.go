// Package mention controls which mentions in a message the server turns into notifications.
package mention

import (
	"encoding/json"

	"github.com/aleister1102/courier/internal/models"
)

// MaxExplicitIDs is the server-side cap on user and role ID lists.
const MaxExplicitIDs = 100

// Parse types understood by the server.
const (
	ParseEveryone = "everyone"
	ParseRoles    = "roles"
	ParseUsers    = "users"
)

// AllowedMentions is the mention policy of a message. The zero value
// suppresses every mention.
type AllowedMentions struct {
	everyone    bool
	allRoles    bool
	allUsers    bool
	roles       []models.Snowflake
	users       []models.Snowflake
	repliedUser *bool
}

// AllowedMentionsBuilder helps in constructing AllowedMentions objects.
type AllowedMentionsBuilder struct {
	mentions AllowedMentions
}

// NewAllowedMentionsBuilder creates a new instance of AllowedMentionsBuilder.
func NewAllowedMentionsBuilder() *AllowedMentionsBuilder {
	return &AllowedMentionsBuilder{}
}

// WithEveryoneAndHere allows @everyone and @here
func (b *AllowedMentionsBuilder) WithEveryoneAndHere(allow bool) *AllowedMentionsBuilder {
	b.mentions.everyone = allow
	return b
}

// WithAllRoles allows every role mention. Explicit role IDs are ignored while set.
func (b *AllowedMentionsBuilder) WithAllRoles(allow bool) *AllowedMentionsBuilder {
	b.mentions.allRoles = allow
	return b
}

// WithAllUsers allows every user mention. Explicit user IDs are ignored while set.
func (b *AllowedMentionsBuilder) WithAllUsers(allow bool) *AllowedMentionsBuilder {
	b.mentions.allUsers = allow
	return b
}

// AddRole allows mentioning a specific role
func (b *AllowedMentionsBuilder) AddRole(id models.Snowflake) *AllowedMentionsBuilder {
	b.mentions.roles = append(b.mentions.roles, id)
	return b
}

// AddUser allows mentioning a specific user
func (b *AllowedMentionsBuilder) AddUser(id models.Snowflake) *AllowedMentionsBuilder {
	b.mentions.users = append(b.mentions.users, id)
	return b
}

// WithRepliedUser sets whether a reply pings the replied-to author
func (b *AllowedMentionsBuilder) WithRepliedUser(mention bool) *AllowedMentionsBuilder {
	b.mentions.repliedUser = &mention
	return b
}

// Build returns the constructed policy. The builder can keep being used.
func (b *AllowedMentionsBuilder) Build() *AllowedMentions {
	built := b.mentions
	built.roles = append([]models.Snowflake(nil), b.mentions.roles...)
	built.users = append([]models.Snowflake(nil), b.mentions.users...)
	return &built
}

type wireAllowedMentions struct {
	Parse       []string           `json:"parse"`
	Roles       []models.Snowflake `json:"roles"`
	Users       []models.Snowflake `json:"users"`
	RepliedUser *bool              `json:"replied_user,omitempty"`
}

// MarshalJSON writes the policy as an allowed_mentions object
func (a *AllowedMentions) MarshalJSON() ([]byte, error) {
	wire := wireAllowedMentions{
		Parse:       []string{},
		Roles:       []models.Snowflake{},
		Users:       []models.Snowflake{},
		RepliedUser: a.repliedUser,
	}

	if a.allRoles {
		wire.Parse = append(wire.Parse, ParseRoles)
	} else {
		wire.Roles = append(wire.Roles, capIDs(a.roles)...)
	}

	if a.allUsers {
		wire.Parse = append(wire.Parse, ParseUsers)
	} else {
		wire.Users = append(wire.Users, capIDs(a.users)...)
	}

	if a.everyone {
		wire.Parse = append(wire.Parse, ParseEveryone)
	}

	return json.Marshal(wire)
}

func capIDs(ids []models.Snowflake) []models.Snowflake {
	if len(ids) > MaxExplicitIDs {
		return ids[:MaxExplicitIDs]
	}
	return ids
}
