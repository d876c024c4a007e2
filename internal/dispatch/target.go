package dispatch

import "github.com/aleister1102/courier/internal/models"

// Target is where a message is sent. The set of targets is closed: only the
// types in this package implement it.
type Target interface {
	target()
}

// ChannelTarget sends to a channel directly
type ChannelTarget struct {
	Channel *models.Channel
}

// UserTarget sends to the private channel of a user
type UserTarget struct {
	User *models.User
}

// MemberTarget sends to the private channel of a member's user
type MemberTarget struct {
	Member *models.Member
}

// WebhookTarget executes a webhook with default options
type WebhookTarget struct {
	Webhook *models.Webhook
}

func (ChannelTarget) target() {}
func (UserTarget) target()    {}
func (MemberTarget) target()  {}
func (WebhookTarget) target() {}

// ToChannel targets channel
func ToChannel(channel *models.Channel) Target {
	return ChannelTarget{Channel: channel}
}

// ToUser targets the private channel of user
func ToUser(user *models.User) Target {
	return UserTarget{User: user}
}

// ToMember targets the private channel of member
func ToMember(member *models.Member) Target {
	return MemberTarget{Member: member}
}

// ToWebhook targets webhook
func ToWebhook(webhook *models.Webhook) Target {
	return WebhookTarget{Webhook: webhook}
}
