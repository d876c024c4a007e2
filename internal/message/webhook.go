package message

import (
	"net/url"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/embed"
	"github.com/aleister1102/courier/internal/models"
)

// MaxWebhookEmbeds is the number of embeds a webhook message may carry.
const MaxWebhookEmbeds = 10

// WebhookOptions are the per-send overrides of a webhook execution.
type WebhookOptions struct {
	// DisplayName replaces the webhook's name. Empty means no override, so
	// an empty username is never sent.
	DisplayName string
	// AvatarURL replaces the webhook's avatar. Empty means no override.
	AvatarURL string
	// Wait asks the server to echo the created message
	Wait bool
}

// DefaultWebhookOptions waits for the echo and overrides nothing
func DefaultWebhookOptions() WebhookOptions {
	return WebhookOptions{Wait: true}
}

// WebhookDraft is a Draft plus the identity overrides a webhook send accepts.
type WebhookDraft struct {
	*Draft

	displayName string
	avatarURL   string
	wait        bool
}

// NewWebhookDraft creates an empty webhook draft that waits for the echo
func NewWebhookDraft() *WebhookDraft {
	return &WebhookDraft{Draft: NewDraft(), wait: true}
}

// SetDisplayName overrides the webhook's name for this message
func (w *WebhookDraft) SetDisplayName(name string) *WebhookDraft {
	w.displayName = name
	return w
}

// SetDisplayAvatarURL overrides the webhook's avatar for this message
func (w *WebhookDraft) SetDisplayAvatarURL(avatar *url.URL) error {
	if avatar == nil {
		return errorwrapper.NilArgument("avatar")
	}
	w.avatarURL = avatar.String()
	return nil
}

// SetDisplayAvatarIcon overrides the webhook's avatar with the URL of icon
func (w *WebhookDraft) SetDisplayAvatarIcon(icon *models.Icon) error {
	if icon == nil || icon.URL == nil {
		return errorwrapper.NilArgument("avatar")
	}
	w.avatarURL = icon.URL.String()
	return nil
}

// ClearDisplayOverrides restores the webhook's own identity
func (w *WebhookDraft) ClearDisplayOverrides() *WebhookDraft {
	w.displayName = ""
	w.avatarURL = ""
	return w
}

// AddEmbeds appends several embeds in order. Nil entries are skipped.
func (w *WebhookDraft) AddEmbeds(embeds ...*embed.Builder) *WebhookDraft {
	for _, e := range embeds {
		w.AddEmbed(e)
	}
	return w
}

// RemoveEmbeds removes each of the given embeds
func (w *WebhookDraft) RemoveEmbeds(embeds ...*embed.Builder) *WebhookDraft {
	for _, e := range embeds {
		w.RemoveEmbed(e)
	}
	return w
}

// SetWait sets whether the send waits for the server to echo the message
func (w *WebhookDraft) SetWait(wait bool) *WebhookDraft {
	w.wait = wait
	return w
}

// Options returns the overrides to send with
func (w *WebhookDraft) Options() WebhookOptions {
	return WebhookOptions{
		DisplayName: w.displayName,
		AvatarURL:   w.avatarURL,
		Wait:        w.wait,
	}
}
