package dispatch

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/mention"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/aleister1102/courier/internal/rest"
	"github.com/rs/zerolog"
)

// historyPageSize is how many recent channel messages are read back to find
// a message sent without wait
const historyPageSize = 50

// webhookPayload is the body of a webhook execution. Content is only sent
// when non-empty.
type webhookPayload struct {
	Content         string                   `json:"content,omitempty"`
	TTS             bool                     `json:"tts"`
	AllowedMentions *mention.AllowedMentions `json:"allowed_mentions,omitempty"`
	Username        string                   `json:"username,omitempty"`
	AvatarURL       string                   `json:"avatar_url,omitempty"`
	Embeds          []models.Embed           `json:"embeds,omitempty"`
}

// SendToWebhook executes webhook with draft. Up to ten embeds are sent in
// order; the rest are dropped.
//
// With opts.Wait the server echoes the created message. Without it the
// message is recovered from the history of the webhook's channel, newest
// first: the server's recent messages, then the cached ones. The channel
// must be cached, otherwise the send fails with an invalid-state error. No
// message from the webhook is an invariant violation.
func (e *Engine) SendToWebhook(ctx context.Context, draft *message.Draft, webhook *models.Webhook, opts message.WebhookOptions) *future.Future[*models.Message] {
	if draft == nil {
		return future.Failed[*models.Message](errorwrapper.NilArgument("draft"))
	}
	if webhook == nil {
		return future.Failed[*models.Message](errorwrapper.NewStateError("send", "no webhook to execute"))
	}

	snap := draft.Snapshot()
	s := e.newSend(ctx, "webhook")
	s.logger = s.logger.With().
		Str("webhook_id", webhook.ID.String()).
		Bool("wait", opts.Wait).
		Logger()

	payload := webhookPayload{
		Content:         snap.Content,
		TTS:             snap.TTS,
		AllowedMentions: snap.AllowedMentions,
		Username:        opts.DisplayName,
		AvatarURL:       opts.AvatarURL,
	}

	files := snap.Attachments
	multipart := len(files) > 0

	embeds := snap.Embeds
	if len(embeds) > message.MaxWebhookEmbeds {
		s.logger.Debug().Int("embeds", len(embeds)).Msg("Dropping embeds beyond the webhook limit")
		embeds = embeds[:message.MaxWebhookEmbeds]
	}
	for i, eb := range embeds {
		serialized, err := eb.Build()
		if err != nil {
			return future.Failed[*models.Message](errorwrapper.WrapErrorf(err, "invalid embed %d", i))
		}
		payload.Embeds = append(payload.Embeds, serialized)
		if eb.RequiresAttachments() {
			multipart = true
			files = append(files, eb.RequiredAttachments()...)
		}
	}

	s.request = rest.NewRequest(rest.EndpointWebhookExecute, webhook.ID.String(), webhook.Token).
		WithBoolQuery("wait", opts.Wait)
	s.payload = payload
	s.files = files
	s.handle = func(resp *rest.Response) (*models.Message, error) {
		if opts.Wait {
			return e.deps.Materializer.GetOrCreateMessage(e.webhookChannel(webhook), resp.JSONBody())
		}
		return e.findWebhookMessage(s.ctx, webhook, s.logger)
	}

	return e.dispatch(s, multipart)
}

// webhookChannel returns the cached channel of webhook, or a partial one
// built from the webhook when the channel is not cached.
func (e *Engine) webhookChannel(webhook *models.Webhook) *models.Channel {
	if channel, ok := e.deps.Channels.Channel(webhook.ChannelID); ok {
		return channel
	}
	return &models.Channel{
		ID:      webhook.ChannelID,
		Type:    models.ChannelTypeGuildText,
		GuildID: webhook.GuildID,
		Partial: true,
	}
}

func (e *Engine) findWebhookMessage(ctx context.Context, webhook *models.Webhook, logger zerolog.Logger) (*models.Message, error) {
	channel, ok := e.deps.Channels.Channel(webhook.ChannelID)
	if !ok {
		return nil, errorwrapper.NewStateError("resolve webhook message", "channel not cached")
	}

	for msg := range e.channelHistory(ctx, channel, logger) {
		if msg.IsFromWebhook(webhook.ID) {
			return msg, nil
		}
	}

	return nil, errorwrapper.NewInvariantError(
		fmt.Sprintf("no message from webhook %s in channel %s after execution", webhook.ID, channel.ID))
}

// channelHistory yields the server's recent messages of channel, then the
// cached ones the server page did not include. If the server cannot be read
// only the cache is used.
func (e *Engine) channelHistory(ctx context.Context, channel *models.Channel, logger zerolog.Logger) iter.Seq[*models.Message] {
	return func(yield func(*models.Message) bool) {
		recent := e.fetchRecentMessages(ctx, channel, logger)
		seen := make(map[models.Snowflake]bool, len(recent))
		for _, msg := range recent {
			seen[msg.ID] = true
			if !yield(msg) {
				return
			}
		}
		for msg := range e.deps.Channels.Messages(channel.ID) {
			if seen[msg.ID] {
				continue
			}
			if !yield(msg) {
				return
			}
		}
	}
}

// fetchRecentMessages reads one page of channel history, newest first, and
// materializes it so the cache learns about it too
func (e *Engine) fetchRecentMessages(ctx context.Context, channel *models.Channel, logger zerolog.Logger) []*models.Message {
	req := rest.NewRequest(rest.EndpointChannelMessagesList, channel.ID.String()).
		WithQuery("limit", strconv.Itoa(historyPageSize))

	resp, err := e.deps.Executor.Execute(ctx, *req).Join()
	if err != nil {
		logger.Warn().Err(err).Str("channel_id", channel.ID.String()).Msg("Failed to read channel history, using cached messages")
		return nil
	}

	var page []json.RawMessage
	if err := resp.Decode(&page); err != nil {
		logger.Warn().Err(err).Str("channel_id", channel.ID.String()).Msg("Failed to decode channel history, using cached messages")
		return nil
	}

	messages := make([]*models.Message, 0, len(page))
	for _, raw := range page {
		msg, err := e.deps.Materializer.GetOrCreateMessage(channel, raw)
		if err != nil {
			logger.Debug().Err(err).Msg("Skipping unreadable history entry")
			continue
		}
		messages = append(messages, msg)
	}
	slices.SortStableFunc(messages, func(a, b *models.Message) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return messages
}
