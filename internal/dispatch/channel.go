package dispatch

import (
	"context"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/mention"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/aleister1102/courier/internal/rest"
)

// channelPayload is the body of a channel message create. Mentions is always
// sent as an empty array.
type channelPayload struct {
	Content         string                   `json:"content"`
	TTS             bool                     `json:"tts"`
	Mentions        []string                 `json:"mentions"`
	AllowedMentions *mention.AllowedMentions `json:"allowed_mentions,omitempty"`
	Embed           *models.Embed            `json:"embed,omitempty"`
	Nonce           *string                  `json:"nonce,omitempty"`
}

// SendToChannel posts draft to channel. Only the first embed is sent. The
// draft is snapshotted before this returns and is left unchanged.
func (e *Engine) SendToChannel(ctx context.Context, draft *message.Draft, channel *models.Channel) *future.Future[*models.Message] {
	if draft == nil {
		return future.Failed[*models.Message](errorwrapper.NilArgument("draft"))
	}
	return e.sendSnapshotToChannel(ctx, draft.Snapshot(), channel)
}

func (e *Engine) sendSnapshotToChannel(ctx context.Context, snap message.Snapshot, channel *models.Channel) *future.Future[*models.Message] {
	if channel == nil {
		return future.Failed[*models.Message](errorwrapper.NewStateError("send", "no channel to send to"))
	}

	s := e.newSend(ctx, "channel")
	s.logger = s.logger.With().Str("channel_id", channel.ID.String()).Logger()

	payload := channelPayload{
		Content:         snap.Content,
		TTS:             snap.TTS,
		Mentions:        []string{},
		AllowedMentions: snap.AllowedMentions,
		Nonce:           snap.Nonce,
	}

	files := snap.Attachments
	multipart := len(files) > 0

	if len(snap.Embeds) > 0 {
		first := snap.Embeds[0]
		serialized, err := first.Build()
		if err != nil {
			return future.Failed[*models.Message](errorwrapper.WrapError(err, "invalid embed"))
		}
		payload.Embed = &serialized
		if first.RequiresAttachments() {
			multipart = true
			files = append(files, first.RequiredAttachments()...)
		}
	}

	s.request = rest.NewRequest(rest.EndpointChannelMessages, channel.ID.String())
	s.payload = payload
	s.files = files
	s.handle = func(resp *rest.Response) (*models.Message, error) {
		return e.deps.Materializer.GetOrCreateMessage(channel, resp.JSONBody())
	}

	return e.dispatch(s, multipart)
}
