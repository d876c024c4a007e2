package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/embed"
	"github.com/aleister1102/courier/internal/mention"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var general = &models.Channel{ID: 42, Type: models.ChannelTypeGuildText, GuildID: 7}

func TestSendToChannel_PlainText(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().Append("hello")

	msg, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.NoError(t, err)
	assert.Equal(t, general.ID, msg.ChannelID)

	req := h.Only(t)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/v10/channels/42/messages", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Empty(t, req.Parts)
	assert.JSONEq(t, `{"content":"hello","tts":false,"mentions":[]}`, string(req.Body))
}

func TestSendToChannel_PayloadIsIdempotent(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().Append("status", message.Bold).SetTTS(true).SetNonce("abc")
	require.NoError(t, draft.SetAllowedMentions(mention.NewAllowedMentionsBuilder().AddUser(9).Build()))

	for i := 0; i < 2; i++ {
		_, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
		require.NoError(t, err)
	}

	reqs := h.Requests()
	require.Len(t, reqs, 2)
	assert.JSONEq(t, string(reqs[0].Body), string(reqs[1].Body))
	assert.JSONEq(t,
		`{"content":"**status**","tts":true,"mentions":[],"nonce":"abc","allowed_mentions":{"parse":[],"roles":[],"users":["9"]}}`,
		string(reqs[0].Body))

	// The draft is reusable after sending.
	assert.Equal(t, "**status**", draft.Content())
}

func TestSendToChannel_OnlyFirstEmbed(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().
		AddEmbed(embed.NewBuilder().WithTitle("first")).
		AddEmbed(embed.NewBuilder().WithTitle("second"))

	_, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.NoError(t, err)

	payload := h.Only(t).Payload(t)
	assert.Equal(t, map[string]any{"title": "first"}, payload["embed"])
	assert.NotContains(t, payload, "embeds")
}

func TestSendToChannel_FileWithPlainEmbed(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().AddEmbed(embed.NewBuilder().WithTitle("report"))
	require.NoError(t, draft.AddAttachmentBytes([]byte("col1,col2\n"), "data.csv"))

	_, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.NoError(t, err)

	req := h.Only(t)
	assert.Equal(t, []string{"payload_json", "file0"}, req.PartNames())
	assert.Equal(t, "data.csv", req.Parts[1].FileName)
	assert.Equal(t, "col1,col2\n", string(req.Parts[1].Data))
	assert.NotEmpty(t, req.Parts[1].ContentType)

	payload := req.Payload(t)
	assert.Equal(t, "", payload["content"])
	assert.Equal(t, []any{}, payload["mentions"])
}

func TestSendToChannel_AttachmentsInInsertionOrder(t *testing.T) {
	h := newHarness(t)

	chart, err := attachment.FromBytes([]byte("\x89PNG\r\n\x1a\n"), "chart.png")
	require.NoError(t, err)

	draft := message.NewDraft().AddEmbed(embed.NewBuilder().WithImage(chart))
	require.NoError(t, draft.AddAttachmentBytes([]byte("a"), "a.txt"))
	require.NoError(t, draft.AddSpoilerBytes([]byte("b"), "b.bin"))
	require.NoError(t, draft.AddAttachmentBytes([]byte("no extension"), "README"))

	_, err = await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.NoError(t, err)

	req := h.Only(t)
	assert.Equal(t, []string{"payload_json", "file0", "file1", "file2", "file3"}, req.PartNames())

	var fileNames []string
	for _, p := range req.Parts[1:] {
		fileNames = append(fileNames, p.FileName)
		assert.NotEmpty(t, p.ContentType, p.FileName)
	}
	assert.Equal(t, []string{"a.txt", "SPOILER_b.bin", "README", "chart.png"}, fileNames)
	assert.Equal(t, "image/png", req.Parts[4].ContentType)

	embedJSON := req.Payload(t)["embed"].(map[string]any)
	assert.Equal(t, map[string]any{"url": "attachment://chart.png"}, embedJSON["image"])
}

func TestSendToChannel_EmbedAttachmentAloneForcesMultipart(t *testing.T) {
	h := newHarness(t)
	thumb, err := attachment.FromBytes([]byte("gif"), "t.gif")
	require.NoError(t, err)

	draft := message.NewDraft().Append("see thumbnail").AddEmbed(embed.NewBuilder().WithThumbnail(thumb))

	_, err = await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.NoError(t, err)

	req := h.Only(t)
	assert.Equal(t, []string{"payload_json", "file0"}, req.PartNames())
	assert.Equal(t, "see thumbnail", req.Payload(t)["content"])
}

func TestSendToChannel_ResolutionFailureSendsNothing(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft()
	require.NoError(t, draft.AddAttachmentBytes([]byte("ok"), "ok.txt"))
	require.NoError(t, draft.AddAttachmentFile(filepath.Join(t.TempDir(), "missing.txt")))

	_, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, h.Requests())
}

func TestSendToChannel_InvalidEmbedSendsNothing(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().AddEmbed(embed.NewBuilder().AddField("", "value", false))

	_, err := await(t, h.engine.SendToChannel(context.Background(), draft, general))
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument)
	assert.Empty(t, h.Requests())
}

func TestSendToChannel_TransportFailure(t *testing.T) {
	h := newHarness(t)
	h.status.Store(500)

	_, err := await(t, h.engine.SendToChannel(context.Background(), message.NewDraft().Append("x"), general))
	var httpErr *errorwrapper.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Len(t, h.Requests(), 1)
}

func TestSendToChannel_IgnoresCallerCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	draft := message.NewDraft().Append("still sent")
	require.NoError(t, draft.AddAttachmentBytes([]byte("x"), "x.txt"))

	msg, err := h.engine.SendToChannel(ctx, draft, general).Join()
	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Len(t, h.Requests(), 1)
}

func TestSendToChannel_SnapshotAtCallTime(t *testing.T) {
	h := newHarness(t)
	draft := message.NewDraft().Append("original")
	require.NoError(t, draft.AddAttachmentBytes([]byte("x"), "x.txt"))

	f := h.engine.SendToChannel(context.Background(), draft, general)
	draft.SetContent("edited").ClearAttachments()

	_, err := await(t, f)
	require.NoError(t, err)

	req := h.Only(t)
	assert.Equal(t, "original", req.Payload(t)["content"])
	assert.Len(t, req.Parts, 2)
}
