package message

import (
	"bytes"
	"image"
	"io"
	"net/url"
	"testing"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/embed"
	"github.com/aleister1102/courier/internal/mention"
	"github.com/aleister1102/courier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type temperature float64

func (t temperature) String() string { return "21.5C" }

func TestDraft_AppendConcatenatesInOrder(t *testing.T) {
	d := NewDraft().
		Append("plain ").
		Append("bold", Bold).
		Append(" ").
		Append("nested", Bold, Italics, Underline).
		AppendNewLine().
		Append("quoted", Quote)

	assert.Equal(t, "plain **bold** ***__nested__***\n> quoted", d.Content())
	// Rendering is pure.
	assert.Equal(t, d.Content(), d.Content())
}

func TestDraft_AppendCode(t *testing.T) {
	d := NewDraft().Append("result:").AppendCode("go", "fmt.Println(1)")
	assert.Equal(t, "result:\n```go\nfmt.Println(1)```", d.Content())
}

func TestDraft_AppendMentionAndValue(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.AppendMention(&models.User{ID: 42}))
	require.NoError(t, d.AppendValue(" "))
	require.NoError(t, d.AppendValue(temperature(21.5)))
	require.NoError(t, d.AppendValue(7))
	assert.Equal(t, "<@42> 21.5C7", d.Content())

	var user *models.User
	err := d.AppendMention(user)
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument)
	assert.ErrorIs(t, d.AppendMention(nil), errorwrapper.ErrInvalidArgument)
	assert.ErrorIs(t, d.AppendValue(nil), errorwrapper.ErrInvalidArgument)
	assert.Equal(t, "<@42> 21.5C7", d.Content())
}

func TestDraft_SetContentReplaces(t *testing.T) {
	d := NewDraft().Append("a very long piece of text that should disappear entirely")
	d.SetContent("short")
	assert.Equal(t, "short", d.Content())

	d.SetContent("")
	assert.Empty(t, d.Content())
}

func TestDraft_Embeds(t *testing.T) {
	first := embed.NewBuilder().WithTitle("first")
	second := embed.NewBuilder().WithTitle("second")

	d := NewDraft().AddEmbed(first).AddEmbed(nil).AddEmbed(second).AddEmbed(first)
	assert.Equal(t, []*embed.Builder{first, second, first}, d.Embeds())

	d.RemoveEmbed(first)
	assert.Equal(t, []*embed.Builder{second}, d.Embeds())

	d.RemoveAllEmbeds()
	assert.Empty(t, d.Embeds())
}

func TestDraft_AddAttachmentRejectsNil(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.AddAttachmentBytes([]byte("x"), "x.txt"))

	var img image.Image
	var reader io.Reader
	failures := map[string]error{
		"bytes":        d.AddAttachmentBytes(nil, "x.txt"),
		"bytes name":   d.AddAttachmentBytes([]byte("x"), ""),
		"file":         d.AddAttachmentFile(""),
		"url":          d.AddAttachmentURL(nil),
		"image":        d.AddAttachmentImage(img, "x.png"),
		"icon":         d.AddAttachmentIcon(nil),
		"stream":       d.AddAttachmentStream(reader, "x.bin"),
		"spoiler url":  d.AddSpoilerURL(nil),
		"spoiler icon": d.AddSpoilerIcon(nil),
		"attachment":   d.AddAttachment(nil),
	}

	for name, err := range failures {
		assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument, name)
	}
	assert.Len(t, d.Attachments(), 1)
}

func TestDraft_AttachmentSources(t *testing.T) {
	u, err := url.Parse("https://cdn.example.com/files/report.pdf")
	require.NoError(t, err)
	icon, err := models.NewIcon("https://cdn.example.com/icons/logo.png")
	require.NoError(t, err)

	d := NewDraft()
	require.NoError(t, d.AddAttachmentBytes([]byte("a"), "a.txt"))
	require.NoError(t, d.AddAttachmentFile("/tmp/notes.md"))
	require.NoError(t, d.AddAttachmentURL(u))
	require.NoError(t, d.AddAttachmentImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), "pixel.png"))
	require.NoError(t, d.AddAttachmentIcon(icon))
	require.NoError(t, d.AddAttachmentStream(bytes.NewBufferString("s"), "s.log"))
	require.NoError(t, d.AddSpoilerBytes([]byte("b"), "b.txt"))
	require.NoError(t, d.AddSpoilerFile("/tmp/secret.txt"))

	var names []string
	for _, a := range d.Attachments() {
		names = append(names, a.FileName())
	}
	assert.Equal(t, []string{
		"a.txt", "notes.md", "report.pdf", "pixel.png", "logo.png", "s.log",
		"SPOILER_b.txt", "SPOILER_secret.txt",
	}, names)

	d.ClearAttachments()
	assert.Empty(t, d.Attachments())
}

func TestDraft_SetAllowedMentions(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.SetAllowedMentions(nil), errorwrapper.ErrInvalidArgument)
	assert.NoError(t, d.SetAllowedMentions(mention.NewAllowedMentionsBuilder().Build()))
}

func TestDraft_SnapshotIsIndependent(t *testing.T) {
	e := embed.NewBuilder().WithTitle("v1")
	d := NewDraft().Append("hello").SetTTS(true).SetNonce("n1").AddEmbed(e)
	require.NoError(t, d.AddAttachmentBytes([]byte("x"), "x.txt"))

	snap := d.Snapshot()

	d.SetContent("changed").SetTTS(false).SetNonce("n2").ClearAttachments()
	e.WithTitle("v2")

	assert.Equal(t, "hello", snap.Content)
	assert.True(t, snap.TTS)
	require.NotNil(t, snap.Nonce)
	assert.Equal(t, "n1", *snap.Nonce)
	require.Len(t, snap.Embeds, 1)
	assert.Equal(t, "v1", snap.Embeds[0].Serialize().Title)
	require.Len(t, snap.Attachments, 1)
	assert.Equal(t, attachment.SourceBytes, snap.Attachments[0].Source())

	d.ClearNonce()
	assert.Nil(t, d.Snapshot().Nonce)
}
