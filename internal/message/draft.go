// Package message holds the mutable message draft and its webhook overlay.
package message

import (
	"fmt"
	"image"
	"io"
	"net/url"
	"reflect"
	"strings"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/embed"
	"github.com/aleister1102/courier/internal/mention"
	"github.com/aleister1102/courier/internal/models"
)

// Draft accumulates a message before it is sent. A send never consumes or
// clears draft state, so the same draft can be sent repeatedly. A Draft is not
// safe for concurrent mutation.
type Draft struct {
	text            strings.Builder
	embeds          []*embed.Builder
	attachments     []*attachment.Attachment
	tts             bool
	nonce           *string
	allowedMentions *mention.AllowedMentions
}

// Snapshot is an immutable copy of a draft taken when a send starts.
type Snapshot struct {
	Content         string
	TTS             bool
	Nonce           *string
	AllowedMentions *mention.AllowedMentions
	Embeds          []*embed.Builder
	Attachments     []*attachment.Attachment
}

// NewDraft creates an empty draft
func NewDraft() *Draft {
	return &Draft{}
}

// Append adds text wrapped in the given decorations. Prefixes are written in
// order and suffixes in reverse, so nesting stays balanced.
func (d *Draft) Append(text string, decorations ...Decoration) *Draft {
	for _, dec := range decorations {
		d.text.WriteString(dec.prefix)
	}
	d.text.WriteString(text)
	for i := len(decorations) - 1; i >= 0; i-- {
		d.text.WriteString(decorations[i].suffix)
	}
	return d
}

// AppendCode adds a fenced code block highlighted as language
func (d *Draft) AppendCode(language, code string) *Draft {
	d.text.WriteString("\n```")
	d.text.WriteString(language)
	d.text.WriteString("\n")
	d.text.WriteString(code)
	d.text.WriteString("```")
	return d
}

// AppendNewLine adds a line break
func (d *Draft) AppendNewLine() *Draft {
	d.text.WriteString("\n")
	return d
}

// AppendMention adds the mention tag of m
func (d *Draft) AppendMention(m models.Mentionable) error {
	if isNil(m) {
		return errorwrapper.NilArgument("entity")
	}
	d.text.WriteString(m.MentionTag())
	return nil
}

// AppendValue adds the default text form of v
func (d *Draft) AppendValue(v any) error {
	if isNil(v) {
		return errorwrapper.NilArgument("value")
	}
	fmt.Fprint(&d.text, v)
	return nil
}

// SetContent replaces all text
func (d *Draft) SetContent(content string) *Draft {
	d.text.Reset()
	d.text.WriteString(content)
	return d
}

// Content renders the current text
func (d *Draft) Content() string {
	return d.text.String()
}

// AddEmbed appends an embed. A nil embed is ignored.
func (d *Draft) AddEmbed(e *embed.Builder) *Draft {
	if e != nil {
		d.embeds = append(d.embeds, e)
	}
	return d
}

// RemoveEmbed removes every occurrence of e
func (d *Draft) RemoveEmbed(e *embed.Builder) *Draft {
	kept := d.embeds[:0]
	for _, existing := range d.embeds {
		if existing != e {
			kept = append(kept, existing)
		}
	}
	clear(d.embeds[len(kept):])
	d.embeds = kept
	return d
}

// RemoveAllEmbeds drops every embed
func (d *Draft) RemoveAllEmbeds() *Draft {
	d.embeds = nil
	return d
}

// Embeds returns the embeds in insertion order
func (d *Draft) Embeds() []*embed.Builder {
	return append([]*embed.Builder(nil), d.embeds...)
}

// SetTTS sets whether the message is read aloud
func (d *Draft) SetTTS(tts bool) *Draft {
	d.tts = tts
	return d
}

// SetNonce sets the nonce used to confirm the message was sent
func (d *Draft) SetNonce(nonce string) *Draft {
	d.nonce = &nonce
	return d
}

// ClearNonce removes the nonce
func (d *Draft) ClearNonce() *Draft {
	d.nonce = nil
	return d
}

// SetAllowedMentions sets the mention policy. The policy is shared, not copied.
func (d *Draft) SetAllowedMentions(policy *mention.AllowedMentions) error {
	if policy == nil {
		return errorwrapper.NilArgument("allowedMentions")
	}
	d.allowedMentions = policy
	return nil
}

// AddAttachmentBytes attaches an in-memory buffer
func (d *Draft) AddAttachmentBytes(data []byte, fileName string) error {
	return d.add(attachment.FromBytes(data, fileName))
}

// AddAttachmentFile attaches a local file read at send time
func (d *Draft) AddAttachmentFile(path string) error {
	return d.add(attachment.FromFile(path))
}

// AddAttachmentURL attaches a remote file downloaded at send time
func (d *Draft) AddAttachmentURL(u *url.URL) error {
	return d.add(attachment.FromURL(u))
}

// AddAttachmentImage attaches a decoded image, encoded by the extension of fileName
func (d *Draft) AddAttachmentImage(img image.Image, fileName string) error {
	return d.add(attachment.FromImage(img, fileName))
}

// AddAttachmentIcon attaches a previously uploaded icon
func (d *Draft) AddAttachmentIcon(icon *models.Icon) error {
	return d.add(attachment.FromIcon(icon))
}

// AddAttachmentStream attaches the contents of r, read once at first send
func (d *Draft) AddAttachmentStream(r io.Reader, fileName string) error {
	return d.add(attachment.FromStream(r, fileName))
}

// AddSpoilerBytes attaches an in-memory buffer marked as a spoiler
func (d *Draft) AddSpoilerBytes(data []byte, fileName string) error {
	return d.add(attachment.FromBytes(data, fileName, attachment.AsSpoiler()))
}

// AddSpoilerFile attaches a local file marked as a spoiler
func (d *Draft) AddSpoilerFile(path string) error {
	return d.add(attachment.FromFile(path, attachment.AsSpoiler()))
}

// AddSpoilerURL attaches a remote file marked as a spoiler
func (d *Draft) AddSpoilerURL(u *url.URL) error {
	return d.add(attachment.FromURL(u, attachment.AsSpoiler()))
}

// AddSpoilerIcon attaches an icon marked as a spoiler
func (d *Draft) AddSpoilerIcon(icon *models.Icon) error {
	return d.add(attachment.FromIcon(icon, attachment.AsSpoiler()))
}

// AddAttachment appends an already built attachment
func (d *Draft) AddAttachment(a *attachment.Attachment) error {
	if a == nil {
		return errorwrapper.NilArgument("attachment")
	}
	d.attachments = append(d.attachments, a)
	return nil
}

func (d *Draft) add(a *attachment.Attachment, err error) error {
	if err != nil {
		return err
	}
	return d.AddAttachment(a)
}

// Attachments returns the attachments in insertion order
func (d *Draft) Attachments() []*attachment.Attachment {
	return append([]*attachment.Attachment(nil), d.attachments...)
}

// ClearAttachments drops every attachment
func (d *Draft) ClearAttachments() *Draft {
	d.attachments = nil
	return d
}

// Snapshot copies the current state. Embeds are cloned so later edits to the
// draft's embed builders do not leak into an in-flight send.
func (d *Draft) Snapshot() Snapshot {
	snap := Snapshot{
		Content:         d.text.String(),
		TTS:             d.tts,
		AllowedMentions: d.allowedMentions,
		Attachments:     d.Attachments(),
	}
	if d.nonce != nil {
		nonce := *d.nonce
		snap.Nonce = &nonce
	}
	for _, e := range d.embeds {
		snap.Embeds = append(snap.Embeds, e.Clone())
	}
	return snap
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
