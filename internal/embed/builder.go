package embed

import (
	"time"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/models"
)

const attachmentScheme = "attachment://"

// Builder helps in constructing embed objects. Images may be given by URL or
// by a local attachment that has to be uploaded together with the message.
type Builder struct {
	embed     models.Embed
	validator *Validator

	footerIcon *attachment.Attachment
	image      *attachment.Attachment
	authorIcon *attachment.Attachment
	thumbnail  *attachment.Attachment
}

// NewBuilder creates a new embed builder
func NewBuilder() *Builder {
	return &Builder{
		embed:     models.Embed{},
		validator: NewValidator(),
	}
}

// WithTitle sets the embed title
func (b *Builder) WithTitle(title string) *Builder {
	b.embed.Title = title
	return b
}

// WithDescription sets the embed description
func (b *Builder) WithDescription(description string) *Builder {
	b.embed.Description = description
	return b
}

// WithURL sets the embed URL
func (b *Builder) WithURL(url string) *Builder {
	b.embed.URL = url
	return b
}

// WithTimestamp sets the embed timestamp
func (b *Builder) WithTimestamp(timestamp time.Time) *Builder {
	b.embed.Timestamp = timestamp.Format(time.RFC3339)
	return b
}

// WithColor sets the embed color
func (b *Builder) WithColor(color int) *Builder {
	b.embed.Color = color
	return b
}

// WithFooter sets the embed footer
func (b *Builder) WithFooter(text, iconURL string) *Builder {
	b.embed.Footer = &models.EmbedFooter{Text: text, IconURL: iconURL}
	b.footerIcon = nil
	return b
}

// WithFooterIcon sets the embed footer with an uploaded icon
func (b *Builder) WithFooterIcon(text string, icon *attachment.Attachment) *Builder {
	b.embed.Footer = &models.EmbedFooter{Text: text, IconURL: reference(icon)}
	b.footerIcon = icon
	return b
}

// WithImageURL sets the embed image from a URL
func (b *Builder) WithImageURL(url string) *Builder {
	b.embed.Image = &models.EmbedImage{URL: url}
	b.image = nil
	return b
}

// WithImage sets the embed image from an uploaded attachment
func (b *Builder) WithImage(image *attachment.Attachment) *Builder {
	b.embed.Image = &models.EmbedImage{URL: reference(image)}
	b.image = image
	return b
}

// WithThumbnailURL sets the embed thumbnail from a URL
func (b *Builder) WithThumbnailURL(url string) *Builder {
	b.embed.Thumbnail = &models.EmbedThumbnail{URL: url}
	b.thumbnail = nil
	return b
}

// WithThumbnail sets the embed thumbnail from an uploaded attachment
func (b *Builder) WithThumbnail(thumbnail *attachment.Attachment) *Builder {
	b.embed.Thumbnail = &models.EmbedThumbnail{URL: reference(thumbnail)}
	b.thumbnail = thumbnail
	return b
}

// WithAuthor sets the embed author
func (b *Builder) WithAuthor(name, url, iconURL string) *Builder {
	b.embed.Author = &models.EmbedAuthor{Name: name, URL: url, IconURL: iconURL}
	b.authorIcon = nil
	return b
}

// WithAuthorIcon sets the embed author with an uploaded icon
func (b *Builder) WithAuthorIcon(name, url string, icon *attachment.Attachment) *Builder {
	b.embed.Author = &models.EmbedAuthor{Name: name, URL: url, IconURL: reference(icon)}
	b.authorIcon = icon
	return b
}

// AddField adds a field to the embed
func (b *Builder) AddField(name, value string, inline bool) *Builder {
	b.embed.Fields = append(b.embed.Fields, models.EmbedField{Name: name, Value: value, Inline: inline})
	return b
}

// RemoveAllFields drops every field
func (b *Builder) RemoveAllFields() *Builder {
	b.embed.Fields = nil
	return b
}

// Validate validates the current embed
func (b *Builder) Validate() error {
	return b.validator.ValidateEmbed(b.embed)
}

// Build validates and returns the serialized embed
func (b *Builder) Build() (models.Embed, error) {
	if err := b.Validate(); err != nil {
		return models.Embed{}, err
	}
	return b.Serialize(), nil
}

// Serialize returns a copy of the serialized embed without validation
func (b *Builder) Serialize() models.Embed {
	out := b.embed
	if b.embed.Fields != nil {
		out.Fields = append([]models.EmbedField(nil), b.embed.Fields...)
	}
	return out
}

// Clone returns an independent builder with the same content. Later changes
// to either builder do not affect the other.
func (b *Builder) Clone() *Builder {
	clone := *b
	clone.embed = b.Serialize()
	return &clone
}

// RequiresAttachments reports whether the embed references local files
func (b *Builder) RequiresAttachments() bool {
	return b.footerIcon != nil || b.image != nil || b.authorIcon != nil || b.thumbnail != nil
}

// RequiredAttachments returns the files the embed references, in a stable order
func (b *Builder) RequiredAttachments() []*attachment.Attachment {
	var required []*attachment.Attachment
	for _, a := range []*attachment.Attachment{b.footerIcon, b.image, b.authorIcon, b.thumbnail} {
		if a != nil {
			required = append(required, a)
		}
	}
	return required
}

func reference(a *attachment.Attachment) string {
	if a == nil {
		return ""
	}
	return attachmentScheme + a.FileName()
}
