package models

// Embed represents the serialized form of an embed object.
type Embed struct {
	Title       string          `json:"title,omitempty"`       // Title of embed
	Description string          `json:"description,omitempty"` // Description of embed
	URL         string          `json:"url,omitempty"`         // URL of embed
	Timestamp   string          `json:"timestamp,omitempty"`   // ISO8601 timestamp
	Color       int             `json:"color,omitempty"`       // Color code of the embed
	Footer      *EmbedFooter    `json:"footer,omitempty"`
	Image       *EmbedImage     `json:"image,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
	Author      *EmbedAuthor    `json:"author,omitempty"`
	Fields      []EmbedField    `json:"fields,omitempty"` // Array of embed field objects
}

// EmbedFooter represents the footer of an embed.
type EmbedFooter struct {
	Text    string `json:"text"`               // Footer text
	IconURL string `json:"icon_url,omitempty"` // URL of footer icon (only supports http(s) and attachments)
}

// EmbedImage represents the image of an embed.
type EmbedImage struct {
	URL string `json:"url"` // Source URL of image (only supports http(s) and attachments)
}

// EmbedThumbnail represents the thumbnail of an embed.
type EmbedThumbnail struct {
	URL string `json:"url"` // Source URL of thumbnail (only supports http(s) and attachments)
}

// EmbedAuthor represents the author of an embed.
type EmbedAuthor struct {
	Name    string `json:"name"`               // Name of author
	URL     string `json:"url,omitempty"`      // URL of author (only supports http(s))
	IconURL string `json:"icon_url,omitempty"` // URL of author icon (only supports http(s) and attachments)
}

// EmbedField represents a field in an embed.
type EmbedField struct {
	Name   string `json:"name"`             // Name of the field
	Value  string `json:"value"`            // Value of the field
	Inline bool   `json:"inline,omitempty"` // Whether or not this field should display inline
}
