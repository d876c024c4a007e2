// Package mediatype guesses the content type of an uploaded file.
package mediatype

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is used when nothing better is known
const OctetStream = "application/octet-stream"

// Guesser resolves content types from file names first and content second.
type Guesser struct{}

// NewGuesser creates a new Guesser
func NewGuesser() *Guesser {
	return &Guesser{}
}

// Guess returns the content type registered for the extension of name
func (g *Guesser) Guess(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "", false
	}
	return contentType, true
}

// Detect sniffs the content type of data. It never returns an empty string.
func (g *Guesser) Detect(data []byte) string {
	if len(data) == 0 {
		return OctetStream
	}
	detected := mimetype.Detect(data)
	if detected == nil || detected.String() == "" {
		return OctetStream
	}
	return detected.String()
}

// ContentType combines Guess and Detect
func (g *Guesser) ContentType(name string, data []byte) string {
	if contentType, ok := g.Guess(name); ok {
		return contentType
	}
	return g.Detect(data)
}
