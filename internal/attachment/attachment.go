// Package attachment holds the file sources a message can upload alongside its payload.
package attachment

import (
	"image"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"sync"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/models"
)

// SpoilerPrefix marks an uploaded file as a spoiler on the wire.
const SpoilerPrefix = "SPOILER_"

const fallbackName = "file"

// Source identifies where an attachment's bytes come from.
type Source int

const (
	SourceBytes Source = iota
	SourceFile
	SourceURL
	SourceImage
	SourceIcon
	SourceStream
)

// String returns string representation of Source
func (s Source) String() string {
	switch s {
	case SourceBytes:
		return "bytes"
	case SourceFile:
		return "file"
	case SourceURL:
		return "url"
	case SourceImage:
		return "image"
	case SourceIcon:
		return "icon"
	case SourceStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Attachment wraps exactly one source plus naming and spoiler metadata.
// Bytes are produced on demand by a resolver.
type Attachment struct {
	source  Source
	name    string
	spoiler bool

	data   []byte
	path   string
	url    *url.URL
	image  image.Image
	icon   *models.Icon
	stream io.Reader

	streamOnce sync.Once
	streamData []byte
	streamErr  error
}

// Option customizes an attachment at construction
type Option func(*Attachment)

// AsSpoiler flags the attachment as a spoiler
func AsSpoiler() Option {
	return func(a *Attachment) {
		a.spoiler = true
	}
}

// FromBytes creates an attachment from an in-memory buffer
func FromBytes(data []byte, name string, opts ...Option) (*Attachment, error) {
	if data == nil {
		return nil, errorwrapper.NilArgument("bytes")
	}
	if name == "" {
		return nil, errorwrapper.NilArgument("fileName")
	}
	return build(&Attachment{source: SourceBytes, data: data, name: name}, opts), nil
}

// FromFile creates an attachment read from a local path at send time
func FromFile(filePath string, opts ...Option) (*Attachment, error) {
	if filePath == "" {
		return nil, errorwrapper.NilArgument("file")
	}
	return build(&Attachment{source: SourceFile, path: filePath, name: filepath.Base(filePath)}, opts), nil
}

// FromURL creates an attachment downloaded from u at send time
func FromURL(u *url.URL, opts ...Option) (*Attachment, error) {
	if u == nil {
		return nil, errorwrapper.NilArgument("url")
	}
	return build(&Attachment{source: SourceURL, url: u, name: nameFromURL(u)}, opts), nil
}

// FromImage creates an attachment encoded from a decoded image. The encoding
// follows the extension of name.
func FromImage(img image.Image, name string, opts ...Option) (*Attachment, error) {
	if img == nil {
		return nil, errorwrapper.NilArgument("image")
	}
	if name == "" {
		return nil, errorwrapper.NilArgument("fileName")
	}
	return build(&Attachment{source: SourceImage, image: img, name: name}, opts), nil
}

// FromIcon creates an attachment from a previously uploaded icon
func FromIcon(icon *models.Icon, opts ...Option) (*Attachment, error) {
	if icon == nil || icon.URL == nil {
		return nil, errorwrapper.NilArgument("icon")
	}
	return build(&Attachment{source: SourceIcon, icon: icon, name: nameFromURL(icon.URL)}, opts), nil
}

// FromStream creates an attachment drained from r on first resolution
func FromStream(r io.Reader, name string, opts ...Option) (*Attachment, error) {
	if r == nil {
		return nil, errorwrapper.NilArgument("stream")
	}
	if name == "" {
		return nil, errorwrapper.NilArgument("fileName")
	}
	return build(&Attachment{source: SourceStream, stream: r, name: name}, opts), nil
}

func build(a *Attachment, opts []Option) *Attachment {
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func nameFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return fallbackName
	}
	return base
}

// Source returns the attachment's source kind
func (a *Attachment) Source() Source {
	return a.source
}

// Name returns the display name without spoiler marking
func (a *Attachment) Name() string {
	return a.name
}

// FileName returns the name sent on the wire
func (a *Attachment) FileName() string {
	if a.spoiler {
		return SpoilerPrefix + a.name
	}
	return a.name
}

// IsSpoiler reports whether the attachment is flagged as a spoiler
func (a *Attachment) IsSpoiler() bool {
	return a.spoiler
}

// Data returns the buffer of a bytes attachment
func (a *Attachment) Data() []byte {
	return a.data
}

// Path returns the local path of a file attachment
func (a *Attachment) Path() string {
	return a.path
}

// URL returns the remote location of a URL or icon attachment
func (a *Attachment) URL() *url.URL {
	if a.source == SourceIcon {
		return a.icon.URL
	}
	return a.url
}

// Image returns the decoded image of an image attachment
func (a *Attachment) Image() image.Image {
	return a.image
}

// Icon returns the icon of an icon attachment
func (a *Attachment) Icon() *models.Icon {
	return a.icon
}

// DrainStream reads a stream attachment to the end once and replays the
// same bytes on later calls, so a draft holding it stays resendable.
func (a *Attachment) DrainStream() ([]byte, error) {
	if a.source != SourceStream {
		return nil, errorwrapper.NewStateError("drain", "attachment source is "+a.source.String())
	}
	a.streamOnce.Do(func() {
		a.streamData, a.streamErr = io.ReadAll(a.stream)
		if closer, ok := a.stream.(io.Closer); ok {
			_ = closer.Close()
		}
	})
	return a.streamData, a.streamErr
}
