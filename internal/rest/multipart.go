package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// PayloadPartName is the form field holding the JSON payload of a multipart request.
const PayloadPartName = "payload_json"

// Part describes one form part of a multipart body
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Size        int
}

// MultipartBody is an encoded multipart/form-data body
type MultipartBody struct {
	ContentType string
	Data        []byte
	Parts       []Part
}

// MultipartBuilder assembles a multipart/form-data body part by part.
type MultipartBuilder struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	parts  []Part
	err    error
}

// NewMultipartBuilder creates an empty multipart builder
func NewMultipartBuilder() *MultipartBuilder {
	b := &MultipartBuilder{}
	b.writer = multipart.NewWriter(&b.buf)
	return b
}

// AddJSON adds a part holding the JSON encoding of v
func (b *MultipartBuilder) AddJSON(name string, v any) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("failed to encode %s: %w", name, err)
		return b
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", "application/json")
	return b.write(header, Part{Name: name, ContentType: "application/json"}, data)
}

// AddFile adds a file part
func (b *MultipartBuilder) AddFile(name, fileName, contentType string, data []byte) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	return b.write(header, Part{Name: name, FileName: fileName, ContentType: contentType}, data)
}

func (b *MultipartBuilder) write(header textproto.MIMEHeader, part Part, data []byte) *MultipartBuilder {
	w, err := b.writer.CreatePart(header)
	if err != nil {
		b.err = fmt.Errorf("failed to create part %s: %w", part.Name, err)
		return b
	}
	if _, err := w.Write(data); err != nil {
		b.err = fmt.Errorf("failed to write part %s: %w", part.Name, err)
		return b
	}
	part.Size = len(data)
	b.parts = append(b.parts, part)
	return b
}

// Build closes the body and returns it
func (b *MultipartBuilder) Build() (*MultipartBody, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &MultipartBody{
		ContentType: b.writer.FormDataContentType(),
		Data:        b.buf.Bytes(),
		Parts:       b.parts,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
