// Package resolver turns attachments into the raw bytes that get uploaded.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/httpclient"
	"github.com/rs/zerolog"
)

// ContentFetcher downloads remote files
type ContentFetcher interface {
	Download(ctx context.Context, rawURL string) (*httpclient.Download, error)
}

// Resolver reads local sources directly and downloads remote ones.
type Resolver struct {
	fetcher ContentFetcher
	logger  zerolog.Logger
}

// New creates a resolver that downloads URL and icon sources through fetcher
func New(fetcher ContentFetcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "Resolver").Logger(),
	}
}

// Resolve produces the bytes of a. Local sources complete immediately,
// remote sources complete once the download finishes.
func (r *Resolver) Resolve(ctx context.Context, a *attachment.Attachment) *future.Future[[]byte] {
	if a == nil {
		return future.Failed[[]byte](errorwrapper.NilArgument("attachment"))
	}

	switch a.Source() {
	case attachment.SourceBytes:
		return future.Completed(a.Data())
	case attachment.SourceFile:
		data, err := os.ReadFile(a.Path())
		if err != nil {
			return future.Failed[[]byte](errorwrapper.WrapErrorf(err, "failed to read attachment %s", a.Path()))
		}
		return future.Completed(data)
	case attachment.SourceImage:
		data, err := EncodeImage(a.Image(), a.Name())
		if err != nil {
			return future.Failed[[]byte](err)
		}
		return future.Completed(data)
	case attachment.SourceStream:
		data, err := a.DrainStream()
		if err != nil {
			return future.Failed[[]byte](errorwrapper.WrapErrorf(err, "failed to read attachment stream %s", a.Name()))
		}
		return future.Completed(data)
	case attachment.SourceURL, attachment.SourceIcon:
		return r.download(ctx, a)
	default:
		return future.Failed[[]byte](errorwrapper.NewStateError("resolve", "unknown attachment source "+a.Source().String()))
	}
}

func (r *Resolver) download(ctx context.Context, a *attachment.Attachment) *future.Future[[]byte] {
	result := future.New[[]byte]()
	if r.fetcher == nil {
		result.Fail(errorwrapper.NewStateError("resolve", "no fetcher configured for remote attachments"))
		return result
	}

	target := a.URL().String()
	go func() {
		fetched, err := r.fetcher.Download(ctx, target)
		if err != nil {
			r.logger.Debug().Err(err).Str("url", target).Msg("Attachment download failed")
			result.Fail(errorwrapper.WrapErrorf(err, "failed to download attachment %s", target))
			return
		}
		result.Complete(fetched.Content)
	}()
	return result
}

// EncodeImage encodes img in the format named by the extension of fileName.
// Unknown extensions encode as PNG.
func EncodeImage(img image.Image, fileName string) ([]byte, error) {
	if img == nil {
		return nil, errorwrapper.NilArgument("image")
	}

	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image %s: %w", fileName, err)
	}
	return buf.Bytes(), nil
}
