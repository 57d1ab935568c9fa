package uploadmodule

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"regexp"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/types"
)

var folderPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// DefaultAllowedTypes are the image types accepted when none are configured
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Result describes a stored image
type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Uploader validates images and hands them to an ObjectStore
type Uploader struct {
	store   ObjectStore
	maxSize int64
	allowed []string
	newKey  func(folder, ext string) string
}

func NewUploader(store ObjectStore, maxSize int64, allowed []string) *Uploader {
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	return &Uploader{
		store:   store,
		maxSize: maxSize,
		allowed: allowed,
		newKey: func(folder, ext string) string {
			return folder + "/" + uuid.NewString() + ext
		},
	}
}

// MaxSize is the largest accepted file in bytes
func (u *Uploader) MaxSize() int64 { return u.maxSize }

// Upload sniffs the content type of r, checks it against the allow-list
// and the size ceiling, reads the image dimensions and stores it under
// folder.
func (u *Uploader) Upload(ctx context.Context, folder string, r io.Reader) (*Result, error) {
	if !folderPattern.MatchString(folder) {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("invalid folder", "folder must match [a-z0-9_-]{1,64}")
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("failed to read file", err.Error())
	}
	if len(data) == 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("file is empty")
	}
	if int64(len(data)) > u.maxSize {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("file is too large", fmt.Sprintf("maximum size is %d bytes", u.maxSize))
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), u.allowed...) {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("unsupported file type", mtype.String())
	}

	cfg, err := decodeConfig(mtype.String(), data)
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, types.NewValidationError("file is not a readable image", err.Error())
	}

	key := u.newKey(folder, mtype.Extension())
	url, err := u.store.Put(ctx, key, mtype.String(), bytes.NewReader(data))
	if err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()
		return nil, types.NewUploadError(err)
	}

	metrics.Uploads.WithLabelValues("stored").Inc()
	logger.Info("image uploaded", "key", key, "type", mtype.String(), "size", len(data))
	return &Result{
		URL:         url,
		Key:         key,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func decodeConfig(contentType string, data []byte) (image.Config, error) {
	if contentType == "image/webp" {
		return webp.DecodeConfig(bytes.NewReader(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return cfg, err
}
