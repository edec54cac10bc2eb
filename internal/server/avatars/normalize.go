// Package avatars normalizes uploaded profile images and stores them either
// in the users table or in an S3-compatible bucket.
package avatars

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"slices"

	"golang.org/x/image/draw"

	"github.com/sidhlee/task-manager-api/internal/common"
)

const (
	// MaxUploadSize is the largest accepted upload in bytes.
	MaxUploadSize = 500000

	// Size is the edge length of stored avatars in pixels.
	Size = 250

	// ContentType of every stored avatar.
	ContentType = "image/png"

	// FormField is the multipart field carrying the upload.
	FormField = "avatar"

	// MaxInputPixels bounds width*height of an upload before it is decoded.
	MaxInputPixels = 4096 * 4096
)

var allowedContentTypes = []string{"image/jpg", "image/jpeg", "image/png"}

// Normalize checks an upload and converts it to a Size x Size PNG. Rejected
// uploads yield a *common.ValidationError on the avatar field.
func Normalize(contentType string, data []byte) ([]byte, error) {
	if !slices.Contains(allowedContentTypes, contentType) {
		return nil, common.NewValidationError(FormField, "Image file must be either jpg, jpeg, or png.")
	}
	if len(data) > MaxUploadSize {
		return nil, common.NewValidationError(FormField, "File too large")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewValidationError(FormField, "Image could not be decoded")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, common.NewValidationError(FormField, "Image dimensions too large")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewValidationError(FormField, "Image could not be decoded")
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
