// Package imaging normalizes local images into the base64 PNG payload the
// captioning API expects. Decode failures are reported as errors so callers
// can skip corrupt files instead of aborting the batch.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/webp"
)

// EncodeBase64PNG opens the image at path, normalizes it to 3-channel RGB,
// re-encodes it as a lossless PNG and returns the base64 text blob for
// embedding in a request payload.
// Parameters:
//   - path: local image file path.
//
// Returns:
//   - string: base64-encoded PNG bytes.
//   - error: non-nil when the file cannot be read or decoded; callers must
//     treat this as a skip condition.
func EncodeBase64PNG(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return EncodeBytesBase64PNG(data)
}

// EncodeBytesBase64PNG normalizes already-loaded image bytes to RGB PNG base64.
func EncodeBytesBase64PNG(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Flatten to RGB. PNG has no plain RGB model, so RGBA with an opaque
	// alpha channel is the lossless equivalent.
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Verify checks that data decodes as a supported image. Used to validate
// downloaded files before they enter the work queue.
func Verify(data []byte) error {
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	return nil
}
