package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestImage(t *testing.T, dir, name string, encode func(*bytes.Buffer, image.Image) error) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodeBase64PNG(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name string
		path string
	}{
		{
			name: "png input",
			path: writeTestImage(t, dir, "in.png", func(buf *bytes.Buffer, img image.Image) error {
				return png.Encode(buf, img)
			}),
		},
		{
			name: "jpeg input",
			path: writeTestImage(t, dir, "in.jpg", func(buf *bytes.Buffer, img image.Image) error {
				return jpeg.Encode(buf, img, nil)
			}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b64, err := EncodeBase64PNG(tc.path)
			if err != nil {
				t.Fatalf("EncodeBase64PNG: %v", err)
			}

			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				t.Fatalf("output is not valid base64: %v", err)
			}
			decoded, format, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("output does not decode: %v", err)
			}
			if format != "png" {
				t.Errorf("re-encoded format = %q, want png", format)
			}
			if decoded.Bounds() != image.Rect(0, 0, 8, 6) {
				t.Errorf("bounds changed: %v", decoded.Bounds())
			}
		})
	}
}

func TestEncodeBase64PNGCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.jpg")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := EncodeBase64PNG(path); err == nil {
		t.Fatal("corrupt file must return an error")
	}
}

func TestEncodeBase64PNGMissingFile(t *testing.T) {
	if _, err := EncodeBase64PNG(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("missing file must return an error")
	}
}

func TestVerify(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}

	if err := Verify(buf.Bytes()); err != nil {
		t.Errorf("valid PNG rejected: %v", err)
	}
	if err := Verify([]byte("garbage")); err == nil {
		t.Error("garbage bytes accepted")
	}
}
