package lexica

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtFromURL(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		wantExt string
		wantOK  bool
	}{
		{name: "jpg", url: "https://cdn.example.com/a/b.jpg", wantExt: "jpg", wantOK: true},
		{name: "uppercase", url: "https://cdn.example.com/a/B.PNG", wantExt: "png", wantOK: true},
		{name: "query string", url: "https://cdn.example.com/a.webp?width=512", wantExt: "webp", wantOK: true},
		{name: "unsupported format", url: "https://cdn.example.com/a.tiff", wantExt: "", wantOK: false},
		{name: "no extension", url: "https://cdn.example.com/a", wantExt: "", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ext, ok := extFromURL(tc.url)
			if ok != tc.wantOK || ext != tc.wantExt {
				t.Errorf("extFromURL(%q) = (%q, %v), want (%q, %v)", tc.url, ext, ok, tc.wantExt, tc.wantOK)
			}
		})
	}
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewAdapter(&Config{
		DataDir:                t.TempDir(),
		ImageDir:               t.TempDir(),
		DownloadTimeout:        5 * time.Second,
		MaxConsecutiveFailures: 20,
	})
}

func TestProcessRowDownloadsAndValidates(t *testing.T) {
	img := validPNG(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer server.Close()

	a := newTestAdapter(t)
	item, ok, failed := a.processRow(context.Background(), shardRow{
		prompt: "a red square",
		url:    server.URL + "/sample.png",
	}, 1)

	if failed || !ok {
		t.Fatalf("processRow failed: ok=%v failed=%v", ok, failed)
	}
	if item.ID != "img_0000001" || item.ImageFilename != "img_0000001.png" {
		t.Errorf("item = %+v", item)
	}
	if _, err := os.Stat(item.ImagePath); err != nil {
		t.Errorf("downloaded image not saved: %v", err)
	}
}

func TestProcessRowCorruptDownloadDiscarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer server.Close()

	a := newTestAdapter(t)
	_, ok, failed := a.processRow(context.Background(), shardRow{
		prompt: "broken",
		url:    server.URL + "/broken.jpg",
	}, 1)

	if ok || !failed {
		t.Fatalf("corrupt download must count as failure: ok=%v failed=%v", ok, failed)
	}
	entries, err := os.ReadDir(a.imageDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("corrupt image left on disk: %v", entries)
	}
}

func TestProcessRowFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := newTestAdapter(t)
	_, ok, failed := a.processRow(context.Background(), shardRow{
		prompt: "gone",
		url:    server.URL + "/gone.jpg",
	}, 1)

	if ok || !failed {
		t.Errorf("non-2xx fetch must count as failure: ok=%v failed=%v", ok, failed)
	}
}

func TestProcessRowSkips(t *testing.T) {
	a := newTestAdapter(t)
	testCases := []struct {
		name string
		row  shardRow
	}{
		{name: "empty prompt", row: shardRow{url: "https://cdn.example.com/a.jpg"}},
		{name: "no image reference", row: shardRow{prompt: "text only"}},
		{name: "unsupported extension", row: shardRow{prompt: "p", url: "https://cdn.example.com/a.svg"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, failed := a.processRow(context.Background(), tc.row, 1)
			if ok || failed {
				t.Errorf("want silent skip, got ok=%v failed=%v", ok, failed)
			}
		})
	}
}

func TestProcessRowInlineBytes(t *testing.T) {
	a := newTestAdapter(t)
	item, ok, failed := a.processRow(context.Background(), shardRow{
		prompt:      "inline",
		inlineBytes: validPNG(t),
	}, 3)

	if failed || !ok {
		t.Fatalf("inline bytes rejected: ok=%v failed=%v", ok, failed)
	}
	if item.ImageFilename != "img_0000003.png" {
		t.Errorf("filename = %q", item.ImageFilename)
	}
}

func TestProcessRowExistingFileReused(t *testing.T) {
	a := newTestAdapter(t)
	existing := filepath.Join(a.imageDir, "img_0000002.png")
	if err := os.WriteFile(existing, validPNG(t), 0o644); err != nil {
		t.Fatal(err)
	}

	item, ok, failed := a.processRow(context.Background(), shardRow{
		prompt: "seen before",
		url:    "https://unreachable.invalid/img.png",
	}, 2)

	if failed || !ok {
		t.Fatalf("existing file must be reused without a fetch: ok=%v failed=%v", ok, failed)
	}
	if item.ImagePath != existing {
		t.Errorf("item path = %q, want %q", item.ImagePath, existing)
	}
}
