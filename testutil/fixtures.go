package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// PNGBytes returns a small valid PNG image
func PNGBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG fixture: %v", err)
	}
	return buf.Bytes()
}

// CreatePNGFixture writes a PNG image named name into dir
func CreatePNGFixture(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, PNGBytes(t))
}

// ConversationJSON is a structured export holding one exchange with an image
const ConversationJSON = `{
  "metadata": {"createdAt": "2025-01-02T03:04:05Z", "model": "claude-sonnet-4-20250514", "turnCount": 2},
  "conversation": [
    {"role": "user", "content": "What is in this picture?", "image_path": "img/a.png"},
    {"role": "assistant", "content": "# Hi\n\nA **red** pixel."}
  ]
}`

// CreateZipFixture writes a zip archive holding files (name to content) and returns its path
func CreateZipFixture(t *testing.T, dir, name string, files map[string][]byte, order []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip fixture: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if len(order) == 0 {
		for entry := range files {
			order = append(order, entry)
		}
	}
	for _, entry := range order {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("Failed to add %s to zip fixture: %v", entry, err)
		}
		if _, err := w.Write(files[entry]); err != nil {
			t.Fatalf("Failed to write %s to zip fixture: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip fixture: %v", err)
	}
	return path
}
