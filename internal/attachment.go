package internal

import (
	"encoding/base64"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ArchiveImageDir is the folder inside a bundle that holds attachments
const ArchiveImageDir = "img"

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Attachment is an image loaded from disk
type Attachment struct {
	Path      string
	Name      string
	MediaType string
	Data      []byte
}

// MediaTypeFor returns the MIME type for a path based on its extension
func MediaTypeFor(p string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(p))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// LoadAttachment reads an attachment from disk
func LoadAttachment(p string) (*Attachment, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &AttachmentError{Path: p, Op: "read", Err: err}
	}
	return &Attachment{
		Path:      p,
		Name:      filepath.Base(p),
		MediaType: MediaTypeFor(p),
		Data:      data,
	}, nil
}

// Payload encodes the attachment for a provider message
func (a *Attachment) Payload() *ImagePayload {
	return &ImagePayload{
		MediaType: a.MediaType,
		Data:      base64.StdEncoding.EncodeToString(a.Data),
	}
}

// ArchivePath returns the bundle-relative path for an attachment, always
// using forward slashes.
func ArchivePath(p string) string {
	return path.Join(ArchiveImageDir, filepath.Base(p))
}

// IsArchiveRef reports whether ref points into a bundle's image folder
func IsArchiveRef(ref string) bool {
	return strings.HasPrefix(filepath.ToSlash(ref), ArchiveImageDir+"/")
}

// ResolveAgainst turns a bundle-relative reference into a path under dir.
// Absolute references are returned unchanged.
func ResolveAgainst(dir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, filepath.FromSlash(ref))
}

// AttachmentSize returns the size of an attachment on disk
func AttachmentSize(p string) (int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		return 0, &AttachmentError{Path: p, Op: "stat", Err: err}
	}
	return info.Size(), nil
}
