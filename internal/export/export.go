package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huandu/go-clone"
	"github.com/iksnae/claude-session/internal"
	"github.com/klauspost/compress/zip"
)

// Options controls an export
type Options struct {
	Format Format
	Bundle bool
	// Metadata describes the exported session. The document's createdAt is
	// the export time, not Metadata.CreatedAt.
	Metadata internal.Metadata
	Locale   string
	// Now stamps the document; zero means time.Now()
	Now time.Time
}

// Result describes a finished export
type Result struct {
	Path        string
	Format      Format
	Bundled     bool
	Bytes       int64
	Attachments int
}

// DefaultFilename returns claude_conversation_YYYYMMDD_HHMMSS with the extension for format
func DefaultFilename(format Format, bundle bool, now time.Time) string {
	ext := "json"
	if enc, err := NewEncoder(format, ""); err == nil {
		ext = enc.Extension()
	}
	if bundle {
		ext = "zip"
	}
	return fmt.Sprintf("claude_conversation_%s.%s", now.Format("20060102_150405"), ext)
}

// Export writes turns to dest. The file is written to a temporary sibling
// and renamed into place, so an existing dest is replaced whole or not at all.
func Export(turns []internal.Turn, opts Options, dest string) (*Result, error) {
	enc, err := NewEncoder(opts.Format, opts.Locale)
	if err != nil {
		return nil, &internal.ExportError{Format: string(opts.Format), Path: dest, Err: err}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var snapshot []internal.Turn
	if len(turns) > 0 {
		snapshot = clone.Clone(turns).([]internal.Turn)
	}

	var write func(w io.Writer) (int, error)
	if opts.Bundle {
		write = func(w io.Writer) (int, error) {
			return writeBundle(w, snapshot, enc, opts.Metadata.Model, now, bundleDocumentName(dest, enc))
		}
	} else {
		write = func(w io.Writer) (int, error) {
			doc := BuildDocument(snapshot, opts.Metadata.Model, now, nil)
			return 0, enc.Encode(doc, w)
		}
	}

	size, attachments, err := writeAtomic(dest, write)
	if err != nil {
		return nil, &internal.ExportError{Format: string(opts.Format), Path: dest, Err: err}
	}

	internal.LogDebug("Exported %d turns of a conversation started %s to %s",
		len(snapshot), opts.Metadata.CreatedAt.Format(time.RFC3339), dest)
	return &Result{
		Path:        dest,
		Format:      opts.Format,
		Bundled:     opts.Bundle,
		Bytes:       size,
		Attachments: attachments,
	}, nil
}

// bundleDocumentName names the document inside an archive after the archive itself
func bundleDocumentName(dest string, enc Encoder) string {
	base := filepath.Base(dest)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + enc.Extension()
}

func writeAtomic(dest string, write func(w io.Writer) (int, error)) (int64, int, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	attachments, err := write(tmp)
	if err != nil {
		return 0, 0, err
	}
	if err := tmp.Sync(); err != nil {
		return 0, 0, fmt.Errorf("failed to sync: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, 0, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, 0, fmt.Errorf("failed to move into place: %w", err)
	}
	committed = true

	return info.Size(), attachments, nil
}

// writeBundle writes a zip with the document at its root and attachments
// under img/. When two attachments share a file name the last one wins.
func writeBundle(w io.Writer, turns []internal.Turn, enc Encoder, model string, now time.Time, docName string) (int, error) {
	var order []string
	sources := make(map[string]string)
	for _, turn := range turns {
		if !turn.HasAttachment() {
			continue
		}
		name := internal.ArchivePath(turn.AttachmentPath)
		if _, seen := sources[name]; !seen {
			order = append(order, name)
		}
		sources[name] = turn.AttachmentPath
	}

	var doc bytes.Buffer
	if err := enc.Encode(BuildDocument(turns, model, now, internal.ArchivePath), &doc); err != nil {
		return 0, fmt.Errorf("failed to encode document: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := addEntry(zw, docName, now, bytes.NewReader(doc.Bytes())); err != nil {
		_ = zw.Close()
		return 0, err
	}

	for _, name := range order {
		src := sources[name]
		f, err := os.Open(src)
		if err != nil {
			_ = zw.Close()
			return 0, &internal.AttachmentError{Path: src, Op: "copy", Err: err}
		}
		err = addEntry(zw, name, now, f)
		_ = f.Close()
		if err != nil {
			_ = zw.Close()
			return 0, &internal.AttachmentError{Path: src, Op: "copy", Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish archive: %w", err)
	}
	return len(order), nil
}

func addEntry(zw *zip.Writer, name string, modified time.Time, r io.Reader) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	hdr.SetMode(0644)
	ew, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(ew, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
