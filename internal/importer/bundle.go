package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/iksnae/claude-session/internal"
	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned for archive entries that would land outside the extraction dir
var ErrUnsafePath = errors.New("unsafe archive path")

// maxEntrySize bounds a single extracted attachment
const maxEntrySize = 64 << 20

var documentPreference = []string{".json", ".yaml", ".yml", ".md"}

func importBundle(source string, data []byte, opts Options) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &internal.MalformedPackageError{Source: source, Err: err}
	}

	docFile, err := findDocument(zr)
	if err != nil {
		return nil, &internal.MalformedPackageError{Source: source, Err: err}
	}
	docData, err := readEntry(docFile)
	if err != nil {
		return nil, &internal.MalformedPackageError{Source: source, Err: err}
	}

	docSource := source + "!" + docFile.Name
	doc, err := decodeDocument(docSource, docData, kindFor(docFile.Name))
	if err != nil {
		return nil, err
	}

	extractDir := opts.ExtractDir
	if extractDir == "" {
		extractDir = filepath.Join(os.TempDir(), "claude-session", uuid.NewString())
	}
	x := &extractor{dir: extractDir}
	ok := false
	defer func() {
		if !ok {
			x.rollback()
		}
	}()

	resolve := func(ref string) (string, error) {
		if !internal.IsArchiveRef(ref) {
			return ref, nil
		}
		return secureJoinUnderBase(extractDir, filepath.FromSlash(ref))
	}
	turns, err := buildTurns(docSource, doc.records, opts.Render, resolve)
	if err != nil {
		return nil, err
	}

	if err := x.prepare(); err != nil {
		return nil, &internal.MalformedPackageError{Source: source, Err: err}
	}
	for _, f := range zr.File {
		if _, err := secureJoinUnderBase(x.absDir, filepath.FromSlash(f.Name)); err != nil {
			return nil, &internal.MalformedPackageError{Source: source, Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !internal.IsArchiveRef(f.Name) {
			continue
		}
		if err := x.extract(f); err != nil {
			return nil, &internal.MalformedPackageError{Source: source, Err: err}
		}
	}

	for i, turn := range turns {
		if turn.HasAttachment() && strings.HasPrefix(turn.AttachmentPath, x.absDir) {
			if _, err := os.Stat(turn.AttachmentPath); err != nil {
				internal.LogWarn("Turn %d references %s which is not in the archive", i, turn.AttachmentPath)
			}
		}
	}

	ok = true
	internal.LogDebug("Extracted %d attachments from %s to %s", len(x.written), source, extractDir)
	return finish(source, turns, doc.meta, true, extractDir), nil
}

// findDocument picks the root-level document, preferring structured formats
func findDocument(zr *zip.Reader) (*zip.File, error) {
	byExt := make(map[string]*zip.File)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.Contains(strings.TrimPrefix(f.Name, "./"), "/") {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if _, seen := byExt[ext]; !seen {
			byExt[ext] = f
		}
	}
	for _, ext := range documentPreference {
		if f, ok := byExt[ext]; ok {
			return f, nil
		}
	}
	return nil, errors.New("archive has no conversation document at its root")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return data, nil
}

// extractor writes archive entries and can undo its work. Files it
// overwrites are kept in memory so rollback can put them back.
type extractor struct {
	dir      string
	absDir   string
	created  bool
	written  []string
	replaced map[string][]byte
}

func (x *extractor) prepare() error {
	abs, err := filepath.Abs(x.dir)
	if err != nil {
		return fmt.Errorf("resolve extraction dir: %w", err)
	}
	x.absDir = abs
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		x.created = true
	}
	return os.MkdirAll(abs, 0755)
}

func (x *extractor) extract(f *zip.File) error {
	target, err := secureJoinUnderBase(x.absDir, filepath.FromSlash(f.Name))
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	data, err := readEntry(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if prev, err := os.ReadFile(target); err == nil {
		if x.replaced == nil {
			x.replaced = make(map[string][]byte)
		}
		x.replaced[target] = prev
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return err
	}
	x.written = append(x.written, target)
	return nil
}

func (x *extractor) rollback() {
	if x.absDir == "" {
		return
	}
	if x.created {
		_ = os.RemoveAll(x.absDir)
		return
	}
	for _, p := range x.written {
		if prev, ok := x.replaced[p]; ok {
			if err := os.WriteFile(p, prev, 0644); err != nil {
				internal.LogWarn("Failed to restore %s: %v", p, err)
			}
			continue
		}
		_ = os.Remove(p)
	}
}

// secureJoinUnderBase resolves relPath under baseDir and rejects traversal or absolute paths
func secureJoinUnderBase(baseDir, relPath string) (string, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base dir: %w", err)
	}

	cleanRel := filepath.Clean(relPath)
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(relPath, "/") {
		return "", fmt.Errorf("%w: absolute paths are not allowed", ErrUnsafePath)
	}
	if cleanRel == "." || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: parent traversal is not allowed", ErrUnsafePath)
	}

	candidate := filepath.Join(baseAbs, cleanRel)
	rel, err := filepath.Rel(baseAbs, candidate)
	if err != nil {
		return "", fmt.Errorf("compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes base dir", ErrUnsafePath)
	}
	return candidate, nil
}
