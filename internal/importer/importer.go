// Package importer restores conversations written by the export package.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/claude-session/internal"
	"gopkg.in/yaml.v3"
)

// Options controls an import
type Options struct {
	// ExtractDir receives bundle attachments. Empty means a fresh directory
	// under the system temp dir.
	ExtractDir string
	// Render produces assistant display text; nil uses internal.RenderMarkdown
	Render internal.RenderFunc
}

// Result is a validated conversation ready to install
type Result struct {
	Source     string
	Turns      []internal.Turn
	Metadata   internal.Metadata
	Bundled    bool
	ExtractDir string
}

type documentKind int

const (
	kindJSON documentKind = iota
	kindYAML
	kindTranscript
)

var zipMagic = []byte("PK\x03\x04")

// Import reads source and returns its turns. Nothing is returned unless the
// whole package validates; a directory created for extraction is removed on failure.
func Import(source string, opts Options) (*Result, error) {
	if opts.Render == nil {
		opts.Render = internal.RenderMarkdown
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, &internal.MalformedPackageError{Source: source, Err: err}
	}

	if strings.EqualFold(filepath.Ext(source), ".zip") || bytes.HasPrefix(data, zipMagic) {
		return importBundle(source, data, opts)
	}

	doc, err := decodeDocument(source, data, kindFor(source))
	if err != nil {
		return nil, err
	}
	turns, err := buildTurns(source, doc.records, opts.Render, nil)
	if err != nil {
		return nil, err
	}

	return finish(source, turns, doc.meta, false, ""), nil
}

func kindFor(name string) documentKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return kindYAML
	case ".md", ".markdown":
		return kindTranscript
	default:
		return kindJSON
	}
}

// decoded is a parsed document whose top level passed the shape check
type decoded struct {
	records []any
	meta    map[string]any
}

func decodeDocument(source string, data []byte, kind documentKind) (*decoded, error) {
	var top any
	switch kind {
	case kindTranscript:
		records, err := parseTranscript(string(data))
		if err != nil {
			return nil, &internal.MalformedPackageError{Source: source, Err: err}
		}
		return &decoded{records: records}, nil
	case kindYAML:
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, &internal.MalformedPackageError{Source: source, Err: err}
		}
	default:
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, &internal.MalformedPackageError{Source: source, Err: err}
		}
	}

	switch v := top.(type) {
	case []any:
		return &decoded{records: v}, nil
	case map[string]any:
		coll, ok := v["conversation"]
		if !ok {
			coll, ok = v["turns"]
		}
		if !ok {
			return nil, &internal.InvalidShapeError{Source: source, Found: "no conversation field"}
		}
		records, ok := coll.([]any)
		if !ok {
			return nil, &internal.InvalidShapeError{Source: source, Found: describe(coll)}
		}
		meta, _ := v["metadata"].(map[string]any)
		return &decoded{records: records, meta: meta}, nil
	default:
		return nil, &internal.InvalidShapeError{Source: source, Found: describe(top)}
	}
}

// buildTurns validates every record. resolve rewrites attachment references; nil keeps them.
func buildTurns(source string, records []any, render internal.RenderFunc, resolve func(string) (string, error)) ([]internal.Turn, error) {
	turns := make([]internal.Turn, 0, len(records))
	for i, raw := range records {
		rec, ok := raw.(map[string]any)
		if !ok {
			return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: "expected a mapping, found " + describe(raw)}
		}

		roleStr, ok := rec["role"].(string)
		if !ok {
			return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: "missing or non-string role"}
		}
		content, ok := rec["content"].(string)
		if !ok {
			return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: "missing or non-string content"}
		}
		role, err := internal.ParseRole(roleStr)
		if err != nil {
			return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: err.Error()}
		}

		if role == internal.RoleAssistant {
			turns = append(turns, internal.NewAssistantTurn(content, render))
			continue
		}

		var imagePath string
		if rawPath, present := rec["image_path"]; present && rawPath != nil {
			p, ok := rawPath.(string)
			if !ok {
				return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: "non-string image_path"}
			}
			imagePath = p
		}
		if imagePath != "" && resolve != nil {
			resolved, err := resolve(imagePath)
			if err != nil {
				return nil, &internal.InvalidTurnError{Source: source, Index: i, Reason: err.Error()}
			}
			imagePath = resolved
		}
		turns = append(turns, internal.NewUserTurn(content, imagePath))
	}
	return turns, nil
}

func finish(source string, turns []internal.Turn, meta map[string]any, bundled bool, extractDir string) *Result {
	res := &Result{
		Source:     source,
		Turns:      turns,
		Metadata:   parseMetadata(meta),
		Bundled:    bundled,
		ExtractDir: extractDir,
	}
	if res.Metadata.TurnCount != 0 && res.Metadata.TurnCount != len(turns) {
		internal.LogWarn("%s declares %d turns but holds %d", source, res.Metadata.TurnCount, len(turns))
	}
	res.Metadata.TurnCount = len(turns)

	if err := internal.NewLedgerFromTurns(turns, nil).CheckAlternation(); err != nil {
		internal.LogWarn("%s: turns do not alternate: %v", source, err)
	}
	return res
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseMetadata accepts both camelCase and snake_case keys
func parseMetadata(meta map[string]any) internal.Metadata {
	var md internal.Metadata
	if meta == nil {
		return md
	}

	md.Model, _ = meta["model"].(string)

	created := firstString(meta, "createdAt", "created_at")
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, created, time.Local); err == nil {
			md.CreatedAt = t
			break
		}
	}
	if created != "" && md.CreatedAt.IsZero() {
		internal.LogDebug("Ignoring unparseable createdAt %q", created)
	}

	for _, key := range []string{"turnCount", "total_messages"} {
		switch n := meta[key].(type) {
		case float64:
			md.TurnCount = int(n)
		case int:
			md.TurnCount = n
		default:
			continue
		}
		break
	}
	return md
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
