package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/internal/export"
	"github.com/iksnae/claude-session/testutil"
)

func TestImport_StructuredJSON(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	src := testutil.WriteFile(t, dir, "conv.json", []byte(testutil.ConversationJSON))

	res, err := Import(src, Options{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(res.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2", len(res.Turns))
	}

	user := res.Turns[0]
	if user.Role != internal.RoleUser || user.AttachmentPath != "img/a.png" {
		t.Errorf("user turn = %+v, want bare document path passed through", user)
	}
	assistant := res.Turns[1]
	if assistant.CanonicalContent != "# Hi\n\nA **red** pixel." {
		t.Errorf("CanonicalContent = %q", assistant.CanonicalContent)
	}
	if assistant.DisplayContent != "Hi\n\nA red pixel." {
		t.Errorf("DisplayContent = %q", assistant.DisplayContent)
	}

	if res.Metadata.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q", res.Metadata.Model)
	}
	if !res.Metadata.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", res.Metadata.CreatedAt)
	}
	if res.Bundled {
		t.Error("Bundled = true for a bare document")
	}
}

func TestImport_AcceptedShapes(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		turns int
	}{
		{"bare array", "a.json", `[{"role":"user","content":"hi"},{"role":"assistant","content":"yo"}]`, 2},
		{"turns key", "b.json", `{"turns":[{"role":"user","content":"hi"}]}`, 1},
		{"snake case metadata", "c.json", `{"metadata":{"created_at":"2025-01-02T03:04:05.123456","model":"m","total_messages":2},"conversation":[{"role":"user","content":"q","image_path":null},{"role":"assistant","content":"a"}]}`, 2},
		{"empty conversation", "d.json", `{"conversation":[]}`, 0},
		{"yaml", "e.yaml", "metadata:\n  model: m\n  turnCount: 2\nconversation:\n  - role: user\n    content: hi\n  - role: assistant\n    content: \"**yo**\"\n", 2},
		{"permissive alternation", "f.json", `[{"role":"user","content":"a"},{"role":"user","content":"b"}]`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testutil.WriteFile(t, testutil.CreateTempDir(t), tt.file, []byte(tt.body))
			res, err := Import(src, Options{})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if len(res.Turns) != tt.turns {
				t.Errorf("len(Turns) = %d, want %d", len(res.Turns), tt.turns)
			}
			if res.Metadata.TurnCount != tt.turns {
				t.Errorf("TurnCount = %d, want %d", res.Metadata.TurnCount, tt.turns)
			}
		})
	}
}

func TestImport_SnakeCaseMetadata(t *testing.T) {
	body := `{"metadata":{"created_at":"2025-01-02T03:04:05.123456","model":"old-model","total_messages":1},"conversation":[{"role":"user","content":"q"}]}`
	src := testutil.WriteFile(t, testutil.CreateTempDir(t), "c.json", []byte(body))

	res, err := Import(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata.Model != "old-model" {
		t.Errorf("Model = %q", res.Metadata.Model)
	}
	if res.Metadata.CreatedAt.IsZero() || res.Metadata.CreatedAt.Year() != 2025 {
		t.Errorf("CreatedAt = %v", res.Metadata.CreatedAt)
	}
}

func TestImport_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		body      string
		check     func(err error) bool
		wantIndex int
	}{
		{
			name:  "syntax error",
			file:  "a.json",
			body:  `{"conversation": [`,
			check: func(err error) bool { var e *internal.MalformedPackageError; return errors.As(err, &e) },
		},
		{
			name:  "yaml syntax error",
			file:  "a.yaml",
			body:  "conversation: [unterminated",
			check: func(err error) bool { var e *internal.MalformedPackageError; return errors.As(err, &e) },
		},
		{
			name:  "conversation is object",
			file:  "b.json",
			body:  `{"conversation": {"role": "user", "content": "hi"}}`,
			check: func(err error) bool { var e *internal.InvalidShapeError; return errors.As(err, &e) },
		},
		{
			name:  "no conversation",
			file:  "c.json",
			body:  `{"metadata": {}}`,
			check: func(err error) bool { var e *internal.InvalidShapeError; return errors.As(err, &e) },
		},
		{
			name:  "scalar document",
			file:  "d.json",
			body:  `"hello"`,
			check: func(err error) bool { var e *internal.InvalidShapeError; return errors.As(err, &e) },
		},
		{
			name:      "missing content",
			file:      "e.json",
			body:      `{"conversation": [{"role": "user", "content": "ok"}, {"role": "assistant", "content": "fine"}, {"role": "user"}]}`,
			check:     func(err error) bool { var e *internal.InvalidTurnError; return errors.As(err, &e) },
			wantIndex: 2,
		},
		{
			name:      "unknown role",
			file:      "f.json",
			body:      `[{"role": "system", "content": "x"}]`,
			check:     func(err error) bool { var e *internal.InvalidTurnError; return errors.As(err, &e) },
			wantIndex: 0,
		},
		{
			name:      "element not a mapping",
			file:      "g.json",
			body:      `[{"role": "user", "content": "x"}, "oops"]`,
			check:     func(err error) bool { var e *internal.InvalidTurnError; return errors.As(err, &e) },
			wantIndex: 1,
		},
		{
			name:      "non-string content",
			file:      "h.json",
			body:      `[{"role": "user", "content": 5}]`,
			check:     func(err error) bool { var e *internal.InvalidTurnError; return errors.As(err, &e) },
			wantIndex: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testutil.WriteFile(t, testutil.CreateTempDir(t), tt.file, []byte(tt.body))
			res, err := Import(src, Options{})
			if res != nil {
				t.Errorf("Import() returned a result alongside error %v", err)
			}
			if !tt.check(err) {
				t.Fatalf("Import() error = %v (%T)", err, err)
			}
			var turnErr *internal.InvalidTurnError
			if errors.As(err, &turnErr) && turnErr.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", turnErr.Index, tt.wantIndex)
			}
		})
	}
}

func TestImport_MissingSource(t *testing.T) {
	_, err := Import(filepath.Join(testutil.CreateTempDir(t), "nope.json"), Options{})
	var e *internal.MalformedPackageError
	if !errors.As(err, &e) {
		t.Fatalf("Import() error = %v, want MalformedPackageError", err)
	}
}

func TestImport_RoundTripStructured(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	img := testutil.CreatePNGFixture(t, dir, "a.png")

	ledger := internal.NewLedger(nil)
	if _, err := ledger.AppendUser("what is this", img); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AppendAssistant("# Title\n\n- one\n- two"); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AppendUser("thanks", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AppendAssistant("`np`"); err != nil {
		t.Fatal(err)
	}
	original := ledger.Turns()

	for _, format := range []export.Format{export.FormatJSON, export.FormatYAML, export.FormatMarkdown} {
		t.Run(string(format), func(t *testing.T) {
			dest := filepath.Join(dir, "conv."+string(format))
			if _, err := export.Export(original, export.Options{Format: format, Metadata: internal.Metadata{Model: "m"}}, dest); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			res, err := Import(dest, Options{})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if len(res.Turns) != len(original) {
				t.Fatalf("len(Turns) = %d, want %d", len(res.Turns), len(original))
			}
			for i := range original {
				if res.Turns[i] != original[i] {
					t.Errorf("turn %d = %+v, want %+v", i, res.Turns[i], original[i])
				}
			}
		})
	}
}

func TestImport_RoundTripLeadingNewlines(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	original := []internal.Turn{
		internal.NewUserTurn("\n\nhi", ""),
		internal.NewAssistantTurn("\n\n# Title\nbody", nil),
	}

	for _, format := range []export.Format{export.FormatJSON, export.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			dest := filepath.Join(dir, "lead."+string(format))
			if _, err := export.Export(original, export.Options{Format: format, Metadata: internal.Metadata{Model: "m"}}, dest); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			res, err := Import(dest, Options{})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			for i := range original {
				if res.Turns[i].CanonicalContent != original[i].CanonicalContent {
					t.Errorf("turn %d canonical = %q, want %q", i, res.Turns[i].CanonicalContent, original[i].CanonicalContent)
				}
			}
		})
	}
}

func TestImport_Bundle(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	img := testutil.CreatePNGFixture(t, dir, "a.png")
	turns := []internal.Turn{
		internal.NewUserTurn("see", img),
		internal.NewAssistantTurn("ok", nil),
	}

	for _, format := range []export.Format{export.FormatJSON, export.FormatMarkdown} {
		t.Run(string(format), func(t *testing.T) {
			archive := filepath.Join(dir, "bundle-"+string(format)+".zip")
			if _, err := export.Export(turns, export.Options{Format: format, Bundle: true, Metadata: internal.Metadata{Model: "m"}}, archive); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			extractDir := filepath.Join(testutil.CreateTempDir(t), "x")
			res, err := Import(archive, Options{ExtractDir: extractDir})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if !res.Bundled || res.ExtractDir != extractDir {
				t.Errorf("Result = %+v", res)
			}

			want, _ := filepath.Abs(filepath.Join(extractDir, "img", "a.png"))
			if res.Turns[0].AttachmentPath != want {
				t.Errorf("AttachmentPath = %q, want %q", res.Turns[0].AttachmentPath, want)
			}
			extracted, err := os.ReadFile(want)
			if err != nil {
				t.Fatalf("attachment not extracted: %v", err)
			}
			source, _ := os.ReadFile(img)
			if string(extracted) != string(source) {
				t.Error("extracted attachment differs from source")
			}
		})
	}
}

func TestImport_BundleByMagic(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	src := testutil.CreateZipFixture(t, dir, "bundle.dat", map[string][]byte{
		"conv.json": []byte(`[{"role":"user","content":"hi"}]`),
	}, nil)

	res, err := Import(src, Options{ExtractDir: filepath.Join(dir, "x")})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !res.Bundled || len(res.Turns) != 1 {
		t.Errorf("Result = %+v", res)
	}
}

func TestImport_BundleFailuresCleanUp(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]byte
		order []string
		check func(err error) bool
	}{
		{
			name: "path traversal",
			files: map[string][]byte{
				"conv.json":          []byte(`[{"role":"user","content":"hi"}]`),
				"img/../../evil.png": []byte("x"),
			},
			order: []string{"conv.json", "img/../../evil.png"},
			check: func(err error) bool {
				var e *internal.MalformedPackageError
				return errors.As(err, &e)
			},
		},
		{
			name: "no root document",
			files: map[string][]byte{
				"img/a.png": []byte("x"),
			},
			check: func(err error) bool { var e *internal.MalformedPackageError; return errors.As(err, &e) },
		},
		{
			name: "malformed turn",
			files: map[string][]byte{
				"conv.json": []byte(`{"conversation":[{"role":"user"}]}`),
				"img/a.png": []byte("x"),
			},
			order: []string{"conv.json", "img/a.png"},
			check: func(err error) bool { var e *internal.InvalidTurnError; return errors.As(err, &e) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.CreateTempDir(t)
			src := testutil.CreateZipFixture(t, dir, "bundle.zip", tt.files, tt.order)
			extractDir := filepath.Join(dir, "extract")

			res, err := Import(src, Options{ExtractDir: extractDir})
			if res != nil {
				t.Error("Import() returned a result on failure")
			}
			if !tt.check(err) {
				t.Fatalf("Import() error = %v (%T)", err, err)
			}
			if _, statErr := os.Stat(extractDir); !os.IsNotExist(statErr) {
				t.Errorf("extraction dir left behind: %v", statErr)
			}
			if _, statErr := os.Stat(filepath.Join(dir, "evil.png")); !os.IsNotExist(statErr) {
				t.Error("entry written outside the extraction dir")
			}
		})
	}
}

func TestImport_BundleFailureRestoresExistingFiles(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	extractDir := filepath.Join(dir, "extract")
	mine := filepath.Join(extractDir, "img", "a.png")
	if err := os.MkdirAll(filepath.Dir(mine), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mine, []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}
	// A directory where the archive wants a file makes the second write fail
	if err := os.MkdirAll(filepath.Join(extractDir, "img", "b.png"), 0755); err != nil {
		t.Fatal(err)
	}

	src := testutil.CreateZipFixture(t, dir, "bundle.zip", map[string][]byte{
		"conv.json": []byte(`[{"role":"user","content":"hi","image_path":"img/a.png"}]`),
		"img/a.png": []byte("theirs"),
		"img/b.png": []byte("x"),
	}, []string{"conv.json", "img/a.png", "img/b.png"})

	_, err := Import(src, Options{ExtractDir: extractDir})
	var e *internal.MalformedPackageError
	if !errors.As(err, &e) {
		t.Fatalf("Import() error = %v, want MalformedPackageError", err)
	}

	data, err := os.ReadFile(mine)
	if err != nil {
		t.Fatalf("existing file removed: %v", err)
	}
	if string(data) != "mine" {
		t.Errorf("existing file = %q, want it restored", data)
	}
}

func TestImport_NotAZip(t *testing.T) {
	src := testutil.WriteFile(t, testutil.CreateTempDir(t), "broken.zip", []byte("PK\x03\x04 not really"))
	_, err := Import(src, Options{})
	var e *internal.MalformedPackageError
	if !errors.As(err, &e) {
		t.Fatalf("Import() error = %v, want MalformedPackageError", err)
	}
}

func TestSecureJoinUnderBase(t *testing.T) {
	base := testutil.CreateTempDir(t)
	tests := []struct {
		rel     string
		wantErr bool
	}{
		{"img/a.png", false},
		{"img/sub/../a.png", false},
		{"../a.png", true},
		{"img/../../a.png", true},
		{"/etc/passwd", true},
		{".", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			_, err := secureJoinUnderBase(base, tt.rel)
			if (err != nil) != tt.wantErr {
				t.Errorf("secureJoinUnderBase(%q) error = %v, wantErr %v", tt.rel, err, tt.wantErr)
			}
		})
	}
}

func TestImport_LegacyExport(t *testing.T) {
	res, err := Import(filepath.Join("testdata", "legacy_export.json"), Options{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(res.Turns) != 4 || res.Metadata.TurnCount != 4 {
		t.Fatalf("len(Turns) = %d, TurnCount = %d", len(res.Turns), res.Metadata.TurnCount)
	}
	if res.Metadata.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("Model = %q", res.Metadata.Model)
	}
	if got := res.Metadata.CreatedAt.Format("2006-01-02 15:04"); got != "2024-11-05 14:03" {
		t.Errorf("CreatedAt = %s", got)
	}
	for i, turn := range res.Turns {
		if turn.HasAttachment() {
			t.Errorf("turn %d has attachment %q from a null image_path", i, turn.AttachmentPath)
		}
	}
	if !strings.Contains(res.Turns[1].CanonicalContent, "```python") {
		t.Errorf("assistant canonical = %q, want the Markdown kept", res.Turns[1].CanonicalContent)
	}
}

func TestImport_TranscriptFixture(t *testing.T) {
	data := testutil.LoadFixture(t, "transcript_ja.md")

	tests := []struct {
		name string
		data []byte
	}{
		{"unix line endings", data},
		{"windows line endings", []byte(strings.ReplaceAll(string(data), "\n", "\r\n"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testutil.WriteFile(t, testutil.CreateTempDir(t), "transcript.md", tt.data)
			res, err := Import(src, Options{})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if len(res.Turns) != 4 {
				t.Fatalf("len(Turns) = %d, want 4", len(res.Turns))
			}
			if res.Turns[0].AttachmentPath != "img/cat.png" || res.Turns[0].CanonicalContent != "この画像は何ですか？" {
				t.Errorf("first turn = %+v", res.Turns[0])
			}
			if res.Turns[1].CanonicalContent != "**猫**の写真です。\n\n- 白い\n- 小さい" {
				t.Errorf("answer = %q", res.Turns[1].CanonicalContent)
			}
			if res.Turns[3].CanonicalContent != "わかりません。" {
				t.Errorf("last answer = %q", res.Turns[3].CanonicalContent)
			}
		})
	}
}

func TestImport_NonStringImagePath(t *testing.T) {
	records := []map[string]any{
		{"role": "user", "content": "q", "image_path": 42},
	}
	src := testutil.WriteFile(t, testutil.CreateTempDir(t), "c.json", testutil.JSONMarshal(t, records))

	_, err := Import(src, Options{})
	var e *internal.InvalidTurnError
	if !errors.As(err, &e) || !strings.Contains(e.Reason, "image_path") {
		t.Fatalf("Import() error = %v, want InvalidTurnError about image_path", err)
	}
}
