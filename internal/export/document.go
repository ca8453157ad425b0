package export

import (
	"time"

	"github.com/iksnae/claude-session/internal"
)

// Document is the structured form of an exported conversation
type Document struct {
	Metadata     DocumentMetadata `json:"metadata" yaml:"metadata"`
	Conversation []Record         `json:"conversation" yaml:"conversation"`
}

// DocumentMetadata describes the exported conversation
type DocumentMetadata struct {
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
	Model     string `json:"model" yaml:"model"`
	TurnCount int    `json:"turnCount" yaml:"turnCount"`
}

// Record is one turn. Assistant content is always the canonical text.
type Record struct {
	Role      string `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// BuildDocument converts turns into a document. imagePath maps an attachment
// path to the reference written into the document; nil keeps paths as-is.
func BuildDocument(turns []internal.Turn, model string, createdAt time.Time, imagePath func(string) string) *Document {
	doc := &Document{
		Metadata: DocumentMetadata{
			CreatedAt: createdAt.Format(time.RFC3339),
			Model:     model,
			TurnCount: len(turns),
		},
		Conversation: make([]Record, 0, len(turns)),
	}

	for _, turn := range turns {
		rec := Record{Role: string(turn.Role), Content: turn.CanonicalContent}
		if turn.HasAttachment() {
			rec.ImagePath = turn.AttachmentPath
			if imagePath != nil {
				rec.ImagePath = imagePath(turn.AttachmentPath)
			}
		}
		doc.Conversation = append(doc.Conversation, rec)
	}

	return doc
}
