package export

import (
	"fmt"
	"io"
	"strings"
)

// Labels are the transcript headings for one locale
type Labels struct {
	Question   string
	Answer     string
	Attachment string
}

var (
	japaneseLabels = Labels{Question: "質問", Answer: "回答", Attachment: "添付画像"}
	englishLabels  = Labels{Question: "Question ", Answer: "Answer ", Attachment: "attachment"}
)

// LabelsFor returns the transcript labels for locale; anything but "en" is Japanese
func LabelsFor(locale string) Labels {
	if locale == "en" {
		return englishLabels
	}
	return japaneseLabels
}

// MarkdownEncoder writes documents as a question/answer transcript
type MarkdownEncoder struct {
	Labels Labels
}

// Encode writes doc as a transcript. Each user turn opens a numbered
// question section; the reply that follows shares its number.
func (e *MarkdownEncoder) Encode(doc *Document, w io.Writer) error {
	labels := e.Labels
	if labels.Question == "" {
		labels = japaneseLabels
	}

	var lines []string
	pair := 0
	for _, rec := range doc.Conversation {
		if rec.Role == "user" {
			pair++
			lines = append(lines, fmt.Sprintf("## %s%d\n%s", labels.Question, pair, rec.Content))
			if rec.ImagePath != "" {
				lines = append(lines, fmt.Sprintf("![%s](%s)", labels.Attachment, rec.ImagePath))
			}
		} else {
			lines = append(lines, fmt.Sprintf("## %s%d\n%s", labels.Answer, pair, rec.Content))
		}
	}

	out := strings.Join(lines, "\n")
	if out != "" {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

// Extension returns the file extension for this format
func (e *MarkdownEncoder) Extension() string {
	return "md"
}
