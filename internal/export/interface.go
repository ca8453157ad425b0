package export

import (
	"fmt"
	"io"
	"strings"
)

// Format names an export document format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
)

// ParseFormat normalizes a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "structured", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown", "transcript":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", s)
	}
}

// Encoder writes a document in one format
type Encoder interface {
	Encode(doc *Document, w io.Writer) error
	Extension() string
}

// NewEncoder creates an encoder for format. Locale selects the transcript headings.
func NewEncoder(format Format, locale string) (Encoder, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownEncoder{Labels: LabelsFor(locale)}, nil
	case FormatYAML:
		return &YAMLEncoder{}, nil
	case FormatJSON:
		return &JSONEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}
