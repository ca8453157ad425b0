package export

import (
	"encoding/json"
	"io"
)

// JSONEncoder writes documents as pretty-printed JSON
type JSONEncoder struct{}

// Encode writes doc as JSON
func (e *JSONEncoder) Encode(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *JSONEncoder) Extension() string {
	return "json"
}
