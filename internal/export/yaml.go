package export

import (
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLEncoder writes documents as YAML
type YAMLEncoder struct{}

// Encode writes doc as YAML
func (e *YAMLEncoder) Encode(doc *Document, w io.Writer) error {
	var root yaml.Node
	if err := root.Encode(doc); err != nil {
		return err
	}
	quoteLeadingNewlines(&root)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// quoteLeadingNewlines double-quotes strings that begin with a line break.
// Block scalars drop one of those breaks when read back.
func quoteLeadingNewlines(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.HasPrefix(n.Value, "\n") {
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, child := range n.Content {
		quoteLeadingNewlines(child)
	}
}

// Extension returns the file extension for this format
func (e *YAMLEncoder) Extension() string {
	return "yaml"
}
