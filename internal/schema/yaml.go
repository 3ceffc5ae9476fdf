package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML renders the schema as a YAML document.
func (s *Schema) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}
