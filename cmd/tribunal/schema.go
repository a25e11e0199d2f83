package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/tribunal/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs, for editor
// completion of tribunal.yaml.
type SchemaCmd struct {
	// Compact enables compact JSON output (no indentation)
	Compact bool `help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run() error {
	return c.write(os.Stdout)
}

func (c *SchemaCmd) write(w io.Writer) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/kadirpekel/tribunal/schemas/config.json"
	schema.Title = "Tribunal Configuration Schema"
	schema.Description = "Configuration of the tribunal historical court"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []any{
		map[string]any{
			"model": map[string]any{
				"provider": "gemini",
				"name":     "gemini-2.5-flash",
				"api_key":  "${GOOGLE_API_KEY}",
			},
			"court": map[string]any{
				"max_iterations": 4,
				"limit_policy":   "flag",
			},
		},
	}

	encoder := json.NewEncoder(w)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
