// Command generate-schema writes the JSON schema of the appshell
// configuration file, for editor completion and validation.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/marmos91/appshell/pkg/config"
)

func main() {
	schemaJSON, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling schema: %v\n", err)
		os.Exit(1)
	}

	outputFile := "config.schema.json"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if err := os.WriteFile(outputFile, schemaJSON, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("JSON schema written to %s\n", outputFile)
}

// generate reflects config.Config into an indented JSON schema. Property
// names follow the yaml tags, which are the keys of the config file.
func generate() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "appshell Configuration"
	schema.Description = "Configuration schema for the appshell sandbox bridge"
	schema.Version = "1.0.0"

	return json.MarshalIndent(schema, "", "  ")
}
