package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// LoadConfig loads a configuration file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Fields absent from the file keep their Default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses and validates configuration data.
//
// The format is determined by the file extension in path, or defaults to
// YAML if the path is empty or has an unknown extension. The document is
// checked against the embedded JSON schema before it is decoded.
func ParseConfig(data []byte, path string) (*Config, error) {
	isJSON := strings.ToLower(filepath.Ext(path)) == ".json"

	doc, err := decodeDocument(data, isJSON)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	if isJSON {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// decodeDocument returns data as JSON-typed values for schema validation.
func decodeDocument(data []byte, isJSON bool) (interface{}, error) {
	if isJSON {
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		return doc, nil
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if raw == nil {
		return map[string]interface{}{}, nil
	}

	// Round-trip through JSON so numbers and maps have the types the
	// schema validator expects.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return doc, nil
}

func validateSchema(doc interface{}) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	return errs
}

// collectSchemaErrors flattens the cause tree into its leaves.
func collectSchemaErrors(verr *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(verr.Causes) == 0 {
		errs.Add(instanceField(verr.InstanceLocation), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// instanceField converts a JSON pointer such as /fork/size to fork.size.
func instanceField(loc string) string {
	return strings.ReplaceAll(strings.TrimPrefix(loc, "/"), "/", ".")
}
