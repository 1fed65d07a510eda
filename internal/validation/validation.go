package validation

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed *.json
var schemaFS embed.FS

// Embedded schema names
const (
	ProjectSchema  = "sas-analyzer-yml.json"    // .sas-analyzer.yml
	AnalysisSchema = "sas-analyzer-config.json" // --config file
)

// ValidationError represents a schema validation error
type ValidationError struct {
	Errors []string
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ValidateJSON validates a data structure against an embedded JSON schema
// schemaName should be the filename of the schema (e.g., AnalysisSchema)
// data should be the parsed YAML/JSON data as interface{}
func ValidateJSON(schemaName string, data interface{}) error {
	// Load schema from embedded filesystem
	schemaData, err := schemaFS.ReadFile(schemaName)
	if err != nil {
		return fmt.Errorf("failed to load schema %s: %w", schemaName, err)
	}

	// Compile schema
	schema, err := jsonschema.CompileString(schemaName, string(schemaData))
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", schemaName, err)
	}

	// Validate data
	err = schema.Validate(data)
	if err != nil {
		// Extract validation errors
		var validationErrors []string
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			validationErrors = leafMessages(validationErr, validationErrors)
		} else {
			validationErrors = append(validationErrors, err.Error())
		}
		return ValidationError{Errors: validationErrors}
	}

	return nil
}

// leafMessages collects the innermost causes, prefixed with their location
func leafMessages(err *jsonschema.ValidationError, messages []string) []string {
	if len(err.Causes) == 0 {
		if err.InstanceLocation == "" {
			return append(messages, err.Message)
		}
		return append(messages, err.InstanceLocation+": "+err.Message)
	}
	for _, cause := range err.Causes {
		messages = leafMessages(cause, messages)
	}
	return messages
}

// ValidateYAML validates YAML content against an embedded JSON schema
// schemaName should be the filename of the schema (e.g., AnalysisSchema)
// yamlContent should be the raw YAML content as bytes
func ValidateYAML(schemaName string, yamlContent []byte) error {
	// Parse YAML content
	var data interface{}
	if err := yaml.Unmarshal(yamlContent, &data); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	// an empty document is an empty mapping
	if data == nil {
		data = map[string]interface{}{}
	}

	return ValidateJSON(schemaName, data)
}

// ValidateYAMLFile validates a YAML file against an embedded JSON schema
// schemaName should be the filename of the schema (e.g., AnalysisSchema)
// filePath should be the path to the YAML file to validate
func ValidateYAMLFile(schemaName string, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return ValidateYAML(schemaName, content)
}

// ValidateStruct validates a Go struct against an embedded JSON schema
// schemaName should be the filename of the schema (e.g., AnalysisSchema)
// structData should be the Go struct to validate
func ValidateStruct(schemaName string, structData interface{}) error {
	// Convert struct to YAML, then to interface{} for consistent validation
	yamlContent, err := yaml.Marshal(structData)
	if err != nil {
		return fmt.Errorf("failed to marshal struct: %w", err)
	}

	return ValidateYAML(schemaName, yamlContent)
}

// ListAvailableSchemas returns a list of available schema filenames
func ListAvailableSchemas() ([]string, error) {
	entries, err := schemaFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var schemas []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			schemas = append(schemas, entry.Name())
		}
	}

	return schemas, nil
}
