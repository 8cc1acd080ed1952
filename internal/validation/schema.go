package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// DocumentValidationError surfaces validation issues with their location in
// the validated document.
type DocumentValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *DocumentValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *DocumentValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var docErr *DocumentValidationError
	if errors.As(err, &docErr) && docErr != nil {
		return docErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// Schema is a compiled JSON schema.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses and compiles a Draft 2020-12 schema document.
func Compile(name string, schema []byte) (*Schema, error) {
	if strings.TrimSpace(name) == "" {
		name = "schema.json"
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// MustCompile is Compile for schemas embedded in the binary.
func MustCompile(name string, schema []byte) *Schema {
	s, err := Compile(name, schema)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks document against the schema. The document is normalised
// through JSON first, so values decoded from YAML validate like JSON input.
func (s *Schema) Validate(document any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	normalized, err := normalizeDocument(document)
	if err != nil {
		return &DocumentValidationError{Cause: err, Issues: []ValidationIssue{{Message: err.Error()}}}
	}
	if err := s.compiled.Validate(normalized); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &DocumentValidationError{Cause: err, Issues: collectValidationIssues(validationErr)}
		}
		return &DocumentValidationError{Cause: err, Issues: []ValidationIssue{{Message: err.Error()}}}
	}
	return nil
}

func normalizeDocument(document any) (any, error) {
	if document == nil {
		return map[string]any{}, nil
	}
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
