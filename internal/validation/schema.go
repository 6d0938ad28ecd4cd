// Package validation checks set specs and generated questions against
// embedded JSON Schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/models"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// setSpecSchema is the compiled JSON Schema for set spec YAML files.
var setSpecSchema *jsonschema.Schema

// questionSchema is the compiled JSON Schema for generated questions.
var questionSchema *jsonschema.Schema

func init() {
	setSpecSchema = mustCompileSchema(setSpecSchemaJSON, "setspec.schema.json")
	questionSchema = mustCompileSchema(questionSchemaJSON, "question.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateSetSpecFile validates a set spec YAML file at the given path.
func ValidateSetSpecFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading set spec: %w", err)
	}
	return ValidateSetSpecBytes(data), nil
}

// ValidateSetSpecBytes validates raw YAML bytes against the set spec schema.
func ValidateSetSpecBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	return validateAgainstSchema(setSpecSchema, convertToJSONCompatible(yamlDoc))
}

// CheckQuestion validates one generated question. A non-empty result means
// the question is malformed and should be dropped, not that the job
// failed. Beyond the schema, the answer index must point at one of the
// question's choices.
func CheckQuestion(q models.Question) []string {
	raw, err := json.Marshal(q)
	if err != nil {
		return []string{fmt.Sprintf("encoding question: %v", err)}
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []string{fmt.Sprintf("decoding question: %v", err)}
	}

	errs := validateAgainstSchema(questionSchema, doc)
	if len(q.Choices) > 0 && (q.Answer < 0 || q.Answer >= len(q.Choices)) {
		errs = append(errs, fmt.Sprintf("/answer: index %d out of range for %d choices", q.Answer, len(q.Choices)))
	}
	return errs
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible converts YAML-decoded values to JSON-compatible
// types. yaml.v3 decodes mappings to map[string]any already; this walk
// only normalizes nested containers.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
