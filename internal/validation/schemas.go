package validation

// setSpecSchemaJSON is the embedded JSON Schema for set spec YAML files.
// Kind-specific cross-field rules (vocabulary needs terms, comprehensive
// needs basic_types, ...) live in models.SetSpec.Validate; the schema
// covers structure and enums.
const setSpecSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Set Spec",
  "type": "object",
  "required": ["name", "kind", "config"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "kind": {"enum": ["vocabulary", "paragraph", "comprehensive"]},
    "context": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "division": {"type": "string"},
        "subject": {"type": "string"},
        "area": {"type": "string"}
      }
    },
    "config": {
      "type": "object",
      "required": ["model"],
      "additionalProperties": false,
      "properties": {
        "model": {"type": "string", "minLength": 1},
        "endpoint": {"type": "string"},
        "executor": {"enum": ["http", "mock"]},
        "timeout_seconds": {"type": "integer", "minimum": 0},
        "max_in_flight": {"type": "integer", "minimum": 0}
      }
    },
    "terms": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "paragraphs": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1}
    },
    "question_types": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "additionalProperties": false,
        "properties": {
          "type": {
            "enum": ["meaning", "usage", "synonym", "antonym", "topic", "detail", "inference", "vocab_in_text"]
          },
          "config": {"type": "object"}
        }
      }
    },
    "comprehensive": {
      "type": "object",
      "required": ["basic_types"],
      "additionalProperties": false,
      "properties": {
        "basic_types": {
          "type": "array",
          "minItems": 1,
          "items": {
            "enum": ["meaning", "usage", "synonym", "antonym", "topic", "detail", "inference", "vocab_in_text"]
          }
        },
        "supplementary": {"type": "boolean"},
        "per_parent": {"type": "integer", "minimum": 1}
      }
    }
  }
}`

// questionSchemaJSON is the embedded JSON Schema for one generated
// question as it arrives from the backend.
const questionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Generated Question",
  "type": "object",
  "required": ["type", "prompt", "answer"],
  "properties": {
    "id": {"type": "string"},
    "groupKey": {"type": "string"},
    "type": {
      "enum": ["meaning", "usage", "synonym", "antonym", "topic", "detail", "inference", "vocab_in_text"]
    },
    "prompt": {"type": "string", "minLength": 1},
    "choices": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "string"}
    },
    "answer": {"type": "integer", "minimum": 0},
    "explanation": {"type": "string"},
    "supplementary": {"type": "boolean"},
    "parentId": {"type": "string"}
  }
}`
