package handler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/koconnect/koconnect/internal/apperr"
)

// Supported request actions.
const (
	ActionProcess       = "process"
	ActionTranslate     = "translate"
	ActionStyle         = "style"
	ActionExtract       = "extract"
	ActionDiff          = "diff"
	ActionHistoryList   = "history.list"
	ActionHistoryRemove = "history.remove"
	ActionHistoryClear  = "history.clear"
	ActionLanguages     = "languages"
	ActionStyles        = "styles"
)

const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["action"],
  "additionalProperties": false,
  "properties": {
    "action": {
      "enum": ["process", "translate", "style", "extract", "diff",
               "history.list", "history.remove", "history.clear", "languages", "styles"]
    },
    "sessionId":      {"type": "string", "maxLength": 128},
    "text":           {"type": "string"},
    "image":          {"type": "string", "minLength": 1},
    "imageName":      {"type": "string"},
    "sourceLanguage": {"type": "string", "minLength": 1},
    "targetLanguage": {"type": "string", "minLength": 1},
    "style":          {"type": "string"},
    "recordId":       {"type": "string", "minLength": 1},
    "original":       {"type": "string"},
    "transformed":    {"type": "string"},
    "aligned":        {"type": "boolean"},
    "filter": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "targetLanguages": {"type": "array", "items": {"type": "string"}},
        "styles":          {"type": "array", "items": {"type": "string"}}
      }
    }
  },
  "allOf": [
    {
      "if":   {"properties": {"action": {"const": "process"}}},
      "then": {
        "required": ["sourceLanguage", "targetLanguage"],
        "anyOf": [{"required": ["text"]}, {"required": ["image"]}]
      }
    },
    {
      "if":   {"properties": {"action": {"const": "translate"}}},
      "then": {"required": ["text", "sourceLanguage", "targetLanguage"]}
    },
    {
      "if":   {"properties": {"action": {"const": "style"}}},
      "then": {"required": ["text", "style"]}
    },
    {
      "if":   {"properties": {"action": {"const": "extract"}}},
      "then": {"required": ["image"]}
    },
    {
      "if":   {"properties": {"action": {"const": "diff"}}},
      "then": {"required": ["original", "transformed"]}
    },
    {
      "if":   {"properties": {"action": {"const": "history.remove"}}},
      "then": {"required": ["recordId"]}
    }
  ]
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	})
	return schema, schemaErr
}

// validateRequest checks a raw event against the request schema.
func validateRequest(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile request schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return apperr.NewInvalidInputError(fmt.Sprintf("request is not valid JSON: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			// Skip the umbrella "must match then schema" entries.
			if desc.Type() == "condition_then" || desc.Type() == "number_all_of" {
				continue
			}
			errs = append(errs, desc.String())
		}
		return apperr.NewInvalidInputError(strings.Join(errs, "; "))
	}
	return nil
}
