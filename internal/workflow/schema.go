package workflow

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefinitionSchema describes both persisted forms of a definition: a single
// tree node or a flat array of nodes.
const DefinitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "node": {
      "type": "object",
      "required": ["id", "nodeType"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "text": {"type": "string"},
        "nodeType": {"enum": ["delivery", "delay", "condition", "autoreply", "notify"]},
        "deliveryMode": {"enum": ["virtual", "real"]},
        "deliveryContent": {"type": "string"},
        "delayMode": {"enum": ["fixed", "random", "smart"]},
        "delayMs": {"type": "integer", "minimum": 0},
        "delayMinMs": {"type": "integer", "minimum": 0},
        "delayMaxMs": {"type": "integer", "minimum": 0},
        "matchMode": {"enum": ["contains", "exact", "regex"]},
        "keywords": {"type": "string"},
        "expression": {"type": "string"},
        "message": {"type": "string"},
        "children": {"type": "array", "items": {"$ref": "#/definitions/node"}}
      }
    }
  },
  "oneOf": [
    {"$ref": "#/definitions/node"},
    {"type": "array", "items": {"$ref": "#/definitions/node"}}
  ]
}`

var definitionSchema = gojsonschema.NewStringLoader(DefinitionSchema)

// ValidateSchema checks raw definition JSON against DefinitionSchema.
func ValidateSchema(raw []byte) error {
	result, err := gojsonschema.Validate(definitionSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedDefinition, strings.Join(errs, "; "))
	}
	return nil
}
