package checkpoint

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation indicates the snapshot file does not conform to the
// checkpoint schema.
var ErrSchemaViolation = errors.New("checkpoint schema violation")

// snapshotSchema is the JSON schema gate applied before decoding a snapshot.
// It rejects structurally broken files up front so a truncated or foreign
// JSON document degrades cleanly to "no usable checkpoint".
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "phase", "recipient_count", "counters", "statuses"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "phase": {"type": "integer", "minimum": 1},
    "saved_at": {"type": "string"},
    "recipient_count": {"type": "integer", "minimum": 0},
    "counters": {
      "type": "object",
      "required": ["success", "failed", "skipped"],
      "properties": {
        "success": {"type": "integer", "minimum": 0},
        "failed": {"type": "integer", "minimum": 0},
        "skipped": {"type": "integer", "minimum": 0}
      }
    },
    "statuses": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["address", "amount", "status"],
        "properties": {
          "address": {"type": "string", "minLength": 1},
          "amount": {"type": "string"},
          "status": {"enum": ["pending", "success", "failed", "skipped"]}
        }
      }
    }
  }
}`

// validateSchema checks raw snapshot bytes against the checkpoint schema.
func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(snapshotSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, result.Errors())
	}

	return nil
}
