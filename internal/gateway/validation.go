// internal/gateway/validation.go
package gateway

import (
	"encoding/json"
	"strings"

	stderrors "jobmatch-notifier/internal/common/errors"
	"jobmatch-notifier/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema validates the inbound change-event envelope. The record
// identifiers are required here so malformed events fail at the boundary
// instead of inside a queued task.
const payloadSchema = `{
	"type": "object",
	"required": ["type", "table", "record"],
	"properties": {
		"type":   {"type": "string", "minLength": 1},
		"table":  {"type": "string", "minLength": 1},
		"schema": {"type": "string"},
		"record": {
			"type": "object",
			"required": ["cand_id", "requirement_id"],
			"properties": {
				"cand_id":        {"type": "integer", "minimum": 1},
				"requirement_id": {"type": "string", "minLength": 1}
			}
		}
	}
}`

var compiledSchema = gojsonschema.NewStringLoader(payloadSchema)

// ValidatePayload checks the raw body against the payload schema and
// decodes it. Returns a PAYLOAD_VALIDATION_FAILED error on any problem.
func ValidatePayload(body []byte) (*models.WebhookPayload, error) {
	if len(body) == 0 {
		return nil, stderrors.NewPayloadValidationError("empty request body")
	}

	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, stderrors.NewPayloadValidationError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, stderrors.NewPayloadValidationError(strings.Join(details, "; "))
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, stderrors.NewPayloadValidationError(err.Error())
	}
	return &payload, nil
}
