package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidArguments is returned when a tool-call payload is not valid JSON
// or does not match the tool's parameter schema.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// SchemaFor reflects a Go input struct into a JSON schema object suitable for
// a function-calling "parameters" block. Definitions are inlined and the
// $schema/$id keys dropped since chat APIs expect a bare object schema.
func SchemaFor(input any) map[string]any {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(input))
	if err != nil {
		return map[string]any{"type": "object"}
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema
}

// ParseArguments normalises a raw tool-call payload. An empty, blank or
// "null" payload means no arguments and becomes an empty object.
func ParseArguments(payload string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("%w: payload is not valid JSON: %q", ErrInvalidArguments, payload)
	}
	return json.RawMessage(trimmed), nil
}

func compileSchema(name string, params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}

	schema, err := jsonschema.CompileString("mem://tools/"+name+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	return schema, nil
}

func validateArguments(schema *jsonschema.Schema, args json.RawMessage) error {
	var value interface{}
	if err := json.Unmarshal(args, &value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
