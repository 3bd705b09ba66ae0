package vault

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validateSchema checks that value (a JSON object for user-defined
// credentials) satisfies every field rule in schema, using
// validator.v10's single-field Var validation per key.
func validateSchema(v *validator.Validate, schema *Schema, value string) error {
	var payload map[string]any
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return fmt.Errorf("user-defined credential value must be a JSON object: %w", err)
	}

	for _, f := range schema.Fields {
		val, present := payload[f.Key]
		if !present {
			if err := v.Var(nil, f.Tag); err != nil {
				return fmt.Errorf("field %q is required", f.Key)
			}
			continue
		}
		if err := v.Var(val, f.Tag); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	return nil
}

// schemaFieldsToMap captures the schema definition itself for persistence
// (so a reloaded vault still knows what shape this credential's values take).
func schemaFieldsToMap(schema *Schema) map[string]any {
	m := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		m[f.Key] = f.Tag
	}
	return m
}
