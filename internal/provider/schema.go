package provider

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildAnalyzeResultSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the slice of the analyze result we actually
// consume. The provider response carries much more; everything not listed
// here is ignored, not rejected.
func buildAnalyzeResultSchema() map[string]any {
	confidence := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	field := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":        map[string]any{"type": "string"},
			"valueString": map[string]any{"type": "string"},
			"valueNumber": map[string]any{"type": "number"},
			"valueDate":   map[string]any{"type": "string"},
			"valueCurrency": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"amount": map[string]any{"type": "number"},
				},
			},
			"confidence": confidence,
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documents": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"fields": map[string]any{
							"type":                 "object",
							"additionalProperties": field,
						},
						"confidence": confidence,
					},
				},
			},
			"pages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"lines": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"content": map[string]any{"type": "string"},
								},
								"required": []string{"content"},
							},
						},
					},
				},
			},
		},
	}
}

// validateAnalyzeResult checks the raw analyze result against the schema
// before it is mapped, so shape drift in the provider API fails loudly
// instead of silently yielding empty fields.
func validateAnalyzeResult(data []byte) error {
	b, err := json.Marshal(buildAnalyzeResultSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analyze_result.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analyze_result.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal analyze result: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("analyze result does not match schema: %w", err)
	}
	return nil
}
