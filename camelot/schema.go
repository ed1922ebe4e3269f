package camelot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildTableJSONSchema returns the JSON-Schema of one camelot JSON table:
// a list of rows, each an object from column index to cell text.
func BuildTableJSONSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"propertyNames":        map[string]any{"pattern": `^\d+$`},
			"additionalProperties": map[string]any{"type": "string"},
		},
	}
}

var (
	tableSchemaOnce sync.Once
	tableSchema     *jsonschema.Schema
	tableSchemaErr  error
)

func compiledTableSchema() (*jsonschema.Schema, error) {
	tableSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildTableJSONSchema())
		if err != nil {
			tableSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("table.json", bytes.NewReader(b)); err != nil {
			tableSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		tableSchema, tableSchemaErr = compiler.Compile("table.json")
	})
	return tableSchema, tableSchemaErr
}

// ValidateTable checks decoded table content against BuildTableJSONSchema.
func ValidateTable(content json.RawMessage) error {
	schema, err := compiledTableSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return nil
}

func validateTableFile(name string, content json.RawMessage) error {
	if err := ValidateTable(content); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
