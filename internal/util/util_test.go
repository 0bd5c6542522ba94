package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockArgs struct {
	StockName string `json:"stock_name" description:"Ticker symbol"`
	Days      *int   `json:"days" description:"Optional window"`
	Note      string `json:"note,omitempty"`
	hidden    string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(stockArgs{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "stock_name")
	assert.Contains(t, props, "days")
	assert.Contains(t, props, "note")
	assert.NotContains(t, props, "hidden")
	assert.Equal(t, "integer", props["days"].(map[string]any)["type"])
	assert.Equal(t, []any{"stock_name"}, schema["required"])

	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, CreateSchema(42))
}

func TestValidateParameters(t *testing.T) {
	schema, err := CompileSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":    map[string]any{"type": "integer"},
			"name": map[string]any{"type": "string"},
		},
		"required": []string{"x"},
	})
	require.NoError(t, err)

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5), "extra": true}, schema))

	err = ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)
	assert.Equal(t, "required field is missing", vErr.Message)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)
	assert.Equal(t, "not-int", vErr.Value)
	assert.NotEmpty(t, vErr.Message)

	assert.NoError(t, ValidateParameters(map[string]any{"anything": 1}, nil))
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(map[string]any{"type": 12})
	assert.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Today is {{ .date }}. <highlight>{{ upper .ticker }}</highlight>", map[string]any{
		"date":   "2024-01-01",
		"ticker": "aapl",
	})
	require.NoError(t, err)
	assert.Equal(t, "Today is 2024-01-01. <highlight>AAPL</highlight>", out)

	out, err = RenderTemplate(`<artifact id="report">`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<artifact id="report">`, out)

	out, err = RenderTemplate(`{{ default "n/a" .missing }}`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "n/a", out)

	_, err = RenderTemplate("{{ .broken", nil)
	assert.Error(t, err)
}
