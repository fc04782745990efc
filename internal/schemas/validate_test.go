package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_InsightsAccepted(t *testing.T) {
	doc := `{
		"insights": [
			{
				"claim": "Global market reached $4.2B in 2024",
				"section": "Market Size",
				"supporting_urls": ["https://example.com/report"],
				"rank": 1
			}
		]
	}`

	assert.NoError(t, Validate(InsightsSchema, doc))
}

func TestValidate_InsightsMissingField(t *testing.T) {
	doc := `{
		"insights": [
			{"claim": "No section here", "supporting_urls": [], "rank": 1}
		]
	}`

	err := Validate(InsightsSchema, doc)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.NotEmpty(t, valErr.Errors)
	assert.Contains(t, err.Error(), "section")
}

func TestValidate_InsightsRejectsExtraFields(t *testing.T) {
	doc := `{
		"insights": [
			{
				"claim": "c", "section": "s", "supporting_urls": [], "rank": 1,
				"confidence": 0.9
			}
		]
	}`

	assert.Error(t, Validate(InsightsSchema, doc))
}

func TestValidate_ChartPlanAccepted(t *testing.T) {
	doc := `{
		"charts": [
			{
				"type": "pie",
				"title": "Market Share 2024",
				"caption": "Share by vendor",
				"series": [
					{"label": "Vendor A", "value": 45.5},
					{"label": "Vendor B", "value": 54.5}
				]
			}
		]
	}`

	assert.NoError(t, Validate(ChartPlanSchema, doc))
}

func TestValidate_ChartPlanRejectsUnknownType(t *testing.T) {
	doc := `{
		"charts": [
			{
				"type": "scatter",
				"title": "Bad",
				"series": [{"label": "x", "value": 1}]
			}
		]
	}`

	err := Validate(ChartPlanSchema, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type")
}

func TestValidate_ChartPlanEmptyIsValid(t *testing.T) {
	assert.NoError(t, Validate(ChartPlanSchema, `{"charts": []}`))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(InsightsSchema, `{"insights": [`)
	assert.Error(t, err)
}
