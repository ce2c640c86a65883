package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"foods":["rice","grilled chicken"],"macros":{"carbs_g":"40~60","protein_g":"25~35","fat_g":"10~15","calories_kcal":"300~400"},"diagnosis":"Balanced meal.","next_meal_tip":"Add some vegetables."}`

func TestParseEstimatePureJSON(t *testing.T) {
	est, err := ParseEstimate(validBody)
	require.NoError(t, err)

	assert.Equal(t, []string{"rice", "grilled chicken"}, est.Foods)
	assert.Equal(t, "40~60", est.Macros.CarbsG)
	assert.Equal(t, "300~400", est.Macros.CaloriesKcal)
	assert.Equal(t, "Balanced meal.", est.Diagnosis)
	assert.Equal(t, "Add some vegetables.", est.NextMealTip)
}

func TestParseEstimateEmbeddedInProse(t *testing.T) {
	est, err := ParseEstimate("here's the data: " + validBody + " thanks")
	require.NoError(t, err)
	assert.Equal(t, []string{"rice", "grilled chicken"}, est.Foods)
}

func TestParseEstimateMarkdownFences(t *testing.T) {
	est, err := ParseEstimate("```json\n" + validBody + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "25~35", est.Macros.ProteinG)
}

func TestParseEstimateMultiline(t *testing.T) {
	raw := "Sure! Here is the analysis:\n\n{\n  \"foods\": [\"kimchi stew\"],\n  \"macros\": {\"carbs_g\": \"20~30\", \"protein_g\": \"15~25\", \"fat_g\": \"unavailable\", \"calories_kcal\": \"250~350\"},\n  \"diagnosis\": \"\",\n  \"next_meal_tip\": \"\"\n}\n\nLet me know if you need more."
	est, err := ParseEstimate(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"kimchi stew"}, est.Foods)
	assert.Equal(t, "unavailable", est.Macros.FatG)
}

func TestParseEstimateNotJSON(t *testing.T) {
	_, err := ParseEstimate("not json at all")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParseEstimateBrokenBraces(t *testing.T) {
	_, err := ParseEstimate("something } backwards { here")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParseEstimateEmpty(t *testing.T) {
	_, err := ParseEstimate("")
	assert.ErrorIs(t, err, ErrUnparseable)
}
