package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

func TestPointTargetsCut(t *testing.T) {
	p := models.Profile{
		HeightCM: 175,
		WeightKG: 70,
		Gender:   "male",
		Goal:     "cut",
		Activity: "light",
		Age:      30,
	}

	targets := CalculateTargets(p)
	require.Equal(t, TargetModePoint, targets.Mode)

	// BMR = 10*70 + 6.25*175 - 5*30 + 5 = 1648.75
	// TDEE = 1648.75 * 1.375 = 2267.03; cut: *0.85 = 1926.98
	assert.Equal(t, 1927, targets.CaloriesMin)
	assert.Equal(t, targets.CaloriesMin, targets.CaloriesMax)

	// cut protein: 70 * 1.6 = 112
	assert.Equal(t, 112, targets.ProteinMin)
}

func TestPointTargetsFemaleConstant(t *testing.T) {
	p := models.Profile{
		HeightCM: 160,
		WeightKG: 55,
		Gender:   "female",
		Goal:     "maintain",
		Activity: "moderate",
		Age:      25,
	}

	targets := CalculateTargets(p)
	require.Equal(t, TargetModePoint, targets.Mode)

	// BMR = 10*55 + 6.25*160 - 5*25 - 161 = 1264
	// TDEE = 1264 * 1.55 = 1959.2
	assert.Equal(t, 1959, targets.CaloriesMin)
}

func TestPointTargetsDefaultActivity(t *testing.T) {
	p := models.Profile{
		HeightCM: 175,
		WeightKG: 70,
		Gender:   "male",
		Goal:     "maintain",
		Age:      30,
		// Activity unset: the "light" factor 1.375 applies.
	}

	withDefault := CalculateTargets(p)
	p.Activity = "light"
	explicit := CalculateTargets(p)
	assert.Equal(t, explicit, withDefault)

	p.Activity = "couch potato" // unrecognized also falls back
	assert.Equal(t, explicit.CaloriesMin, CalculateTargets(p).CaloriesMin)
}

func TestProteinTargetBulk(t *testing.T) {
	p := models.Profile{HeightCM: 175, WeightKG: 70, Gender: "male", Goal: "bulk", Age: 30}
	targets := CalculateTargets(p)

	// bulk: 70 * 1.8 = 126
	assert.Equal(t, 126, targets.ProteinMin)
	assert.Equal(t, 126, targets.ProteinMax)
}

func TestRangeTargetsWithoutAge(t *testing.T) {
	p := models.Profile{HeightCM: 175, WeightKG: 70, Gender: "male", Goal: "maintain"}

	targets := CalculateTargets(p)
	require.Equal(t, TargetModeRange, targets.Mode)

	// maintain baseline 2300 kcal, ±10%
	assert.Equal(t, 2070, targets.CaloriesMin)
	assert.Equal(t, 2530, targets.CaloriesMax)

	// protein baseline 70*1.6 = 112, ±10%
	assert.Equal(t, 101, targets.ProteinMin)
	assert.Equal(t, 123, targets.ProteinMax)

	assert.Equal(t, "2070~2530", targets.CaloriesRange())
}

func TestRangeTargetsGoalBaselines(t *testing.T) {
	bulk := CalculateTargets(models.Profile{WeightKG: 70, Goal: "bulk"})
	cut := CalculateTargets(models.Profile{WeightKG: 70, Goal: "cut"})

	assert.Equal(t, 2430, bulk.CaloriesMin) // 2700 * 0.9
	assert.Equal(t, 2970, bulk.CaloriesMax) // 2700 * 1.1
	assert.Equal(t, 1800, cut.CaloriesMin)  // 2000 * 0.9
	assert.Equal(t, 2200, cut.CaloriesMax)  // 2000 * 1.1
}
