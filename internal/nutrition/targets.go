package nutrition

import (
	"math"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

// TargetMode says which target formula produced a Targets value.
type TargetMode string

const (
	// TargetModePoint is the Mifflin-St Jeor TDEE point estimate, used
	// when the profile carries an age.
	TargetModePoint TargetMode = "point"
	// TargetModeRange is the fixed-baseline ±10% range estimate, used
	// when age is unknown.
	TargetModeRange TargetMode = "range"
)

// Targets are the derived daily calorie and protein goals. In point mode
// Min and Max coincide.
type Targets struct {
	Mode        TargetMode
	CaloriesMin int
	CaloriesMax int
	ProteinMin  int
	ProteinMax  int
}

// CaloriesRange renders the calorie target as a range string.
func (t Targets) CaloriesRange() string {
	return FormatRange(float64(t.CaloriesMin), float64(t.CaloriesMax))
}

// ProteinRange renders the protein target as a range string.
func (t Targets) ProteinRange() string {
	return FormatRange(float64(t.ProteinMin), float64(t.ProteinMax))
}

// activityFactors maps activity levels to their TDEE multiplier. This is
// the single source of truth for valid activity values.
var activityFactors = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"active":    1.725,
}

const defaultActivityFactor = 1.375 // "light"

// CalculateTargets derives daily calorie and protein goals from the
// profile. With an age on record it computes a Mifflin-St Jeor point
// estimate; without one it falls back to fixed per-goal baselines widened
// to ±10%.
func CalculateTargets(p models.Profile) Targets {
	if p.Age > 0 {
		return pointTargets(p)
	}
	return rangeTargets(p)
}

func pointTargets(p models.Profile) Targets {
	// BMR via Mifflin-St Jeor: +5 for male, -161 otherwise.
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	factor, found := activityFactors[p.Activity]
	if !found {
		factor = defaultActivityFactor
	}
	tdee := bmr * factor

	switch p.Goal {
	case "cut":
		tdee *= 0.85
	case "bulk":
		tdee *= 1.10
	}

	calories := int(math.Round(tdee))
	protein := proteinTarget(p)
	return Targets{
		Mode:        TargetModePoint,
		CaloriesMin: calories,
		CaloriesMax: calories,
		ProteinMin:  protein,
		ProteinMax:  protein,
	}
}

func rangeTargets(p models.Profile) Targets {
	var base float64
	switch p.Goal {
	case "bulk":
		base = 2700
	case "cut":
		base = 2000
	default:
		base = 2300
	}
	protein := float64(proteinTarget(p))
	return Targets{
		Mode:        TargetModeRange,
		CaloriesMin: int(math.Round(base * 0.9)),
		CaloriesMax: int(math.Round(base * 1.1)),
		ProteinMin:  int(math.Round(protein * 0.9)),
		ProteinMax:  int(math.Round(protein * 1.1)),
	}
}

func proteinTarget(p models.Profile) int {
	perKG := 1.6
	if p.Goal == "bulk" {
		perKG = 1.8
	}
	return int(math.Round(p.WeightKG * perKG))
}
