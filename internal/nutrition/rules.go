package nutrition

import (
	"fmt"
	"math"
	"strings"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

// Warning flags attached to a meal by the rule engine.
const (
	FlagHighCalorieMeal    = "high_calorie_meal"
	FlagProteinLow         = "protein_low"
	FlagHighFatOrProcessed = "high_fat_or_processed"
)

// processedKeywords are calorie-dense or processed foods that trigger the
// high_fat_or_processed flag on a case-insensitive substring match.
var processedKeywords = []string{
	"피자", "pizza",
	"치킨", "fried chicken",
	"튀김", "fried",
	"버거", "burger",
	"라면", "ramen",
	"케이크", "cake",
	"도넛", "donut",
	"감자칩", "chips",
	"콜라", "soda",
}

// Thresholds are the per-meal limits derived from the profile. They are
// recomputed on every evaluation and never persisted.
type Thresholds struct {
	ProteinFloor   float64
	CalorieCeiling float64
	FatCeiling     float64
}

// ThresholdsFor derives the rule thresholds from the profile.
func ThresholdsFor(p models.Profile) Thresholds {
	perKG := 0.35
	if p.Goal == "bulk" {
		perKG = 0.40
	}
	floor := math.Round(p.WeightKG * perKG)
	if floor < 25 {
		floor = 25
	}

	var calorieCeiling float64
	switch p.Goal {
	case "cut":
		calorieCeiling = 750
	case "bulk":
		calorieCeiling = 950
	default:
		calorieCeiling = 850
	}

	fatCeiling := 35.0
	if p.WeightKG >= 80 {
		fatCeiling = 40.0
	}

	return Thresholds{
		ProteinFloor:   floor,
		CalorieCeiling: calorieCeiling,
		FatCeiling:     fatCeiling,
	}
}

// Evaluation is the rule engine output for one meal.
type Evaluation struct {
	Flags []string
	Note  string
}

// Evaluate checks a meal's macros and food names against the profile's
// thresholds. Each rule works on the parsed upper bound: the worst case for
// an excess warning and the safest case for a deficiency warning. Rules are
// independent; any subset may fire. A macro that cannot be parsed is
// "cannot assess", never a violation.
func Evaluate(foods []string, macros models.Macros, p models.Profile) Evaluation {
	th := ThresholdsFor(p)

	var flags []string
	var notes []string

	if _, calMax, ok := ParseRange(macros.CaloriesKcal); ok && calMax >= th.CalorieCeiling {
		flags = append(flags, FlagHighCalorieMeal)
		notes = append(notes, fmt.Sprintf(
			"this meal may reach %.0f kcal, at or above the %.0f kcal per-meal ceiling for your goal",
			calMax, th.CalorieCeiling))
	}

	if _, protMax, ok := ParseRange(macros.ProteinG); ok && protMax < th.ProteinFloor {
		flags = append(flags, FlagProteinLow)
		notes = append(notes, fmt.Sprintf(
			"protein tops out around %.0f g, below your %.0f g per-meal floor",
			protMax, th.ProteinFloor))
	}

	if _, fatMax, ok := ParseRange(macros.FatG); ok && fatMax >= th.FatCeiling {
		flags = append(flags, FlagHighFatOrProcessed)
		notes = append(notes, fmt.Sprintf(
			"fat may reach %.0f g, at or above the %.0f g ceiling", fatMax, th.FatCeiling))
	} else if kw, food, found := matchProcessed(foods); found {
		flags = append(flags, FlagHighFatOrProcessed)
		notes = append(notes, fmt.Sprintf(
			"%q looks like a calorie-dense or processed food (matched %q)", food, kw))
	}

	return Evaluation{Flags: flags, Note: strings.Join(notes, "; ")}
}

// matchProcessed returns the first keyword hit among the food names.
func matchProcessed(foods []string) (keyword, food string, found bool) {
	for _, f := range foods {
		lower := strings.ToLower(f)
		for _, kw := range processedKeywords {
			if strings.Contains(lower, kw) {
				return kw, f, true
			}
		}
	}
	return "", "", false
}

// AnnotateDiagnosis appends the rule note to the model's diagnosis in
// parentheses; with no diagnosis the note stands alone.
func AnnotateDiagnosis(diagnosis, note string) string {
	if note == "" {
		return diagnosis
	}
	if diagnosis == "" {
		return note
	}
	return fmt.Sprintf("%s (%s)", diagnosis, note)
}
