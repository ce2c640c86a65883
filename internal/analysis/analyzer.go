// internal/analysis/analyzer.go
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/gpt"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/nutrition"
	"github.com/MinHeokChoi/meal-agent-mvp/pkg/logger"
)

// ModelClient is the external vision-model boundary: image plus prompt in,
// free text out.
type ModelClient interface {
	Estimate(ctx context.Context, image []byte, mime string, prompt string) (string, error)
}

// Analyzer turns one meal photo into a structured nutrition estimate.
type Analyzer struct {
	model  ModelClient
	logger *logger.Logger
}

func New(model ModelClient, logger *logger.Logger) *Analyzer {
	return &Analyzer{
		model:  model,
		logger: logger,
	}
}

// Request carries everything one analysis needs. RecentMeals and
// TodaySummary are free-text context lines derived fresh from the persisted
// log; there is no cached session state.
type Request struct {
	Image        []byte
	MIME         string
	Profile      models.Profile
	MealType     string
	Portion      string
	RecentMeals  string
	TodaySummary string
}

// Result is the analyzed meal, ready to be appended to the log.
type Result struct {
	Foods       []string
	Macros      models.Macros
	Diagnosis   string
	NextMealTip string
	RuleFlags   []string
	RuleNote    string
}

// portionFactors scale both bounds of every parseable macro range;
// "unavailable" is left untouched.
var portionFactors = map[string]float64{
	"small":  0.8,
	"normal": 1.0,
	"large":  1.25,
}

const responseSchema = `{"foods": ["food name", "..."], "macros": {"carbs_g": "min~max", "protein_g": "min~max", "fat_g": "min~max", "calories_kcal": "min~max"}, "diagnosis": "one short sentence about this meal", "next_meal_tip": "one short suggestion for the next meal"}`

const retryInstruction = "Your previous output was not valid JSON. Respond again with the JSON object only: no prose, no markdown fences, nothing outside the object."

// Analyze runs the full pipeline: prompt the model with the photo, sanitize
// the reply, retry once with a sharpened instruction on bad format, fall
// back to a fixed placeholder if that also fails, then apply portion
// scaling and the warning rules. Only transport errors are returned;
// format failures always degrade to the fallback.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	prompt := buildPrompt(req)

	raw, err := a.model.Estimate(ctx, req.Image, req.MIME, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	est, perr := gpt.ParseEstimate(raw)
	if perr != nil {
		a.logger.Info("Model response was not JSON, retrying once")
		raw, err = a.model.Estimate(ctx, req.Image, req.MIME, prompt+"\n\n"+retryInstruction)
		if err != nil {
			return nil, fmt.Errorf("model retry failed: %w", err)
		}
		est, perr = gpt.ParseEstimate(raw)
		if perr != nil {
			a.logger.Info("Model response unparseable after retry, using fallback")
			est = fallbackEstimate()
		}
	}

	factor, found := portionFactors[req.Portion]
	if !found {
		factor = 1.0
	}
	macros := scaleMacros(est.Macros, factor)

	eval := nutrition.Evaluate(est.Foods, macros, req.Profile)

	return &Result{
		Foods:       est.Foods,
		Macros:      macros,
		Diagnosis:   nutrition.AnnotateDiagnosis(est.Diagnosis, eval.Note),
		NextMealTip: est.NextMealTip,
		RuleFlags:   eval.Flags,
		RuleNote:    eval.Note,
	}, nil
}

func buildPrompt(req Request) string {
	p := req.Profile

	var b strings.Builder
	b.WriteString("Analyze the meal in the attached photo and estimate its nutrition.\n\n")

	fmt.Fprintf(&b, "User profile: height %.0f cm, weight %.0f kg, gender %s, goal %s.\n",
		p.HeightCM, p.WeightKG, p.Gender, p.Goal)

	targets := nutrition.CalculateTargets(p)
	fmt.Fprintf(&b, "Daily targets: %s kcal, %s g protein.\n",
		targets.CaloriesRange(), targets.ProteinRange())

	if req.MealType != "" {
		fmt.Fprintf(&b, "This photo is the user's %s.\n", req.MealType)
	}
	if req.RecentMeals != "" {
		fmt.Fprintf(&b, "Recent meals: %s\n", req.RecentMeals)
	}
	if req.TodaySummary != "" {
		fmt.Fprintf(&b, "Today so far: %s\n", req.TodaySummary)
	}

	b.WriteString("\nRespond with ONLY a JSON object in exactly this shape:\n")
	b.WriteString(responseSchema)
	b.WriteString("\nEvery macro value must be a \"min~max\" range of plain numbers")
	b.WriteString(" (grams, kcal for calories). Use \"unavailable\" for any value you cannot estimate.")

	return b.String()
}

// fallbackEstimate is the deterministic result used when the model never
// produces parseable JSON. All macros are unavailable, so the rule engine
// stays silent and daily totals absorb the failure.
func fallbackEstimate() *gpt.Estimate {
	return &gpt.Estimate{
		Foods: []string{},
		Macros: models.Macros{
			CarbsG:       nutrition.Unavailable,
			ProteinG:     nutrition.Unavailable,
			FatG:         nutrition.Unavailable,
			CaloriesKcal: nutrition.Unavailable,
		},
		Diagnosis:   "The photo was unclear, so the meal could not be analyzed.",
		NextMealTip: "Aim for a balanced plate: a palm of protein, vegetables and whole grains.",
	}
}

func scaleMacros(m models.Macros, factor float64) models.Macros {
	return models.Macros{
		CarbsG:       scaleRange(m.CarbsG, factor),
		ProteinG:     scaleRange(m.ProteinG, factor),
		FatG:         scaleRange(m.FatG, factor),
		CaloriesKcal: scaleRange(m.CaloriesKcal, factor),
	}
}

func scaleRange(s string, factor float64) string {
	min, max, ok := nutrition.ParseRange(s)
	if !ok {
		return s
	}
	return nutrition.FormatRange(min*factor, max*factor)
}
