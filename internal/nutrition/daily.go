package nutrition

import (
	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

// DailyTotals is the derived per-day view of the log. It is recomputed
// from the full log on every request and never persisted.
type DailyTotals struct {
	Count  int
	Macros models.Macros
	Items  []models.MealLogEntry
}

// AccumulateDay folds all log entries whose date matches into cumulative
// macro ranges, seeded at "0~0" and summed in log order. The log itself is
// never touched.
func AccumulateDay(log []models.MealLogEntry, date string) DailyTotals {
	totals := DailyTotals{
		Macros: models.Macros{
			CarbsG:       "0~0",
			ProteinG:     "0~0",
			FatG:         "0~0",
			CaloriesKcal: "0~0",
		},
	}
	for _, entry := range log {
		if entry.Date != date {
			continue
		}
		totals.Count++
		totals.Items = append(totals.Items, entry)
		totals.Macros.CarbsG = AddRanges(totals.Macros.CarbsG, entry.Macros.CarbsG)
		totals.Macros.ProteinG = AddRanges(totals.Macros.ProteinG, entry.Macros.ProteinG)
		totals.Macros.FatG = AddRanges(totals.Macros.FatG, entry.Macros.FatG)
		totals.Macros.CaloriesKcal = AddRanges(totals.Macros.CaloriesKcal, entry.Macros.CaloriesKcal)
	}
	return totals
}
