// internal/models/models.go
package models

// Profile is the single health record the user maintains. It is persisted
// as one JSON object and overwritten wholesale on every save; the JSON keys
// match the on-disk user_profile.json format.
type Profile struct {
	HeightCM float64 `json:"height"`
	WeightKG float64 `json:"weight"`
	Gender   string  `json:"gender"`
	Goal     string  `json:"goal"`
	Activity string  `json:"activity,omitempty"`
	Age      int     `json:"age,omitempty"`
}

// IsComplete reports whether enough of the profile is filled in to run an
// analysis.
func (p Profile) IsComplete() bool {
	return p.HeightCM > 0 && p.WeightKG > 0 && p.Goal != ""
}

// Macros holds the four tracked nutrition quantities, each encoded as a
// range string ("min~max" or the "unavailable" sentinel).
type Macros struct {
	CarbsG       string `json:"carbs_g"`
	ProteinG     string `json:"protein_g"`
	FatG         string `json:"fat_g"`
	CaloriesKcal string `json:"calories_kcal"`
}

// MealLogEntry is one analyzed meal. The log is an append-only sequence;
// entries are never mutated after they are written.
type MealLogEntry struct {
	Timestamp   string   `json:"timestamp"`
	Date        string   `json:"date"`
	MealType    string   `json:"meal_type"`
	Foods       []string `json:"foods"`
	Macros      Macros   `json:"macros"`
	Diagnosis   string   `json:"diagnosis"`
	NextMealTip string   `json:"next_meal_tip"`
	RuleFlags   []string `json:"rule_flags"`
	RuleNote    string   `json:"rule_note,omitempty"`
	Portion     string   `json:"portion,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
}

// UserState tracks where a Telegram user is in the profile form or the
// photo-analysis flow. It lives only in memory.
type UserState struct {
	TelegramID   int64
	CurrentState string
	Draft        Profile
	PendingImage []byte
	PendingMIME  string
	PendingExt   string
	MealType     string
}
