package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	p := models.Profile{HeightCM: 175, WeightKG: 70, Gender: "male", Goal: "maintain", Activity: "light", Age: 30}
	require.NoError(t, s.SaveProfile(p))

	assert.Equal(t, p, s.LoadProfile())
}

func TestLoadProfileMissingIsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, models.Profile{}, s.LoadProfile())
}

func TestLoadProfileCorruptIsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_profile.json"), []byte("{not json"), 0o644))
	assert.Equal(t, models.Profile{}, s.LoadProfile())
}

func TestSaveProfileOverwritesWholesale(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveProfile(models.Profile{HeightCM: 175, WeightKG: 70, Gender: "male", Goal: "maintain", Age: 30}))
	require.NoError(t, s.SaveProfile(models.Profile{HeightCM: 180, WeightKG: 82, Gender: "male", Goal: "bulk"}))

	got := s.LoadProfile()
	assert.Equal(t, 82.0, got.WeightKG)
	assert.Zero(t, got.Age, "old fields must not survive a rewrite")
}

func TestAppendLogPreservesOrder(t *testing.T) {
	s := newTestStore(t)

	first := models.MealLogEntry{Date: "2026-08-30", MealType: "breakfast", Foods: []string{"toast"}}
	second := models.MealLogEntry{Date: "2026-08-30", MealType: "lunch", Foods: []string{"rice"}}

	require.NoError(t, s.AppendLog(first))
	require.NoError(t, s.AppendLog(second))

	log := s.LoadLog()
	require.Len(t, log, 2)
	assert.Equal(t, "breakfast", log[0].MealType)
	assert.Equal(t, "lunch", log[1].MealType)
}

func TestLoadLogCorruptIsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "meals_log.json"), []byte("[{oops"), 0o644))
	assert.Empty(t, s.LoadLog())

	// A corrupt log is replaced on the next append instead of failing.
	require.NoError(t, s.AppendLog(models.MealLogEntry{MealType: "snack"}))
	assert.Len(t, s.LoadLog(), 1)
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 30, 7, 15, 30, 0, time.UTC)
	path, err := s.SaveImage([]byte{0xFF, 0xD8, 0xFF}, "jpg", ts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "meals", "meal_20260830_071530.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
}
