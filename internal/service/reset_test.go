package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewayz/progression/internal/model"
)

func TestShouldReset(t *testing.T) {
	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Minute)

	tests := []struct {
		name string
		lb   model.Leaderboard
		want bool
	}{
		{"never", model.Leaderboard{ResetFrequency: model.ResetNever, NextReset: &past}, false},
		{"empty frequency", model.Leaderboard{NextReset: &past}, false},
		{"due", model.Leaderboard{ResetFrequency: model.ResetDaily, NextReset: &past}, true},
		{"due exactly now", model.Leaderboard{ResetFrequency: model.ResetWeekly, NextReset: &testNow}, true},
		{"not yet due", model.Leaderboard{ResetFrequency: model.ResetMonthly, NextReset: &future}, false},
		{"never scheduled", model.Leaderboard{ResetFrequency: model.ResetYearly}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldReset(&tt.lb, testNow))
		})
	}
}

func TestNextReset_AlignsToPeriodBoundaries(t *testing.T) {
	tests := []struct {
		freq model.ResetFrequency
		want time.Time
	}{
		{model.ResetDaily, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{model.ResetWeekly, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC)},
		{model.ResetMonthly, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{model.ResetYearly, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			next := NextReset(tt.freq, testNow, time.UTC)
			require.NotNil(t, next)
			assert.Equal(t, tt.want, *next)
		})
	}

	assert.Nil(t, NextReset(model.ResetNever, testNow, time.UTC))
}

func TestNextReset_NoDrift(t *testing.T) {
	// resets that run late still land on the boundary
	late := time.Date(2024, time.March, 14, 0, 47, 12, 0, time.UTC)
	next := NextReset(model.ResetDaily, late, time.UTC)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *next)
}

func TestNextReset_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 20:00 UTC on the 13th is already the 14th at UTC+9
	now := time.Date(2024, time.March, 13, 20, 0, 0, 0, time.UTC)

	next := NextReset(model.ResetDaily, now, loc)
	require.NotNil(t, next)
	assert.True(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, loc).Equal(*next))
}

func TestStartOfWeek_Sunday(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday, time.UTC))
}
