package views

import (
	"sort"
	"time"

	"github.com/nhle/planhub/internal/model"
)

// Streak returns the habit's current run of consecutive completed
// days as of now. The streak is zero unless the most recent checkin
// is today or yesterday; from there it counts backward while each
// date is exactly one calendar day before the previous, stopping at
// the first gap.
func Streak(checkins []string, now time.Time) int {
	if len(checkins) == 0 {
		return 0
	}

	// Parse, dedupe, sort descending.
	seen := make(map[string]bool, len(checkins))
	days := make([]time.Time, 0, len(checkins))
	for _, raw := range checkins {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		d, err := time.ParseInLocation(model.CheckinDateLayout, raw, now.Location())
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	latest := days[0]
	if !latest.Equal(today) && !latest.Equal(yesterday) {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			streak++
			continue
		}
		break
	}
	return streak
}

// HabitStreak is a convenience wrapper over the habit's denormalized
// checkin array.
func HabitStreak(h model.Habit, now time.Time) int {
	return Streak(h.Checkins, now)
}
