package service

import (
	"time"

	"collegeconnect/model"
)

// truncateToDay drops the time-of-day component. Day boundary is fixed UTC
// midnight so the streak calendar is the same for every user regardless of
// where the server or the user sits.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak advances the consecutive-day solve streak for one accepted
// submission. At most one effective advance per calendar day: a second solve
// on the same day is a no-op.
func AdvanceStreak(stats *model.UserStats, now time.Time) {
	today := truncateToDay(now)

	if stats.LastSubmissionDate == nil {
		stats.CurrentStreak = 1
		stats.StreakStartDate = &today
	} else {
		last := truncateToDay(*stats.LastSubmissionDate)
		switch {
		case last.Equal(today):
			return
		case last.AddDate(0, 0, 1).Equal(today):
			stats.CurrentStreak++
		default:
			stats.CurrentStreak = 1
			stats.StreakStartDate = &today
		}
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastSubmissionDate = &today
}
