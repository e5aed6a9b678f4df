package behavior

import (
	"time"

	"github.com/xaenox/dayflow/internal/models"
)

const dateLayout = "2006-01-02"

// RecordCompletion applies the streak update rule for a completion on the
// given day: same day is a no-op, the next day increments, any gap resets
// the run to 1. Longest streak tracks the maximum ever reached.
func RecordCompletion(streak *models.Streak, day string) *models.Streak {
	updated := *streak

	gap := daysBetween(streak.LastCompleted, day)
	switch {
	case streak.LastCompleted != "" && gap == 0:
		return &updated
	case streak.LastCompleted != "" && gap == 1:
		updated.CurrentStreak = streak.CurrentStreak + 1
	default:
		updated.CurrentStreak = 1
	}

	updated.TotalCompletions = streak.TotalCompletions + 1
	updated.LastCompleted = day
	if updated.CurrentStreak > updated.LongestStreak {
		updated.LongestStreak = updated.CurrentStreak
	}
	return &updated
}

func daysBetween(from, to string) int {
	a, errA := time.Parse(dateLayout, from)
	b, errB := time.Parse(dateLayout, to)
	if errA != nil || errB != nil {
		return -1
	}
	return int(b.Sub(a).Hours() / 24)
}
