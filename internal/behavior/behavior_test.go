package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xaenox/dayflow/internal/extract"
	"github.com/xaenox/dayflow/internal/models"
)

func TestQuadrant(t *testing.T) {
	tests := []struct {
		score extract.Score
		want  string
	}{
		{extract.Score{Urgency: 5, Importance: 5}, "I"},
		{extract.Score{Urgency: 4, Importance: 4}, "I"},
		{extract.Score{Urgency: 3, Importance: 5}, "II"},
		{extract.Score{Urgency: 1, Importance: 4}, "II"},
		{extract.Score{Urgency: 5, Importance: 3}, "III"},
		{extract.Score{Urgency: 4, Importance: 1}, "III"},
		{extract.Score{Urgency: 3, Importance: 3}, "IV"},
		{extract.Score{Urgency: 2, Importance: 2}, "IV"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quadrant(tt.score), "score %+v", tt.score)
	}
}

func TestQuadrantFromPriority(t *testing.T) {
	assert.Equal(t, "I", QuadrantFromPriority(models.PriorityHigh))
	assert.Equal(t, "II", QuadrantFromPriority(models.PriorityMed))
	assert.Equal(t, "IV", QuadrantFromPriority(models.PriorityLow))
	assert.Equal(t, "IV", QuadrantFromPriority(""))
}

func TestRecordCompletionFirstEver(t *testing.T) {
	s := &models.Streak{Activity: "reading"}
	got := RecordCompletion(s, "2025-03-10")

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
	assert.Equal(t, 1, got.TotalCompletions)
	assert.Equal(t, "2025-03-10", got.LastCompleted)
}

func TestRecordCompletionSameDayNoChange(t *testing.T) {
	s := &models.Streak{Activity: "reading", CurrentStreak: 3, LongestStreak: 5, LastCompleted: "2025-03-10", TotalCompletions: 8}
	got := RecordCompletion(s, "2025-03-10")
	assert.Equal(t, *s, *got)
}

func TestRecordCompletionNextDayIncrements(t *testing.T) {
	s := &models.Streak{Activity: "reading", CurrentStreak: 5, LongestStreak: 5, LastCompleted: "2025-03-10", TotalCompletions: 8}
	got := RecordCompletion(s, "2025-03-11")

	assert.Equal(t, 6, got.CurrentStreak)
	assert.Equal(t, 6, got.LongestStreak) // longest follows current
	assert.Equal(t, 9, got.TotalCompletions)
}

func TestRecordCompletionGapResets(t *testing.T) {
	s := &models.Streak{Activity: "reading", CurrentStreak: 5, LongestStreak: 9, LastCompleted: "2025-03-10", TotalCompletions: 8}
	got := RecordCompletion(s, "2025-03-14")

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 9, got.LongestStreak)
	assert.Equal(t, 9, got.TotalCompletions)
	assert.Equal(t, "2025-03-14", got.LastCompleted)
}
