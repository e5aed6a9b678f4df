// Package behavior implements the behavioural helpers layered on the item
// store: Eisenhower quadrants and activity streaks.
package behavior

import (
	"github.com/xaenox/dayflow/internal/extract"
	"github.com/xaenox/dayflow/internal/models"
)

// Quadrant maps an urgency/importance pair onto an Eisenhower quadrant.
func Quadrant(score extract.Score) string {
	urgent := score.Urgency >= 4
	important := score.Importance >= 4
	switch {
	case urgent && important:
		return "I"
	case !urgent && important:
		return "II"
	case urgent && !important:
		return "III"
	default:
		return "IV"
	}
}

// QuadrantFromPriority derives a quadrant for items that only carry the
// coarse low/med/high priority.
func QuadrantFromPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "I"
	case models.PriorityMed:
		return "II"
	default:
		return "IV"
	}
}
