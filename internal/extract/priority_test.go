package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriority(t *testing.T) {
	tests := []struct {
		in   string
		want Score
	}{
		{"critical", Score{5, 5}},
		{"both", Score{5, 5}},
		{"urgent", Score{5, 3}},
		{"need this asap", Score{5, 3}},
		{"soon please", Score{5, 3}},
		{"important", Score{3, 5}},
		{"strategic work", Score{3, 5}},
		{"low", Score{2, 2}},
		{"minor thing", Score{2, 2}},
		{"medium", Score{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Priority(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityDefault(t *testing.T) {
	got, ok := Priority("just a thing")
	assert.False(t, ok)
	assert.Equal(t, Score{3, 3}, got)
}

func TestPriorityFirstRowWins(t *testing.T) {
	// critical outranks urgent when both appear
	got, _ := Priority("critical and urgent")
	assert.Equal(t, Score{5, 5}, got)
}
