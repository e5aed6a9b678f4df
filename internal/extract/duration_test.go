package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1 hour", 60},
		{"2 hours", 120},
		{"1.5 hours", 90},
		{"2hrs", 120},
		{"30 minutes", 30},
		{"45 mins", 45},
		{"90 min", 90},
		{"25", 25},
		{"1 hour each day", 60},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Duration(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationNoMatch(t *testing.T) {
	for _, in := range []string{"", "a while", "0", "zero minutes"} {
		_, ok := Duration(in)
		assert.False(t, ok, "input %q", in)
	}
}
