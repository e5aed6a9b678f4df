package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3pm", "15:00"},
		{"3 pm", "15:00"},
		{"12pm", "12:00"},
		{"12am", "00:00"},
		{"11am", "11:00"},
		{"3:30pm", "15:30"},
		{"12:15am", "00:15"},
		{"09:00", "09:00"},
		{"15:04", "15:04"},
		{"meet me at 4pm sharp", "16:00"},
		{"dinner at 19:30", "19:30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Time(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeNoMatch(t *testing.T) {
	for _, in := range []string{"", "noonish", "25:00", "99pm"} {
		_, ok := Time(in)
		assert.False(t, ok, "input %q", in)
	}
}

// Any valid HH:MM string survives a round trip through the extractor.
func TestTimeRoundTrip(t *testing.T) {
	for _, v := range []string{"00:00", "07:45", "12:00", "18:05", "23:59"} {
		got, ok := Time(v)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}
