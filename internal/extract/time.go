package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clock12Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)
	hour12Re  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	clock24Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

// Time pulls a wall-clock time out of free text and returns it as HH:MM.
// Accepted forms: "3pm", "3:30pm", "15:04".
func Time(text string) (string, bool) {
	text = strings.ToLower(text)

	if m := clock12Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return formatClock(to24Hour(hour, m[3]), minute)
	}

	if m := hour12Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return formatClock(to24Hour(hour, m[2]), 0)
	}

	if m := clock24Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return formatClock(hour, minute)
	}

	return "", false
}

// to24Hour converts a 12-hour clock reading: 12am is midnight, 12pm is noon.
func to24Hour(hour int, meridiem string) int {
	switch {
	case meridiem == "am" && hour == 12:
		return 0
	case meridiem == "pm" && hour != 12:
		return hour + 12
	default:
		return hour
	}
}

func formatClock(hour, minute int) (string, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
