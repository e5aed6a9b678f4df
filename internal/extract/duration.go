package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*h(?:ours?|rs?)?\b`)
	minutesRe = regexp.MustCompile(`(\d+)\s*m(?:in(?:ute)?s?)?\b`)
	bareIntRe = regexp.MustCompile(`^\d+$`)
)

// Duration parses "2 hours", "90 minutes" or a bare integer (assumed to be
// minutes) and returns the duration in minutes.
func Duration(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}

	if m := hoursRe.FindStringSubmatch(text); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil && hours > 0 {
			return int(hours * 60), true
		}
	}

	if m := minutesRe.FindStringSubmatch(text); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err == nil && minutes > 0 {
			return minutes, true
		}
	}

	if bareIntRe.MatchString(text) {
		minutes, err := strconv.Atoi(text)
		if err == nil && minutes > 0 {
			return minutes, true
		}
	}

	return 0, false
}
