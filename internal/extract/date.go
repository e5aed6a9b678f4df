// Package extract holds the field extractors used by the conversation
// workflows and the email pipeline. Each extractor is a pure function of
// (text, clock); the LLM wrappers are best-effort and fall back to the rules.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/dayflow/internal/llm"
)

const dateLayout = "2006-01-02"

var (
	tomorrowRe = regexp.MustCompile(`\btomm?o?r+o?w?\b|\btmrw?\b`)
	inDaysRe   = regexp.MustCompile(`\bin (\d+) days?\b`)
)

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// Date resolves a free-text deadline expression to an ISO date using the
// deterministic rules only. The second return is false when nothing matched.
func Date(text string, now time.Time) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}

	today := now.Format(dateLayout)

	for _, kw := range []string{"today", "tonight", "end of day", "eod"} {
		if strings.Contains(text, kw) {
			return today, true
		}
	}

	if tomorrowRe.MatchString(text) {
		return now.AddDate(0, 0, 1).Format(dateLayout), true
	}

	if strings.Contains(text, "next week") {
		return now.AddDate(0, 0, 7).Format(dateLayout), true
	}

	if strings.Contains(text, "end of week") || strings.Contains(text, "this friday") {
		return nextWeekday(now, time.Friday).Format(dateLayout), true
	}

	if m := inDaysRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return now.AddDate(0, 0, n).Format(dateLayout), true
		}
	}

	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if day, ok := weekdays[word]; ok {
			return nextWeekday(now, day).Format(dateLayout), true
		}
	}

	// Already an ISO date?
	if d, err := time.Parse(dateLayout, text); err == nil {
		return d.Format(dateLayout), true
	}

	return "", false
}

// Weekdays returns the distinct weekday names mentioned in the text, in
// order of appearance, as lowercase full names.
func Weekdays(text string) []string {
	text = strings.ToLower(text)
	seen := make(map[time.Weekday]bool)
	var out []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if day, ok := weekdays[word]; ok && !seen[day] {
			seen[day] = true
			out = append(out, strings.ToLower(day.String()))
		}
	}
	return out
}

// nextWeekday returns the next future occurrence of day; the same weekday
// resolves a full week out, never to today.
func nextWeekday(now time.Time, day time.Weekday) time.Time {
	delta := (int(day) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}

type dateResponse struct {
	Date string `json:"date"`
}

// DateLLM asks the model to resolve the expression, anchoring "today" to the
// supplied clock. Any failure, including an unparseable answer, falls back to
// the rules.
func DateLLM(ctx context.Context, client llm.Client, text string, now time.Time) (string, bool) {
	if client == nil {
		return Date(text, now)
	}

	system := fmt.Sprintf(
		`You resolve natural-language deadlines to calendar dates. Today is %s (%s). `+
			`Return a JSON object {"date": "YYYY-MM-DD"} with the resolved date, or {"date": ""} if there is none.`,
		now.Format(dateLayout), now.Weekday())

	var resp dateResponse
	if err := llm.CompleteJSON(ctx, client, system, text, &resp); err != nil {
		return Date(text, now)
	}
	if _, err := time.Parse(dateLayout, resp.Date); err != nil {
		return Date(text, now)
	}
	return resp.Date, true
}
