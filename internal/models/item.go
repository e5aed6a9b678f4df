package models

import (
	"fmt"
	"strings"
	"time"
)

type ItemType string

const (
	TypeAppointment ItemType = "appointment"
	TypeMeeting     ItemType = "meeting"
	TypeTask        ItemType = "task"
	TypeGoal        ItemType = "goal"
	TypeSession     ItemType = "session"
	TypeWebinar     ItemType = "webinar"
	TypeDeadline    ItemType = "deadline"
)

type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusOverdue    Status = "overdue"
)

type Source string

const (
	SourceManual   Source = "manual"
	SourceGmail    Source = "gmail"
	SourceCalendar Source = "calendar"
)

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMed  Priority = "med"
	PriorityHigh Priority = "high"
)

// Item is the unified record behind appointments, meetings, tasks and goals.
// Email-derived items additionally use the session/webinar/deadline types.
type Item struct {
	ID               string    `json:"id"`
	Type             ItemType  `json:"type"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Date             string    `json:"date"` // YYYY-MM-DD
	StartTime        string    `json:"start_time,omitempty"` // HH:MM
	EndTime          string    `json:"end_time,omitempty"`   // HH:MM
	Status           Status    `json:"status"`
	Source           Source    `json:"source"`
	Priority         Priority  `json:"priority,omitempty"`
	Location         string    `json:"location,omitempty"`
	Participants     []string  `json:"participants,omitempty"`
	GmailThreadURL   string    `json:"gmail_thread_url,omitempty"`
	CalendarEventURL string    `json:"calendar_event_url,omitempty"`
	GoalID           string    `json:"goal_id,omitempty"`
	Quadrant         string    `json:"quadrant,omitempty"` // I, II, III, IV
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ItemPatch is a sparse update: nil fields are left untouched.
// ID, Source and CreatedAt are immutable and have no patch fields.
type ItemPatch struct {
	Type             *ItemType `json:"type,omitempty"`
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Date             *string   `json:"date,omitempty"`
	StartTime        *string   `json:"start_time,omitempty"`
	EndTime          *string   `json:"end_time,omitempty"`
	Status           *Status   `json:"status,omitempty"`
	Priority         *Priority `json:"priority,omitempty"`
	Location         *string   `json:"location,omitempty"`
	Participants     []string  `json:"participants,omitempty"`
	GmailThreadURL   *string   `json:"gmail_thread_url,omitempty"`
	CalendarEventURL *string   `json:"calendar_event_url,omitempty"`
	GoalID           *string   `json:"goal_id,omitempty"`
	Quadrant         *string   `json:"quadrant,omitempty"`
}

// ListFilter selects items for the list operation. Empty fields match everything.
type ListFilter struct {
	Types    []ItemType
	Status   Status
	Source   Source
	DateFrom string // YYYY-MM-DD inclusive
	DateTo   string // YYYY-MM-DD inclusive
	Search   string // case-insensitive substring over title/description/location/participants
	Limit    int    // 1..100, default 50
	Offset   int
}

// Stats aggregates item counts for the dashboard.
type Stats struct {
	CountByType   map[ItemType]int `json:"count_by_type"`
	CountByStatus map[Status]int   `json:"count_by_status"`
	Today         TodayStats       `json:"today"`
}

type TodayStats struct {
	Total    int              `json:"total"`
	ByType   map[ItemType]int `json:"by_type"`
	ByStatus map[Status]int   `json:"by_status"`
}

func ValidItemType(t ItemType) bool {
	switch t {
	case TypeAppointment, TypeMeeting, TypeTask, TypeGoal, TypeSession, TypeWebinar, TypeDeadline:
		return true
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusUpcoming, StatusInProgress, StatusDone, StatusOverdue:
		return true
	}
	return false
}

func ValidSource(s Source) bool {
	switch s {
	case SourceManual, SourceGmail, SourceCalendar:
		return true
	}
	return false
}

func ValidPriority(p Priority) bool {
	switch p {
	case "", PriorityLow, PriorityMed, PriorityHigh:
		return true
	}
	return false
}

// Validate checks the invariants every stored item must hold.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if !ValidItemType(i.Type) {
		return fmt.Errorf("invalid type %q", i.Type)
	}
	if !ValidStatus(i.Status) {
		return fmt.Errorf("invalid status %q", i.Status)
	}
	if !ValidSource(i.Source) {
		return fmt.Errorf("invalid source %q", i.Source)
	}
	if !ValidPriority(i.Priority) {
		return fmt.Errorf("invalid priority %q", i.Priority)
	}
	if i.Date != "" {
		if _, err := time.Parse("2006-01-02", i.Date); err != nil {
			return fmt.Errorf("invalid date %q", i.Date)
		}
	}
	for _, field := range []string{i.StartTime, i.EndTime} {
		if field == "" {
			continue
		}
		if _, err := time.Parse("15:04", field); err != nil {
			return fmt.Errorf("invalid time %q", field)
		}
	}
	if i.StartTime != "" && i.EndTime != "" && i.EndTime < i.StartTime {
		return fmt.Errorf("end_time %q before start_time %q", i.EndTime, i.StartTime)
	}
	return nil
}

// FormatParticipants joins a participant list into the comma-separated text column.
func FormatParticipants(participants []string) string {
	clean := make([]string, 0, len(participants))
	for _, p := range participants {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ",")
}

// ParseParticipants splits the stored text column back into a list, dropping
// empty entries so parse(format(xs)) round-trips.
func ParseParticipants(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsOverdue reports whether an upcoming item's date has passed.
func (i *Item) IsOverdue(today string) bool {
	return i.Status == StatusUpcoming && i.Date != "" && i.Date < today
}
