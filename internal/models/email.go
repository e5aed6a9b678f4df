package models

import "time"

type EmailPriority string

const (
	EmailPriorityHigh   EmailPriority = "HIGH"
	EmailPriorityMedium EmailPriority = "MEDIUM"
	EmailPriorityLow    EmailPriority = "LOW"
)

// Email is a parsed inbox message cached in the emails table, keyed by
// the RFC-822 Message-ID so refetches are free.
type Email struct {
	MessageID     string        `json:"message_id"`
	Subject       string        `json:"subject"`
	From          string        `json:"from"`
	To            string        `json:"to"`
	Date          time.Time     `json:"date"`
	BodyText      string        `json:"body_text"`
	BodyHTML      string        `json:"body_html"`
	Attachments   int           `json:"attachments"`
	Priority      EmailPriority `json:"priority"`
	PriorityScore int           `json:"priority_score"`
	FetchedAt     time.Time     `json:"fetched_at"`
}

// CandidateEvent is the detector's raw guess at an event inside an email.
// It is transient: the classifier turns it into an Item and discards it.
type CandidateEvent struct {
	EmailID   string   `json:"email_id"` // RFC-822 Message-ID
	Title     string   `json:"title"`
	DateTime  string   `json:"date_time,omitempty"` // ISO 8601 or empty
	Location  string   `json:"location,omitempty"`
	URL       string   `json:"url,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
	EventType string   `json:"event_type,omitempty"` // the LLM's raw guess
}

// Streak tracks consecutive-day completion of a named activity.
type Streak struct {
	Activity         string    `json:"activity"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastCompleted    string    `json:"last_completed"` // YYYY-MM-DD
	TotalCompletions int       `json:"total_completions"`
	UpdatedAt        time.Time `json:"updated_at"`
}
