package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
)

// Detector asks the model whether an email describes an event. Emails that
// fail detection are skipped, never fatal for the batch.
type Detector struct {
	llm    llm.Client
	logger *zap.Logger
}

func NewDetector(client llm.Client, logger *zap.Logger) *Detector {
	return &Detector{llm: client, logger: logger}
}

const detectorPrompt = `You read a single email and decide whether it describes a meeting, webinar, deadline or appointment.
Return a JSON object:
{"has_event": true|false, "title": "...", "date_time": "ISO 8601 or empty", "location": "...", "url": "...", "attendees": ["..."], "event_type": "meeting|webinar|deadline|appointment"}
Set has_event to false when the email has no actionable event.`

type detectorResponse struct {
	HasEvent  bool     `json:"has_event"`
	Title     string   `json:"title"`
	DateTime  string   `json:"date_time"`
	Location  string   `json:"location"`
	URL       string   `json:"url"`
	Attendees []string `json:"attendees"`
	EventType string   `json:"event_type"`
}

// Detect returns the candidate event for one email, or nil when the email
// carries none (or the model is unavailable).
func (d *Detector) Detect(ctx context.Context, email *models.Email) (*models.CandidateEvent, error) {
	if d.llm == nil {
		return nil, llm.ErrUnavailable
	}

	body := email.BodyText
	if body == "" {
		body = email.BodyHTML
	}
	input := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
		email.From, email.Subject, email.Date.Format("2006-01-02 15:04"), truncate(body, 2000))

	var resp detectorResponse
	if err := llm.CompleteJSON(ctx, d.llm, detectorPrompt, input, &resp); err != nil {
		return nil, err
	}
	if !resp.HasEvent || resp.Title == "" {
		return nil, nil
	}

	return &models.CandidateEvent{
		EmailID:   email.MessageID,
		Title:     resp.Title,
		DateTime:  resp.DateTime,
		Location:  resp.Location,
		URL:       resp.URL,
		Attendees: resp.Attendees,
		EventType: resp.EventType,
	}, nil
}

// DetectBatch runs detection over a batch, isolating per-email failures.
func (d *Detector) DetectBatch(ctx context.Context, emails []*models.Email) []*models.CandidateEvent {
	var candidates []*models.CandidateEvent
	for _, email := range emails {
		candidate, err := d.Detect(ctx, email)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("Event detection failed",
					zap.Error(err),
					zap.String("message_id", email.MessageID))
			}
			continue
		}
		if candidate != nil {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}
