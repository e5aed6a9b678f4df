package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/extract"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
)

const defaultAppointmentMinutes = 60

// CalendarEvent is the payload handed to the external calendar once an
// appointment is confirmed.
type CalendarEvent struct {
	Summary     string   `json:"summary"`
	StartTime   string   `json:"start_time"` // 2006-01-02T15:04:05
	EndTime     string   `json:"end_time"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

// AppointmentWorkflow fills title, date, time and duration in sequence,
// then offers an open details prompt and a confirmation.
type AppointmentWorkflow struct {
	state  *models.ConversationState
	llm    llm.Client
	clock  Clock
	logger *zap.Logger
}

func NewAppointmentWorkflow(client llm.Client, clock Clock, logger *zap.Logger) *AppointmentWorkflow {
	return &AppointmentWorkflow{state: models.NewConversationState(), llm: client, clock: clock, logger: logger}
}

func (w *AppointmentWorkflow) IsComplete() bool {
	s := w.state
	return s.Has("title") && s.Has("date") && s.Has("time") && s.Has("duration") && s.UserConfirmed
}

var appointmentSlotOrder = []string{"title", "date", "time", "duration", "details"}

func (w *AppointmentWorkflow) nextSlot() string {
	for _, slot := range appointmentSlotOrder {
		if !w.state.Has(slot) {
			return slot
		}
	}
	return ""
}

func (w *AppointmentWorkflow) NextQuestion() string {
	switch w.nextSlot() {
	case "title":
		return "What's the appointment for?"
	case "date":
		return "What day is it? (e.g. tomorrow, friday, 2025-03-01)"
	case "time":
		return "What time? (e.g. 3pm, 14:30)"
	case "duration":
		return fmt.Sprintf("How long will it take? (Enter for %d minutes)", defaultAppointmentMinutes)
	case "details":
		return "Any details — location, description, attendees? (or 'skip')"
	}
	return ""
}

func (w *AppointmentWorkflow) ProcessResponse(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	now := orNow(w.clock)
	s := w.state

	if s.ConfirmationAsked {
		return w.handleConfirmation(ctx, text, now)
	}

	if reply := w.fillSlot(ctx, text, now); reply != nil {
		return reply, nil
	}
	if q := w.NextQuestion(); q != "" {
		return &Reply{Message: q}, nil
	}
	s.ConfirmationAsked = true
	return &Reply{Message: w.summary()}, nil
}

func (w *AppointmentWorkflow) fillSlot(ctx context.Context, text string, now time.Time) *Reply {
	s := w.state
	switch w.nextSlot() {
	case "title":
		if text == "" {
			return &Reply{Message: w.NextQuestion()}
		}
		s.Set("title", capitalize(text))
		// The opening line often carries the schedule too.
		if d, ok := extract.Date(text, now); ok {
			s.Set("date", d)
		}
		if t, ok := extract.Time(text); ok {
			s.Set("time", t)
		}
	case "date":
		d, ok := extract.DateLLM(ctx, w.llm, text, now)
		if !ok {
			return &Reply{Message: "I couldn't read that as a date. Try 'tomorrow', 'friday' or a YYYY-MM-DD date."}
		}
		s.Set("date", d)
	case "time":
		t, ok := extract.Time(text)
		if !ok {
			return &Reply{Message: "I couldn't read that as a time. Try '3pm' or '14:30'."}
		}
		s.Set("time", t)
	case "duration":
		if text == "" || isSkip(text) {
			s.Set("duration", strconv.Itoa(defaultAppointmentMinutes))
			return nil
		}
		minutes, ok := extract.Duration(text)
		if !ok {
			return &Reply{Message: "I couldn't read that as a duration. Try '30 minutes' or '2 hours' — or press Enter for the default."}
		}
		s.Set("duration", strconv.Itoa(minutes))
	case "details":
		if !isSkip(text) && text != "" {
			w.absorbDetails(text)
		}
		s.Slots["details"] = ""
	}
	return nil
}

// absorbDetails splits an open details reply: email-looking words become
// attendees, the rest is kept as the description.
func (w *AppointmentWorkflow) absorbDetails(text string) {
	s := w.state
	var attendees, rest []string
	for _, word := range strings.Fields(text) {
		if strings.Contains(word, "@") {
			attendees = append(attendees, strings.Trim(word, ",;"))
		} else {
			rest = append(rest, word)
		}
	}
	if len(attendees) > 0 {
		s.Set("attendees", strings.Join(attendees, ","))
	}
	if len(rest) > 0 {
		s.Set("description", strings.Join(rest, " "))
	}
}

func (w *AppointmentWorkflow) summary() string {
	s := w.state
	var b strings.Builder
	fmt.Fprintf(&b, "Here's the appointment:\n- %s\n- %s at %s, %s minutes\n",
		s.Get("title"), s.Get("date"), s.Get("time"), s.Get("duration"))
	if s.Get("description") != "" {
		fmt.Fprintf(&b, "- %s\n", s.Get("description"))
	}
	if s.Get("attendees") != "" {
		fmt.Fprintf(&b, "- With: %s\n", s.Get("attendees"))
	}
	b.WriteString("Book it? (yes / change <field>)")
	return b.String()
}

func (w *AppointmentWorkflow) handleConfirmation(ctx context.Context, text string, now time.Time) (*Reply, error) {
	s := w.state

	if isYes(text) {
		s.UserConfirmed = true
		return &Reply{Message: "Appointment saved.", Done: true}, nil
	}

	if strings.HasPrefix(strings.ToLower(text), "change") {
		return &Reply{Message: "Tell me the field and the new value, e.g. 'time 4pm' or 'date friday'."}, nil
	}

	if d, ok := extract.Date(text, now); ok {
		s.Set("date", d)
	}
	if t, ok := extract.Time(text); ok {
		s.Set("time", t)
	}
	if minutes, ok := extract.Duration(text); ok {
		s.Set("duration", strconv.Itoa(minutes))
	}
	return &Reply{Message: w.summary()}, nil
}

// Event builds the calendar payload for a confirmed appointment.
func (w *AppointmentWorkflow) Event() *CalendarEvent {
	s := w.state
	minutes, _ := strconv.Atoi(s.Get("duration"))
	if minutes <= 0 {
		minutes = defaultAppointmentMinutes
	}

	start := s.Get("date") + "T" + s.Get("time") + ":00"
	end := start
	if t, err := time.Parse("2006-01-02T15:04:05", start); err == nil {
		end = t.Add(time.Duration(minutes) * time.Minute).Format("2006-01-02T15:04:05")
	}

	return &CalendarEvent{
		Summary:     s.Get("title"),
		StartTime:   start,
		EndTime:     end,
		Location:    s.Get("location"),
		Description: s.Get("description"),
		Attendees:   models.ParseParticipants(s.Get("attendees")),
	}
}

// Item builds the unified record for a confirmed appointment.
func (w *AppointmentWorkflow) Item(id string) *models.Item {
	s := w.state
	event := w.Event()

	endTime := ""
	// Drop the end time when the appointment spills past midnight; the item
	// carries a single calendar date.
	if len(event.EndTime) >= 16 && event.EndTime[:10] == event.StartTime[:10] {
		endTime = event.EndTime[11:16]
	}

	return &models.Item{
		ID:           id,
		Type:         models.TypeAppointment,
		Title:        s.Get("title"),
		Description:  s.Get("description"),
		Date:         s.Get("date"),
		StartTime:    s.Get("time"),
		EndTime:      endTime,
		Status:       models.StatusUpcoming,
		Source:       models.SourceManual,
		Location:     s.Get("location"),
		Participants: models.ParseParticipants(s.Get("attendees")),
	}
}
