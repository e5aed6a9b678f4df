package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/extract"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
)

// GoalWorkflow fills name, target_per_week, days, duration and notes. It can
// be seeded from a task whose recurrence suggestion was accepted, in which
// case only the confirmation step is live.
type GoalWorkflow struct {
	state  *models.ConversationState
	llm    llm.Client
	clock  Clock
	logger *zap.Logger
}

func NewGoalWorkflow(client llm.Client, clock Clock, logger *zap.Logger) *GoalWorkflow {
	state := models.NewConversationState()
	state.Set("duration", strconv.Itoa(defaultAppointmentMinutes))
	return &GoalWorkflow{state: state, llm: client, clock: clock, logger: logger}
}

// NewGoalWorkflowFromTask seeds a goal from a completed task recurrence
// branch: name from the title, days and duration from the detected pattern,
// target from the day count.
func NewGoalWorkflowFromTask(task *models.ConversationState, client llm.Client, clock Clock, logger *zap.Logger) *GoalWorkflow {
	w := NewGoalWorkflow(client, clock, logger)
	s := w.state

	s.Set("name", task.Get("title"))
	if pattern := task.RecurringPattern; pattern != nil {
		s.Set("days", strings.Join(pattern.Days, ","))
		s.Set("target_per_week", strconv.Itoa(len(pattern.Days)))
		if pattern.Duration > 0 {
			s.Set("duration", strconv.Itoa(pattern.Duration))
		}
	}
	s.UpfrontExtractionDone = true
	s.ConfirmationAsked = true
	return w
}

func (w *GoalWorkflow) IsComplete() bool {
	s := w.state
	return s.Has("name") && s.Has("target_per_week") && s.UserConfirmed
}

var goalSlotOrder = []string{"name", "target_per_week", "days", "notes"}

func (w *GoalWorkflow) nextSlot() string {
	for _, slot := range goalSlotOrder {
		if !w.state.Has(slot) {
			return slot
		}
	}
	return ""
}

func (w *GoalWorkflow) NextQuestion() string {
	if w.state.ConfirmationAsked {
		return w.summary()
	}
	switch w.nextSlot() {
	case "name":
		return "What's the goal?"
	case "target_per_week":
		return "How many times per week?"
	case "days":
		return "Which days? (e.g. monday wednesday friday — or 'skip')"
	case "notes":
		return "Any notes? (or 'skip')"
	}
	return ""
}

func (w *GoalWorkflow) ProcessResponse(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	s := w.state

	if s.ConfirmationAsked {
		if isYes(text) {
			s.UserConfirmed = true
			return &Reply{Message: "Goal saved.", Done: true}, nil
		}
		if isNo(text) {
			s.ConfirmationAsked = false
			return &Reply{Message: w.NextQuestion()}, nil
		}
		// Anything else is kept as notes, then the summary is shown again.
		if text != "" {
			s.Set("notes", text)
		}
		return &Reply{Message: w.summary()}, nil
	}

	if reply := w.fillSlot(text); reply != nil {
		return reply, nil
	}
	if q := w.NextQuestion(); q != "" {
		return &Reply{Message: q}, nil
	}
	s.ConfirmationAsked = true
	return &Reply{Message: w.summary()}, nil
}

func (w *GoalWorkflow) fillSlot(text string) *Reply {
	s := w.state
	switch w.nextSlot() {
	case "name":
		if text == "" {
			return &Reply{Message: w.NextQuestion()}
		}
		s.Set("name", capitalize(text))
		if days := extract.Weekdays(text); len(days) > 0 {
			s.Set("days", strings.Join(days, ","))
			s.Set("target_per_week", strconv.Itoa(len(days)))
		}
	case "target_per_week":
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || n < 1 || n > 7 {
			return &Reply{Message: "Give me a number of times per week, 1 to 7."}
		}
		s.Set("target_per_week", strconv.Itoa(n))
	case "days":
		if isSkip(text) {
			s.Slots["days"] = ""
			return nil
		}
		days := extract.Weekdays(text)
		if len(days) == 0 {
			return &Reply{Message: "Name the weekdays, e.g. 'monday wednesday friday' — or 'skip'."}
		}
		s.Set("days", strings.Join(days, ","))
	case "notes":
		if !isSkip(text) && text != "" {
			s.Set("notes", text)
		}
		s.Slots["notes"] = ""
	}
	return nil
}

func (w *GoalWorkflow) summary() string {
	s := w.state
	var b strings.Builder
	fmt.Fprintf(&b, "Here's the goal:\n- %s, %s times per week\n", s.Get("name"), s.Get("target_per_week"))
	if s.Get("days") != "" {
		fmt.Fprintf(&b, "- Days: %s\n", s.Get("days"))
	}
	fmt.Fprintf(&b, "- %s minutes per session\n", s.Get("duration"))
	if s.Get("notes") != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", s.Get("notes"))
	}
	b.WriteString("Save it? (yes, or reply with notes to add)")
	return b.String()
}

// Item builds the unified record for a confirmed goal.
func (w *GoalWorkflow) Item(id string) *models.Item {
	s := w.state
	now := orNow(w.clock)

	var descParts []string
	descParts = append(descParts, fmt.Sprintf("target: %s/week", s.Get("target_per_week")))
	if s.Get("days") != "" {
		descParts = append(descParts, "days: "+s.Get("days"))
	}
	descParts = append(descParts, fmt.Sprintf("duration: %s min", s.Get("duration")))
	if s.Get("notes") != "" {
		descParts = append(descParts, s.Get("notes"))
	}

	return &models.Item{
		ID:          id,
		Type:        models.TypeGoal,
		Title:       s.Get("name"),
		Description: strings.Join(descParts, "\n"),
		Date:        now.Format("2006-01-02"),
		Status:      models.StatusUpcoming,
		Source:      models.SourceManual,
	}
}
