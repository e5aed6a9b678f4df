package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/behavior"
	"github.com/xaenox/dayflow/internal/extract"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
)

// TaskWorkflow fills the task slots: title, urgency, importance, effort,
// deadline, project, category, notes. Completion requires title, urgency,
// importance and an explicit user confirmation.
type TaskWorkflow struct {
	state  *models.ConversationState
	llm    llm.Client
	clock  Clock
	logger *zap.Logger
}

func NewTaskWorkflow(client llm.Client, clock Clock, logger *zap.Logger) *TaskWorkflow {
	state := models.NewConversationState()
	state.Set("effort", "3")
	return &TaskWorkflow{state: state, llm: client, clock: clock, logger: logger}
}

// State exposes the conversation state for goal-workflow seeding.
func (w *TaskWorkflow) State() *models.ConversationState {
	return w.state
}

func (w *TaskWorkflow) IsComplete() bool {
	s := w.state
	return s.Has("title") && s.Has("urgency") && s.Has("importance") && s.UserConfirmed
}

// taskSlotOrder is the sequential-fill order for slots the upfront pass
// did not cover. "priority" stands for the urgency/importance pair and
// "extras" for the open notes/tags/context prompt.
var taskSlotOrder = []string{"deadline", "priority", "category", "project", "extras"}

func (w *TaskWorkflow) nextSlot() string {
	s := w.state
	for _, slot := range taskSlotOrder {
		switch slot {
		case "priority":
			if !s.Has("urgency") {
				return slot
			}
		case "project":
			category := s.Get("category")
			if (category == "business" || category == "work") && !s.Has("project") {
				return slot
			}
		default:
			if !s.Has(slot) {
				return slot
			}
		}
	}
	return ""
}

func (w *TaskWorkflow) NextQuestion() string {
	if !w.state.UpfrontExtractionDone {
		return "What do you need to get done?"
	}
	switch w.nextSlot() {
	case "deadline":
		return "When does this need to be done? (e.g. tomorrow, friday, in 3 days — or 'skip')"
	case "priority":
		return "How urgent and important is it? (critical, urgent, important, medium, low)"
	case "category":
		return "Which category fits best? (business, personal, learning, health)"
	case "project":
		return "Which project does this belong to? (or 'skip')"
	case "extras":
		return "Anything else — notes, tags, context? (or 'skip')"
	}
	return ""
}

func (w *TaskWorkflow) ProcessResponse(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	now := orNow(w.clock)
	s := w.state

	switch {
	case !s.UpfrontExtractionDone:
		w.extractUpfront(ctx, text, now)
		if s.RecurringPattern != nil {
			s.SuggestionPending = true
			return &Reply{Message: fmt.Sprintf(
				"This looks like a recurring goal: %s on %s. Want me to track it as a weekly goal instead of a one-off task? (yes/no)",
				s.Get("title"), strings.Join(s.RecurringPattern.Days, ", "))}, nil
		}
		return w.advance(), nil

	case s.SuggestionPending:
		s.SuggestionPending = false
		if isYes(text) {
			s.UserWantsGoal = true
			return &Reply{CreateGoal: true, Message: "Great, let's set it up as a goal."}, nil
		}
		s.RecurringPattern = nil
		return w.advance(), nil

	case s.ConfirmationAsked:
		return w.handleConfirmation(ctx, text, now)

	default:
		if reply := w.fillSlot(ctx, text, now); reply != nil {
			return reply, nil
		}
		return w.advance(), nil
	}
}

// advance emits the next slot prompt, or the confirmation summary once all
// slots are offered.
func (w *TaskWorkflow) advance() *Reply {
	if q := w.NextQuestion(); q != "" {
		return &Reply{Message: q}
	}
	w.state.ConfirmationAsked = true
	return &Reply{Message: w.summary()}
}

func (w *TaskWorkflow) fillSlot(ctx context.Context, text string, now time.Time) *Reply {
	s := w.state
	switch w.nextSlot() {
	case "deadline":
		if isSkip(text) {
			s.Slots["deadline"] = ""
			return nil
		}
		d, ok := extract.DateLLM(ctx, w.llm, text, now)
		if !ok {
			return &Reply{Message: "I couldn't read that as a date. Try 'tomorrow', 'friday' or 'in 3 days' — or 'skip'."}
		}
		s.Set("deadline", d)
	case "priority":
		score, _ := extract.Priority(text)
		w.setScore(score)
	case "category":
		s.Set("category", parseCategory(text))
	case "project":
		if !isSkip(text) && text != "" {
			s.Set("project", text)
		} else {
			s.Slots["project"] = ""
		}
	case "extras":
		if !isSkip(text) && text != "" {
			s.Set("notes", text)
		}
		s.Slots["extras"] = ""
	}
	return nil
}

// parseCategory accepts a literal category name or keyword-classifies the
// text, defaulting to personal.
func parseCategory(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch lower {
	case "business", "personal", "learning", "health", "work":
		if lower == "work" {
			return "business"
		}
		return lower
	}
	if c, ok := extract.Category(lower); ok {
		return c
	}
	return "personal"
}

func (w *TaskWorkflow) setScore(score extract.Score) {
	w.state.Set("urgency", strconv.Itoa(score.Urgency))
	w.state.Set("importance", strconv.Itoa(score.Importance))
}

func (w *TaskWorkflow) score() extract.Score {
	urgency, _ := strconv.Atoi(w.state.Get("urgency"))
	importance, _ := strconv.Atoi(w.state.Get("importance"))
	return extract.Score{Urgency: urgency, Importance: importance}
}

func (w *TaskWorkflow) summary() string {
	s := w.state
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I have:\n- Task: %s\n", s.Get("title"))
	if s.Get("deadline") != "" {
		fmt.Fprintf(&b, "- Deadline: %s\n", s.Get("deadline"))
	}
	score := w.score()
	fmt.Fprintf(&b, "- Urgency %d/5, importance %d/5 (quadrant %s)\n",
		score.Urgency, score.Importance, behavior.Quadrant(score))
	if s.Get("category") != "" {
		fmt.Fprintf(&b, "- Category: %s\n", s.Get("category"))
	}
	if s.Get("project") != "" {
		fmt.Fprintf(&b, "- Project: %s\n", s.Get("project"))
	}
	if s.Get("notes") != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", s.Get("notes"))
	}
	b.WriteString("Save it? (yes / change <field>)")
	return b.String()
}

func (w *TaskWorkflow) handleConfirmation(ctx context.Context, text string, now time.Time) (*Reply, error) {
	s := w.state

	if isYes(text) {
		s.UserConfirmed = true
		return &Reply{Message: "Task saved.", Done: true}, nil
	}

	if strings.HasPrefix(strings.ToLower(text), "change") {
		return &Reply{Message: "Tell me the field and the new value, e.g. 'deadline friday' or 'category business'."}, nil
	}

	// Free text: absorb whatever fields we can read and show the summary again.
	if d, ok := extract.Date(text, now); ok {
		s.Set("deadline", d)
	}
	if score, ok := extract.Priority(text); ok {
		w.setScore(score)
	}
	if c, ok := extract.Category(text); ok {
		s.Set("category", c)
	}
	return &Reply{Message: w.summary()}, nil
}

type taskExtraction struct {
	Title              string   `json:"title"`
	Deadline           string   `json:"deadline"`
	Urgency            int      `json:"urgency"`
	Importance         int      `json:"importance"`
	Effort             int      `json:"effort"`
	Project            string   `json:"project"`
	Category           string   `json:"category"`
	Notes              string   `json:"notes"`
	Tags               []string `json:"tags"`
	Context            string   `json:"context"`
	RecurringDays      []string `json:"recurring_days"`
	RecurringFrequency string   `json:"recurring_frequency"`
	RecurringDuration  int      `json:"recurring_duration"`
}

func taskExtractionPrompt(now time.Time) string {
	return fmt.Sprintf(`You extract task fields from a single user utterance. Today is %s (%s).
Return a JSON object with any of these keys you can fill, omitting the rest:
title, deadline (YYYY-MM-DD), urgency (1-5), importance (1-5), effort (1-5),
project, category (business|personal|learning|health), notes, tags, context,
recurring_days (lowercase weekday names, only for weekly-repeating intent),
recurring_frequency, recurring_duration (minutes per occurrence).`,
		now.Format("2006-01-02"), now.Weekday())
}

func (w *TaskWorkflow) extractUpfront(ctx context.Context, text string, now time.Time) {
	s := w.state
	s.UpfrontExtractionDone = true

	var ex taskExtraction
	if err := llm.CompleteJSON(ctx, w.llm, taskExtractionPrompt(now), text, &ex); err != nil {
		if w.logger != nil {
			w.logger.Debug("Upfront extraction falling back to rules", zap.Error(err))
		}
		ex = ruleExtractTask(text, now)
	}

	if ex.Title == "" {
		ex.Title = capitalize(text)
	}
	s.Set("title", ex.Title)
	s.Set("deadline", ex.Deadline)
	if ex.Urgency > 0 && ex.Importance > 0 {
		w.setScore(extract.Score{Urgency: ex.Urgency, Importance: ex.Importance})
	}
	if ex.Effort > 0 {
		s.Set("effort", strconv.Itoa(ex.Effort))
	}
	s.Set("project", ex.Project)
	s.Set("category", ex.Category)
	s.Set("notes", ex.Notes)
	s.Set("tags", strings.Join(ex.Tags, ","))
	s.Set("context", ex.Context)

	if len(ex.RecurringDays) > 0 {
		frequency := ex.RecurringFrequency
		if frequency == "" {
			frequency = "weekly"
		}
		s.RecurringPattern = &models.RecurringPattern{
			Days:      ex.RecurringDays,
			Frequency: frequency,
			Duration:  ex.RecurringDuration,
		}
	}
}

var (
	durationPhraseRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(hours?|hrs?|minutes?|mins?)\b`)
	repeatPhraseRe   = regexp.MustCompile(`(?i)\b(each day|every day|daily|per day|a day|each week|every week|weekly)\b`)
	dayWordRe        = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

// ruleExtractTask is the deterministic upfront pass: weekday mentions,
// duration, category and priority keywords, with the title being whatever
// remains once schedule phrases are stripped.
func ruleExtractTask(text string, now time.Time) taskExtraction {
	lower := strings.ToLower(text)
	var ex taskExtraction

	days := extract.Weekdays(lower)
	if len(days) >= 2 {
		ex.RecurringDays = days
		ex.RecurringFrequency = "weekly"
		if d, ok := extract.Duration(lower); ok {
			ex.RecurringDuration = d
		}
	} else if d, ok := extract.Date(lower, now); ok {
		ex.Deadline = d
	}

	if c, ok := extract.Category(lower); ok {
		ex.Category = c
	}
	if score, ok := extract.Priority(lower); ok {
		ex.Urgency = score.Urgency
		ex.Importance = score.Importance
	}

	ex.Title = taskTitle(text)
	return ex
}

// taskTitle strips schedule phrasing from the utterance and capitalizes
// the remainder, preserving the user's own casing otherwise.
func taskTitle(text string) string {
	title := durationPhraseRe.ReplaceAllString(text, " ")
	title = repeatPhraseRe.ReplaceAllString(title, " ")
	title = dayWordRe.ReplaceAllString(title, " ")
	title = spacesRe.ReplaceAllString(title, " ")
	title = strings.Trim(title, " ,.-")
	for _, suffix := range []string{" on", " at", " by", " every"} {
		title = strings.TrimSuffix(title, suffix)
	}
	if title == "" {
		return capitalize(text)
	}
	return capitalize(title)
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Item builds the unified record for a confirmed task.
func (w *TaskWorkflow) Item(id string) *models.Item {
	s := w.state
	now := orNow(w.clock)

	date := s.Get("deadline")
	if date == "" {
		date = now.Format("2006-01-02")
	}

	quadrant := behavior.Quadrant(w.score())
	priority := models.PriorityLow
	switch quadrant {
	case "I":
		priority = models.PriorityHigh
	case "II", "III":
		priority = models.PriorityMed
	}

	var descParts []string
	if s.Get("project") != "" {
		descParts = append(descParts, "project: "+s.Get("project"))
	}
	if s.Get("tags") != "" {
		descParts = append(descParts, "tags: "+s.Get("tags"))
	}
	if s.Get("context") != "" {
		descParts = append(descParts, s.Get("context"))
	}
	if s.Get("notes") != "" {
		descParts = append(descParts, s.Get("notes"))
	}

	return &models.Item{
		ID:          id,
		Type:        models.TypeTask,
		Title:       s.Get("title"),
		Description: strings.Join(descParts, "\n"),
		Date:        date,
		Status:      models.StatusUpcoming,
		Source:      models.SourceManual,
		Priority:    priority,
		Quadrant:    quadrant,
	}
}
