// Package workflow implements the slot-filling conversation engine. Each
// workflow is a state machine over named slots: NextQuestion returns the
// prompt for the first missing slot, ProcessResponse folds a user reply into
// the state. Transitions are pure functions of (state, input, clock); the LLM
// is only consulted for the upfront extraction pass and always has a
// deterministic rules fallback.
package workflow

import (
	"context"
	"strings"
	"time"
)

// Kind names a workflow type.
type Kind string

const (
	KindTask        Kind = "task"
	KindAppointment Kind = "appointment"
	KindGoal        Kind = "goal"
)

// Reply is the engine's answer to one user message. The engine never
// dead-ends: Message is always a prompt, a suggestion or a summary.
type Reply struct {
	Message string `json:"message"`
	Done    bool   `json:"done"`

	// CreateGoal signals that the task's recurrence suggestion was accepted
	// and the session should hand off to a seeded goal workflow.
	CreateGoal bool `json:"create_goal,omitempty"`
}

type Workflow interface {
	// NextQuestion returns the prompt for the first unfilled slot, or ""
	// once the workflow is waiting for nothing.
	NextQuestion() string
	// ProcessResponse advances the state machine with one user message.
	ProcessResponse(ctx context.Context, text string) (*Reply, error)
	IsComplete() bool
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm":
		return true
	}
	return false
}

func isNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no", "n", "nope", "nah":
		return true
	}
	return false
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "skip")
}

// Clock is injected so date resolution is testable; zero value means wall time.
type Clock func() time.Time

func orNow(c Clock) time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
