package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
)

// Session is one live slot-filling dialog. Sessions are process-local;
// the per-session mutex serialises messages arriving concurrently from
// the HTTP and chat surfaces.
type Session struct {
	ID       string
	Kind     Kind
	Workflow Workflow

	mu sync.Mutex
}

// Result carries the outcome of one processed message up to the surface
// (HTTP handler or chat bot).
type Result struct {
	SessionID string         `json:"session_id"`
	Kind      Kind           `json:"kind"`
	Reply     *Reply         `json:"reply"`
	Item      *models.Item   `json:"item,omitempty"`  // set when the dialog completed
	Event     *CalendarEvent `json:"event,omitempty"` // set for completed appointments
}

// Manager owns the per-process session map and the task→goal handoff.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	llm    llm.Client
	clock  Clock
	logger *zap.Logger
}

func NewManager(client llm.Client, clock Clock, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		llm:      client,
		clock:    clock,
		logger:   logger,
	}
}

func (m *Manager) newWorkflow(kind Kind) (Workflow, error) {
	switch kind {
	case KindTask:
		return NewTaskWorkflow(m.llm, m.clock, m.logger), nil
	case KindAppointment:
		return NewAppointmentWorkflow(m.llm, m.clock, m.logger), nil
	case KindGoal:
		return NewGoalWorkflow(m.llm, m.clock, m.logger), nil
	}
	return nil, apperr.InvalidInput("kind", "unknown workflow kind: "+string(kind))
}

// Start opens a session and feeds it the first utterance.
func (m *Manager) Start(ctx context.Context, kind Kind, firstMessage string) (*Result, error) {
	wf, err := m.newWorkflow(kind)
	if err != nil {
		return nil, err
	}

	session := &Session{ID: uuid.New().String(), Kind: kind, Workflow: wf}
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	if firstMessage == "" {
		return &Result{SessionID: session.ID, Kind: kind, Reply: &Reply{Message: wf.NextQuestion()}}, nil
	}
	return m.Message(ctx, session.ID, firstMessage)
}

// Message advances a session with one user reply. Completed sessions are
// removed from the map; the caller persists the returned item.
func (m *Manager) Message(ctx context.Context, sessionID, text string) (*Result, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("session", sessionID)
	}

	// One message at a time per session: the workflows mutate shared
	// conversation state.
	session.mu.Lock()
	defer session.mu.Unlock()

	reply, err := session.Workflow.ProcessResponse(ctx, text)
	if err != nil {
		return nil, err
	}

	result := &Result{SessionID: session.ID, Kind: session.Kind, Reply: reply}

	if reply.CreateGoal {
		// Recurrence accepted: hand the session off to a goal workflow
		// seeded from the task state.
		task, ok := session.Workflow.(*TaskWorkflow)
		if !ok {
			return nil, apperr.InvalidInput("", "goal handoff from a non-task workflow")
		}
		goal := NewGoalWorkflowFromTask(task.State(), m.llm, m.clock, m.logger)
		m.mu.Lock()
		session.Kind = KindGoal
		session.Workflow = goal
		m.mu.Unlock()
		result.Kind = KindGoal
		result.Reply = &Reply{Message: goal.NextQuestion()}
		return result, nil
	}

	if reply.Done {
		itemID := uuid.New().String()
		switch wf := session.Workflow.(type) {
		case *TaskWorkflow:
			result.Item = wf.Item(itemID)
		case *AppointmentWorkflow:
			result.Item = wf.Item(itemID)
			result.Event = wf.Event()
		case *GoalWorkflow:
			result.Item = wf.Item(itemID)
		}
		m.End(sessionID)
	}

	return result, nil
}

// Get returns the live session, if any.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// End abandons a session.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
