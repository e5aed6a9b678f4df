package models

// RecurringPattern captures weekly-repeating intent detected in a task utterance.
type RecurringPattern struct {
	Days      []string `json:"days"`      // lowercase weekday names
	Frequency string   `json:"frequency"` // e.g. "weekly"
	Duration  int      `json:"duration"`  // minutes per occurrence
}

// ConversationState is the ephemeral record for one slot-filling dialog.
// It lives in memory for the lifetime of the session and is discarded once
// the resulting item is created or the session is abandoned.
type ConversationState struct {
	Slots                 map[string]string
	UpfrontExtractionDone bool
	ConfirmationAsked     bool
	UserConfirmed         bool
	SuggestionPending     bool
	UserWantsGoal         bool
	RecurringPattern      *RecurringPattern
	UnderstoodFields      []string
}

func NewConversationState() *ConversationState {
	return &ConversationState{Slots: make(map[string]string)}
}

// Set stores a slot value, recording the field as understood.
func (s *ConversationState) Set(name, value string) {
	if value == "" {
		return
	}
	if _, ok := s.Slots[name]; !ok {
		s.UnderstoodFields = append(s.UnderstoodFields, name)
	}
	s.Slots[name] = value
}

func (s *ConversationState) Get(name string) string {
	return s.Slots[name]
}

func (s *ConversationState) Has(name string) bool {
	_, ok := s.Slots[name]
	return ok
}
