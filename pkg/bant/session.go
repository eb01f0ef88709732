package bant

// Slot identifies one of the four BANT dimensions.
type Slot string

const (
	SlotBudget    Slot = "budget"
	SlotAuthority Slot = "authority"
	SlotNeed      Slot = "need"
	SlotTiming    Slot = "timing"
)

// DefaultRequiredSlots is the interview order. It also breaks ties:
// the first unanswered slot is asked first.
var DefaultRequiredSlots = []Slot{SlotBudget, SlotAuthority, SlotNeed, SlotTiming}

// Roles for history utterances.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Utterance is one role-tagged message in the interview history.
// Insertion order is meaningful.
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the per-interview state. It is the unit the store
// saves and loads; the flow never keeps state outside of it.
type Session struct {
	SessionID     string       `json:"session_id"`
	DealID        string       `json:"deal_id"`
	History       []Utterance  `json:"history"`
	RequiredSlots []Slot       `json:"required_slots"`
	CurrentSlot   *Slot        `json:"current_slot"`
	SlotAttempts  map[Slot]int `json:"slot_attempts"`
	LastQuestion  string       `json:"last_question,omitempty"`
	Record        BantRecord   `json:"record"`
}

// NewSession creates a fresh session with an empty record for a deal.
func NewSession(sessionID, dealID string) *Session {
	return &Session{
		SessionID:     sessionID,
		DealID:        dealID,
		History:       []Utterance{},
		RequiredSlots: append([]Slot(nil), DefaultRequiredSlots...),
		SlotAttempts:  map[Slot]int{},
		Record:        NewRecord(dealID),
	}
}

// Attempts returns how many times a slot has been asked.
func (s *Session) Attempts(slot Slot) int {
	if s.SlotAttempts == nil {
		return 0
	}
	return s.SlotAttempts[slot]
}

// RecordAttempt increments the question counter for a slot.
func (s *Session) RecordAttempt(slot Slot) {
	if s.SlotAttempts == nil {
		s.SlotAttempts = map[Slot]int{}
	}
	s.SlotAttempts[slot]++
}

// AppendUtterance adds one message to the interview history.
func (s *Session) AppendUtterance(role, content string) {
	s.History = append(s.History, Utterance{Role: role, Content: content})
}

// Completed reports whether the interview reached its terminal state.
func (s *Session) Completed() bool {
	return s.CurrentSlot == nil && len(s.History) > 0
}
