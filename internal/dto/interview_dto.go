package dto

import (
	"time"

	"bant-agent-be/pkg/bant"
)

type StartSessionRequest struct {
	DealID string `json:"deal_id" validate:"required"`
}

type StartSessionResponse struct {
	SessionID string  `json:"session_id"`
	Question  *string `json:"question"`
}

type AnswerRequest struct {
	Text string `json:"text" validate:"required"`
}

type AnswerResponse struct {
	SessionID string           `json:"session_id"`
	Question  *string          `json:"question"`
	Followups []string         `json:"followups"`
	Completed bool             `json:"completed"`
	Record    *bant.BantRecord `json:"record"`
}

type ShowSessionResponse struct {
	SessionID    string            `json:"session_id"`
	DealID       string            `json:"deal_id"`
	CurrentSlot  *bant.Slot        `json:"current_slot"`
	SlotAttempts map[bant.Slot]int `json:"slot_attempts"`
	Completed    bool              `json:"completed"`
	History      []bant.Utterance  `json:"history"`
	Record       *bant.BantRecord  `json:"record"`
}

type ResultResponse struct {
	DealID    string           `json:"deal_id"`
	SessionID string           `json:"session_id"`
	Stage     string           `json:"stage"`
	Total     int              `json:"total"`
	Record    *bant.BantRecord `json:"record"`
	CreatedAt time.Time        `json:"created_at"`
}

// InterviewCompletedMessage travels over the in-process bus from the
// interview service to the consumer worker.
type InterviewCompletedMessage struct {
	SessionID string `json:"session_id"`
	DealID    string `json:"deal_id"`
}
