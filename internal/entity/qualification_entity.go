package entity

import (
	"time"

	"github.com/google/uuid"

	"bant-agent-be/pkg/bant"
)

// QualificationResult is the durable outcome of one finished
// interview: the final record with its score, keyed by deal.
type QualificationResult struct {
	Id        uuid.UUID
	SessionID string
	DealID    string
	Stage     string
	Total     int
	Record    bant.BantRecord
	CreatedAt time.Time
}
