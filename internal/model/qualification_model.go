package model

import (
	"time"

	"github.com/google/uuid"
)

// QualificationResult is the storage shape; the full record travels
// as a JSON document in the record column.
type QualificationResult struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"column:session_id;index"`
	DealID    string    `gorm:"column:deal_id;index"`
	Stage     string    `gorm:"column:stage"`
	Total     int       `gorm:"column:total"`
	Record    string    `gorm:"column:record;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (QualificationResult) TableName() string {
	return "qualification_results"
}

// InterviewSession is the postgres session store row. The session
// state is one JSON document; deal_id is denormalized for lookups.
type InterviewSession struct {
	SessionID string    `gorm:"column:session_id;primaryKey"`
	DealID    string    `gorm:"column:deal_id;index"`
	State     string    `gorm:"column:state;type:jsonb"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}
