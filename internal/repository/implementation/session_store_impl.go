package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bant-agent-be/internal/model"
	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/pkg/bant"
)

type SessionStoreImpl struct {
	db *gorm.DB
}

// NewSessionStore is the durable backend: one row per session, the
// state as a jsonb document, upserted on every save.
func NewSessionStore(db *gorm.DB) contract.SessionStore {
	return &SessionStoreImpl{db: db}
}

func (r *SessionStoreImpl) Save(ctx context.Context, session *bant.Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return err
	}
	row := model.InterviewSession{
		SessionID: session.SessionID,
		DealID:    session.DealID,
		State:     string(state),
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"deal_id", "state", "updated_at"}),
	}).Create(&row).Error
}

func (r *SessionStoreImpl) Get(ctx context.Context, sessionID string) (*bant.Session, error) {
	var row model.InterviewSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrSessionNotFound
		}
		return nil, err
	}
	var session bant.Session
	if err := json.Unmarshal([]byte(row.State), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionStoreImpl) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.InterviewSession{}).Error
}
