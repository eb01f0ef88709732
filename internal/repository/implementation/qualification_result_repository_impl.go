package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bant-agent-be/internal/entity"
	"bant-agent-be/internal/mapper"
	"bant-agent-be/internal/model"
	"bant-agent-be/internal/repository/contract"
)

type QualificationResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QualificationMapper
}

func NewQualificationResultRepository(db *gorm.DB) contract.QualificationResultRepository {
	return &QualificationResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewQualificationMapper(),
	}
}

func (r *QualificationResultRepositoryImpl) Create(ctx context.Context, result *entity.QualificationResult) error {
	m, err := r.mapper.ToModel(result)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *QualificationResultRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) (*entity.QualificationResult, error) {
	var m model.QualificationResult
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *QualificationResultRepositoryImpl) FindLatestByDealID(ctx context.Context, dealID string) (*entity.QualificationResult, error) {
	var m model.QualificationResult
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}
