package mapper

import (
	"encoding/json"

	"bant-agent-be/internal/entity"
	"bant-agent-be/internal/model"
	"bant-agent-be/pkg/bant"
)

type QualificationMapper struct{}

func NewQualificationMapper() *QualificationMapper {
	return &QualificationMapper{}
}

func (m *QualificationMapper) ToModel(e *entity.QualificationResult) (*model.QualificationResult, error) {
	recordJSON, err := json.Marshal(&e.Record)
	if err != nil {
		return nil, err
	}
	return &model.QualificationResult{
		Id:        e.Id,
		SessionID: e.SessionID,
		DealID:    e.DealID,
		Stage:     e.Stage,
		Total:     e.Total,
		Record:    string(recordJSON),
		CreatedAt: e.CreatedAt,
	}, nil
}

func (m *QualificationMapper) ToEntity(mod *model.QualificationResult) (*entity.QualificationResult, error) {
	var record bant.BantRecord
	if err := json.Unmarshal([]byte(mod.Record), &record); err != nil {
		return nil, err
	}
	return &entity.QualificationResult{
		Id:        mod.Id,
		SessionID: mod.SessionID,
		DealID:    mod.DealID,
		Stage:     mod.Stage,
		Total:     mod.Total,
		Record:    record,
		CreatedAt: mod.CreatedAt,
	}, nil
}
