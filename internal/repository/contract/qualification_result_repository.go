package contract

import (
	"context"

	"bant-agent-be/internal/entity"
)

type QualificationResultRepository interface {
	Create(ctx context.Context, result *entity.QualificationResult) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.QualificationResult, error)
	// FindLatestByDealID returns the most recent result for a deal, or
	// nil when the deal has never finished an interview.
	FindLatestByDealID(ctx context.Context, dealID string) (*entity.QualificationResult, error)
}
