// FILE: internal/service/interview_service.go
package service

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bant-agent-be/internal/dto"
	"bant-agent-be/internal/pkg/logger"
	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/interview/flow"
)

type IInterviewService interface {
	Start(ctx context.Context, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	Answer(ctx context.Context, sessionID string, req *dto.AnswerRequest) (*dto.AnswerResponse, error)
	Show(ctx context.Context, sessionID string) (*dto.ShowSessionResponse, error)
	GetResult(ctx context.Context, dealID string) (*dto.ResultResponse, error)
	ExportResult(ctx context.Context, dealID string) ([]byte, error)
}

type interviewService struct {
	store            contract.SessionStore
	resultRepo       contract.QualificationResultRepository // nil when no database is configured
	engine           *flow.Flow
	publisherService IPublisherService
	log              logger.ILogger
}

func NewInterviewService(
	store contract.SessionStore,
	resultRepo contract.QualificationResultRepository,
	engine *flow.Flow,
	publisherService IPublisherService,
	log logger.ILogger,
) IInterviewService {
	return &interviewService{
		store:            store,
		resultRepo:       resultRepo,
		engine:           engine,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *interviewService) Start(ctx context.Context, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	session := bant.NewSession(uuid.NewString(), req.DealID)
	question := s.engine.Start(session)

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("interview", "session started", map[string]interface{}{
		"session_id": session.SessionID,
		"deal_id":    session.DealID,
	})

	return &dto.StartSessionResponse{
		SessionID: session.SessionID,
		Question:  question,
	}, nil
}

func (s *interviewService) Answer(ctx context.Context, sessionID string, req *dto.AnswerRequest) (*dto.AnswerResponse, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if err == contract.ErrSessionNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return nil, err
	}

	if session.Completed() {
		return nil, fiber.NewError(fiber.StatusConflict, "interview already completed")
	}

	turn, err := s.engine.ProcessAnswer(ctx, session, req.Text)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	if turn.Completed {
		s.publishCompleted(ctx, session)
	}

	return &dto.AnswerResponse{
		SessionID: session.SessionID,
		Question:  turn.Question,
		Followups: turn.Followups,
		Completed: turn.Completed,
		Record:    &session.Record,
	}, nil
}

func (s *interviewService) publishCompleted(ctx context.Context, session *bant.Session) {
	msg := dto.InterviewCompletedMessage{
		SessionID: session.SessionID,
		DealID:    session.DealID,
	}
	payload, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		// The answer itself succeeded; losing the completion event is
		// a reporting problem, not an interview problem.
		s.log.Error("interview", "failed to publish completion event", map[string]interface{}{
			"session_id": session.SessionID,
			"error":      err.Error(),
		})
		return
	}
	s.log.Info("interview", "session completed", map[string]interface{}{
		"session_id": session.SessionID,
		"deal_id":    session.DealID,
		"stage":      session.Record.Score.Stage,
		"total":      session.Record.Score.Total,
	})
}

func (s *interviewService) Show(ctx context.Context, sessionID string) (*dto.ShowSessionResponse, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if err == contract.ErrSessionNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return nil, err
	}

	return &dto.ShowSessionResponse{
		SessionID:    session.SessionID,
		DealID:       session.DealID,
		CurrentSlot:  session.CurrentSlot,
		SlotAttempts: session.SlotAttempts,
		Completed:    session.Completed(),
		History:      session.History,
		Record:       &session.Record,
	}, nil
}

func (s *interviewService) GetResult(ctx context.Context, dealID string) (*dto.ResultResponse, error) {
	if s.resultRepo == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "result storage is not configured")
	}

	result, err := s.resultRepo.FindLatestByDealID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "no qualification result for deal")
	}

	return &dto.ResultResponse{
		DealID:    result.DealID,
		SessionID: result.SessionID,
		Stage:     result.Stage,
		Total:     result.Total,
		Record:    &result.Record,
		CreatedAt: result.CreatedAt,
	}, nil
}

// ExportResult returns the final record as a standalone JSON document
// for CRM import.
func (s *interviewService) ExportResult(ctx context.Context, dealID string) ([]byte, error) {
	if s.resultRepo == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "result storage is not configured")
	}

	result, err := s.resultRepo.FindLatestByDealID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "no qualification result for deal")
	}

	return json.MarshalIndent(&result.Record, "", "  ")
}
