package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bant-agent-be/internal/dto"
	"bant-agent-be/internal/repository/memory"
	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/interview/extract"
	"bant-agent-be/pkg/interview/flow"
	"bant-agent-be/pkg/interview/followup"
	"bant-agent-be/pkg/interview/prompt"
	"bant-agent-be/pkg/interview/scoring"
	"bant-agent-be/pkg/llm"
)

// queuedProvider answers extraction calls from a queue; every other
// prompt gets garbage so scoring and follow-ups use their fallbacks.
type queuedProvider struct {
	extractions []string
	calls       int
}

func (p *queuedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 && strings.Contains(history[0].Content, "извлеки BANT") {
		if p.calls < len(p.extractions) {
			resp := p.extractions[p.calls]
			p.calls++
			return resp, nil
		}
		return "{}", nil
	}
	return "недоступно", nil
}

func (p *queuedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type recordingPublisher struct {
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func newTestService(provider llm.LLMProvider, pub IPublisherService) IInterviewService {
	log := zap.NewNop()
	engine := flow.NewFlow(
		extract.NewExtractor(provider, log, prompt.ExtractionPrompt, prompt.RepairPrompt),
		scoring.NewScorer(provider, log),
		followup.NewGenerator(provider, log),
		log,
	)
	store := memory.NewSessionStore(time.Hour)
	return NewInterviewService(store, nil, engine, pub, nopLogger{})
}

func TestStartCreatesSessionAndAsksBudget(t *testing.T) {
	svc := newTestService(&queuedProvider{}, &recordingPublisher{})

	resp, err := svc.Start(context.Background(), &dto.StartSessionRequest{DealID: "DEAL-001"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Question)
	assert.Equal(t, prompt.Questions[bant.SlotBudget], *resp.Question)

	shown, err := svc.Show(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "DEAL-001", shown.DealID)
	assert.False(t, shown.Completed)
	require.NotNil(t, shown.CurrentSlot)
	assert.Equal(t, bant.SlotBudget, *shown.CurrentSlot)
}

func TestAnswerUnknownSessionIs404(t *testing.T) {
	svc := newTestService(&queuedProvider{}, &recordingPublisher{})

	_, err := svc.Answer(context.Background(), "missing", &dto.AnswerRequest{Text: "нет"})
	require.Error(t, err)

	ferr, ok := err.(*fiber.Error)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusNotFound, ferr.Code)
}

func TestAnswerAdvancesAndPersists(t *testing.T) {
	provider := &queuedProvider{extractions: []string{
		`{"budget":{"have_budget":true,"amount_min":1000000,"amount_max":1000000,"currency":"RUB","budget_status":"AVAILABLE"}}`,
	}}
	svc := newTestService(provider, &recordingPublisher{})

	started, err := svc.Start(context.Background(), &dto.StartSessionRequest{DealID: "DEAL-001"})
	require.NoError(t, err)

	resp, err := svc.Answer(context.Background(), started.SessionID, &dto.AnswerRequest{Text: "Около миллиона рублей"})
	require.NoError(t, err)
	assert.False(t, resp.Completed)
	require.NotNil(t, resp.Question)
	assert.Equal(t, prompt.Questions[bant.SlotAuthority], *resp.Question)

	// The merged record is visible on a later read.
	shown, err := svc.Show(context.Background(), started.SessionID)
	require.NoError(t, err)
	require.NotNil(t, shown.Record.Budget.AmountMin)
	assert.Equal(t, 1000000.0, *shown.Record.Budget.AmountMin)
	assert.Len(t, shown.History, 3)
}

func TestFullInterviewPublishesCompletion(t *testing.T) {
	provider := &queuedProvider{extractions: []string{
		`{"budget":{"have_budget":true,"amount_min":500000,"amount_max":800000,"currency":"RUB","budget_status":"AVAILABLE"}}`,
		`{"authority":{"decision_maker":"Иван Петров","decision_process":"согласует с финдиректором"}}`,
		`{"need":{"pain_points":["медленные отчеты","ручной ввод"],"success_criteria":["отчеты за час","автоматизация"]}}`,
		`{"timing":{"timeframe":"this_quarter"}}`,
	}}
	pub := &recordingPublisher{}
	svc := newTestService(provider, pub)

	started, err := svc.Start(context.Background(), &dto.StartSessionRequest{DealID: "DEAL-001"})
	require.NoError(t, err)

	answers := []string{
		"Бюджет 500-800 тысяч рублей",
		"Решает Иван Петров, согласует с финдиректором",
		"Отчеты строятся сутки, всё вводят руками. Хотят отчеты за час",
		"Планируют в этом квартале",
	}

	var last *dto.AnswerResponse
	for _, answer := range answers {
		last, err = svc.Answer(context.Background(), started.SessionID, &dto.AnswerRequest{Text: answer})
		require.NoError(t, err)
	}

	assert.True(t, last.Completed)
	assert.Nil(t, last.Question)
	require.NotNil(t, last.Record.Score)
	assert.GreaterOrEqual(t, last.Record.Score.Total, 60)

	require.Len(t, pub.payloads, 1)
	assert.Contains(t, string(pub.payloads[0]), started.SessionID)
	assert.Contains(t, string(pub.payloads[0]), "DEAL-001")

	// A completed interview rejects further answers.
	_, err = svc.Answer(context.Background(), started.SessionID, &dto.AnswerRequest{Text: "еще"})
	require.Error(t, err)
	ferr, ok := err.(*fiber.Error)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusConflict, ferr.Code)
}

func TestResultsNeedDatabase(t *testing.T) {
	svc := newTestService(&queuedProvider{}, &recordingPublisher{})

	_, err := svc.GetResult(context.Background(), "DEAL-001")
	require.Error(t, err)
	ferr, ok := err.(*fiber.Error)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusServiceUnavailable, ferr.Code)

	_, err = svc.ExportResult(context.Background(), "DEAL-001")
	require.Error(t, err)
}
