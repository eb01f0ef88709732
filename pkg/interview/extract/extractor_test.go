package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/interview/prompt"
	"bant-agent-be/pkg/llm"
)

// scriptedProvider returns canned responses in order, recording what
// it was asked and with which resolved options.
type scriptedProvider struct {
	responses []string
	err       error
	calls     int
	histories [][]llm.Message
	jsonModes []bool
}

func (s *scriptedProvider) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	var o llm.Options
	for _, opt := range opts {
		opt(&o)
	}
	s.histories = append(s.histories, history)
	s.jsonModes = append(s.jsonModes, o.JSONMode)
	if s.err != nil {
		return "", s.err
	}
	resp := s.responses[s.calls]
	if s.calls < len(s.responses)-1 {
		s.calls++
	}
	return resp, nil
}

func (s *scriptedProvider) Generate(ctx context.Context, p string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: p}}, opts...)
}

func newTestExtractor(p llm.LLMProvider) *Extractor {
	return NewExtractor(p, zap.NewNop(), prompt.ExtractionPrompt, prompt.RepairPrompt)
}

func TestExtractCleanJSON(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"budget":{"have_budget":true,"amount_min":500000,"amount_max":800000,"currency":"RUB","budget_status":"AVAILABLE"}}`,
	}}

	patch, err := newTestExtractor(provider).Extract(context.Background(),
		"Какой бюджет?", "Бюджет 500-800 тысяч рублей")
	require.NoError(t, err)
	require.NotNil(t, patch.Budget)

	assert.True(t, *patch.Budget.HaveBudget)
	assert.Equal(t, 500000.0, *patch.Budget.AmountMin)
	assert.Equal(t, bant.BudgetStatusAvailable, *patch.Budget.Status)
}

func TestExtractJSONWrappedInProse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Вот результат анализа:\n```json\n{\"need\":{\"pain_points\":[\"медленные отчеты\"]}}\n```\nГотово.",
	}}

	patch, err := newTestExtractor(provider).Extract(context.Background(),
		"Какие боли?", "Отчеты строятся сутки")
	require.NoError(t, err)
	require.NotNil(t, patch.Need)
	assert.Equal(t, []string{"медленные отчеты"}, patch.Need.PainPoints)
}

func TestExtractRepairRound(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"timing":{"timeframe":"скоро"}}`, // not a valid enum value
		`{"timing":{"timeframe":"this_quarter"}}`,
	}}

	patch, err := newTestExtractor(provider).Extract(context.Background(),
		"Когда?", "В этом квартале")
	require.NoError(t, err)
	require.NotNil(t, patch.Timing)
	assert.Equal(t, bant.TimeframeThisQuarter, *patch.Timing.Timeframe)

	// The repair round carried the previous output and the validator error.
	require.Len(t, provider.histories, 2)
	repair := provider.histories[1]
	assert.Equal(t, "assistant", repair[len(repair)-2].Role)
	assert.Contains(t, repair[len(repair)-1].Content, "timing.timeframe")
}

func TestExtractRecoveryDropsStrictJSONMode(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"ответ без структуры",
		`{"need":{"pain_points":["долгий цикл продаж"]}}`,
	}}

	patch, err := newTestExtractor(provider).Extract(context.Background(),
		"Какие боли?", "Сделки тянутся месяцами")
	require.NoError(t, err)
	require.NotNil(t, patch.Need)

	// Only the first call asks for enforced JSON; the recovery rounds go
	// out in plain mode so they do not share its failure mode.
	assert.Equal(t, []bool{true, false}, provider.jsonModes)
}

func TestExtractGivesUpToEmptyPatch(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"никакого json здесь нет",
		"и здесь тоже",
		"и в третий раз нет",
	}}

	patch, err := newTestExtractor(provider).Extract(context.Background(),
		"Какой бюджет?", "ну такое")
	require.NoError(t, err)
	assert.True(t, patch.Empty())
	// one initial call plus two repair rounds
	assert.Len(t, provider.histories, 3)
}

func TestExtractSurfacesTransportError(t *testing.T) {
	provider := &scriptedProvider{err: &llm.TransportError{Provider: "gigachat"}}

	_, err := newTestExtractor(provider).Extract(context.Background(), "Вопрос", "Ответ")
	require.Error(t, err)
	assert.IsType(t, &llm.TransportError{}, err)
}
