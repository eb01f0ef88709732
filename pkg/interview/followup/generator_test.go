package followup

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

type fakeProvider struct {
	resp string
	err  error
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return f.resp, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCanned(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *bant.BantRecord)
		score  bant.BantScore
		slot   bant.Slot
		want   []string
	}{
		{
			name:   "budget never asked",
			mutate: func(r *bant.BantRecord) {},
			slot:   bant.SlotBudget,
			want:   []string{prompt.FollowupBudgetUnknown},
		},
		{
			name: "budget explicitly absent",
			mutate: func(r *bant.BantRecord) {
				r.Budget.HaveBudget = boolPtr(false)
			},
			slot: bant.SlotBudget,
			want: []string{prompt.FollowupBudgetNoBudget},
		},
		{
			name:   "decent budget score asks nothing",
			mutate: func(r *bant.BantRecord) {},
			score:  bant.BantScore{Budget: bant.SlotScore{Value: 15}},
			slot:   bant.SlotBudget,
			want:   nil,
		},
		{
			name: "unknown decision maker",
			mutate: func(r *bant.BantRecord) {
				r.Authority.DecisionMaker = strPtr(bant.UnknownDecisionMaker)
			},
			slot: bant.SlotAuthority,
			want: []string{prompt.FollowupAuthorityVague},
		},
		{
			name:   "authority never asked",
			mutate: func(r *bant.BantRecord) {},
			slot:   bant.SlotAuthority,
			want:   []string{prompt.FollowupAuthorityEmpty},
		},
		{
			name: "explicitly no pains",
			mutate: func(r *bant.BantRecord) {
				r.Need.PainPoints = []string{}
			},
			slot: bant.SlotNeed,
			want: []string{prompt.FollowupNeedNoPains},
		},
		{
			name: "unknown timeframe",
			mutate: func(r *bant.BantRecord) {
				tf := bant.TimeframeUnknown
				r.Timing.Timeframe = &tf
			},
			score: bant.BantScore{Timing: bant.SlotScore{Value: 2}},
			slot:  bant.SlotTiming,
			want:  []string{prompt.FollowupTimingUnknown},
		},
		{
			name: "timing threshold is lower",
			mutate: func(r *bant.BantRecord) {
				tf := bant.TimeframeUnknown
				r.Timing.Timeframe = &tf
			},
			score: bant.BantScore{Timing: bant.SlotScore{Value: 10}},
			slot:  bant.SlotTiming,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := bant.NewRecord("DEAL-001")
			tt.mutate(&record)
			got := Canned(&record, &tt.score, tt.slot)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateUsesModelOutput(t *testing.T) {
	resp := `{"followups":{"budget":["Какой диапазон сумм?","В какой валюте?","Кто утверждает бюджет?"]}}`
	gen := NewGenerator(&fakeProvider{resp: resp}, zap.NewNop())
	record := bant.NewRecord("DEAL-001")

	got, err := gen.Generate(context.Background(), &record, &bant.BantScore{}, bant.SlotBudget, nil)
	require.NoError(t, err)

	// Capped at MaxPerSlot, only the current slot's questions.
	assert.Equal(t, []string{"Какой диапазон сумм?", "В какой валюте?"}, got)
}

func TestGenerateFallsBackOnGarbage(t *testing.T) {
	gen := NewGenerator(&fakeProvider{resp: "не понимаю"}, zap.NewNop())
	record := bant.NewRecord("DEAL-001")

	got, err := gen.Generate(context.Background(), &record, &bant.BantScore{}, bant.SlotBudget, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{prompt.FollowupBudgetUnknown}, got)
}

func TestGenerateSurfacesTransportError(t *testing.T) {
	gen := NewGenerator(&fakeProvider{err: &llm.TransportError{Provider: "gigachat"}}, zap.NewNop())
	record := bant.NewRecord("DEAL-001")

	_, err := gen.Generate(context.Background(), &record, &bant.BantScore{}, bant.SlotBudget, nil)
	require.Error(t, err)
	assert.IsType(t, &llm.TransportError{}, err)
}
