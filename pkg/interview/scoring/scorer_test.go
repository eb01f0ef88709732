package scoring

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"bant-agent-be/pkg/bant"
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

func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestHeuristicBudget(t *testing.T) {
	tests := []struct {
		name     string
		budget   bant.Budget
		wantVal  int
		wantConf float64
	}{
		{
			name:    "not asked",
			budget:  bant.Budget{Status: strPtr(bant.BudgetStatusNotAsked)},
			wantVal: 0, wantConf: 0.0,
		},
		{
			name:    "no budget",
			budget:  bant.Budget{Status: strPtr(bant.BudgetStatusNoBudget)},
			wantVal: 3, wantConf: 0.6,
		},
		{
			name: "full amounts",
			budget: bant.Budget{
				Status:    strPtr(bant.BudgetStatusAvailable),
				AmountMin: floatPtr(500000),
				AmountMax: floatPtr(800000),
				Currency:  strPtr(bant.CurrencyRUB),
			},
			wantVal: 22, wantConf: 0.9,
		},
		{
			name: "one amount",
			budget: bant.Budget{
				Status:    strPtr(bant.BudgetStatusAvailable),
				AmountMin: floatPtr(500000),
				Currency:  strPtr(bant.CurrencyRUB),
			},
			wantVal: 15, wantConf: 0.7,
		},
		{
			name:    "available without amounts",
			budget:  bant.Budget{Status: strPtr(bant.BudgetStatusAvailable), Currency: strPtr(bant.CurrencyRUB)},
			wantVal: 8, wantConf: 0.4,
		},
		{
			name:    "legacy flag only nil",
			budget:  bant.Budget{},
			wantVal: 0, wantConf: 0.0,
		},
		{
			name:    "legacy flag false",
			budget:  bant.Budget{HaveBudget: boolPtr(false)},
			wantVal: 3, wantConf: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreBudget(&tt.budget)
			if got.Value != tt.wantVal {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantVal)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestHeuristicAuthority(t *testing.T) {
	tests := []struct {
		name      string
		authority bant.Authority
		wantVal   int
	}{
		{
			name:      "never asked",
			authority: bant.Authority{},
			wantVal:   0,
		},
		{
			name:      "explicit unknown",
			authority: bant.Authority{DecisionMaker: strPtr("не знаем")},
			wantVal:   2,
		},
		{
			name:      "role only",
			authority: bant.Authority{DecisionMaker: strPtr("директор")},
			wantVal:   8,
		},
		{
			name:      "full name",
			authority: bant.Authority{DecisionMaker: strPtr("Иван Петров")},
			wantVal:   10,
		},
		{
			name: "full name with process and stakeholders",
			authority: bant.Authority{
				DecisionMaker:   strPtr("Иван Петров"),
				DecisionProcess: strPtr("согласуют финдир и совет директоров"),
				Stakeholders:    []string{"финдир"},
			},
			wantVal: 22,
		},
		{
			name: "uncertainty penalty",
			authority: bant.Authority{
				DecisionMaker: strPtr("Иван Петров"),
				Uncertain:     boolPtr(true),
			},
			wantVal: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreAuthority(&tt.authority)
			if got.Value != tt.wantVal {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantVal)
			}
		})
	}
}

func TestHeuristicNeed(t *testing.T) {
	tests := []struct {
		name    string
		need    bant.Need
		wantVal int
	}{
		{name: "never asked", need: bant.Need{}, wantVal: 0},
		{name: "explicitly no pains", need: bant.Need{PainPoints: []string{}}, wantVal: 3},
		{name: "one pain", need: bant.Need{PainPoints: []string{"медленно"}}, wantVal: 13},
		{
			name: "rich need",
			need: bant.Need{
				PainPoints:      []string{"медленно", "дорого"},
				SuccessCriteria: []string{"в 2 раза быстрее", "экономия 20%"},
			},
			wantVal: 22,
		},
		{
			name: "rich need with solution and high priority",
			need: bant.Need{
				PainPoints:      []string{"медленно", "дорого"},
				SuccessCriteria: []string{"в 2 раза быстрее", "экономия 20%"},
				CurrentSolution: strPtr("Excel"),
				Priority:        strPtr(bant.PriorityHigh),
			},
			wantVal: 27,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreNeed(&tt.need)
			if got.Value != tt.wantVal {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantVal)
			}
		})
	}
}

func TestHeuristicTiming(t *testing.T) {
	tests := []struct {
		name    string
		timing  bant.Timing
		wantVal int
	}{
		{name: "never asked", timing: bant.Timing{}, wantVal: 0},
		{name: "this quarter", timing: bant.Timing{Timeframe: strPtr(bant.TimeframeThisQuarter)}, wantVal: 18},
		{name: "this half", timing: bant.Timing{Timeframe: strPtr(bant.TimeframeThisHalf)}, wantVal: 15},
		{name: "this year", timing: bant.Timing{Timeframe: strPtr(bant.TimeframeThisYear)}, wantVal: 12},
		{name: "next year", timing: bant.Timing{Timeframe: strPtr(bant.TimeframeNextYear)}, wantVal: 8},
		{name: "deadline only", timing: bant.Timing{Deadline: strPtr("2026-03-15")}, wantVal: 15},
		{name: "explicitly unknown", timing: bant.Timing{Timeframe: strPtr(bant.TimeframeUnknown)}, wantVal: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreTiming(&tt.timing)
			if got.Value != tt.wantVal {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantVal)
			}
		})
	}
}

func TestStageThresholds(t *testing.T) {
	tests := []struct {
		name  string
		score bant.BantScore
		want  string
	}{
		{
			name: "ready needs high total and every slot strong",
			score: bant.BantScore{
				Budget:    bant.SlotScore{Value: 22},
				Authority: bant.SlotScore{Value: 22},
				Need:      bant.SlotScore{Value: 27},
				Timing:    bant.SlotScore{Value: 18},
				Total:     89,
			},
			want: bant.StageReady,
		},
		{
			name: "high total with one weak slot is only qualified",
			score: bant.BantScore{
				Budget:    bant.SlotScore{Value: 22},
				Authority: bant.SlotScore{Value: 25},
				Need:      bant.SlotScore{Value: 27},
				Timing:    bant.SlotScore{Value: 8},
				Total:     82,
			},
			want: bant.StageQualified,
		},
		{
			name: "qualified band",
			score: bant.BantScore{
				Budget:    bant.SlotScore{Value: 15},
				Authority: bant.SlotScore{Value: 15},
				Need:      bant.SlotScore{Value: 22},
				Timing:    bant.SlotScore{Value: 12},
				Total:     64,
			},
			want: bant.StageQualified,
		},
		{
			name: "low total is unqualified",
			score: bant.BantScore{
				Budget:    bant.SlotScore{Value: 3},
				Authority: bant.SlotScore{Value: 2},
				Need:      bant.SlotScore{Value: 3},
				Timing:    bant.SlotScore{Value: 2},
				Total:     10,
			},
			want: bant.StageUnqualified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stage(&tt.score); got != tt.want {
				t.Errorf("Stage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScorerFallsBackOnProviderError(t *testing.T) {
	record := bant.NewRecord("DEAL-001")
	record.Need.PainPoints = []string{"медленно"}

	scorer := NewScorer(&fakeProvider{err: errors.New("connection refused")}, zap.NewNop())
	got, err := scorer.Score(context.Background(), &record)
	if err != nil {
		t.Fatalf("Score() = %v, want nil", err)
	}

	want := Heuristic(&record)
	assertSameScore(t, got, want)
}

func TestScorerSurfacesTransportError(t *testing.T) {
	record := bant.NewRecord("DEAL-001")

	scorer := NewScorer(&fakeProvider{err: &llm.TransportError{Provider: "gigachat"}}, zap.NewNop())
	_, err := scorer.Score(context.Background(), &record)

	var terr *llm.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Score() = %v, want *llm.TransportError", err)
	}
}

func assertSameScore(t *testing.T, got, want bant.BantScore) {
	t.Helper()
	if got.Budget.Value != want.Budget.Value ||
		got.Authority.Value != want.Authority.Value ||
		got.Need.Value != want.Need.Value ||
		got.Timing.Value != want.Timing.Value {
		t.Errorf("slot values = %d/%d/%d/%d, want %d/%d/%d/%d",
			got.Budget.Value, got.Authority.Value, got.Need.Value, got.Timing.Value,
			want.Budget.Value, want.Authority.Value, want.Need.Value, want.Timing.Value)
	}
	if got.Total != want.Total {
		t.Errorf("Total = %d, want %d", got.Total, want.Total)
	}
	if got.Stage != want.Stage {
		t.Errorf("Stage = %q, want %q", got.Stage, want.Stage)
	}
}

func TestScorerFallsBackOnGarbageOutput(t *testing.T) {
	record := bant.NewRecord("DEAL-001")

	scorer := NewScorer(&fakeProvider{resp: "извините, не могу оценить"}, zap.NewNop())
	got, err := scorer.Score(context.Background(), &record)
	if err != nil {
		t.Fatalf("Score() = %v, want nil", err)
	}

	assertSameScore(t, got, Heuristic(&record))
}

func TestScorerNormalizesModelOutput(t *testing.T) {
	record := bant.NewRecord("DEAL-001")

	// Over-cap slot values and a bogus total must be clamped and recomputed.
	resp := `{"budget":{"value":40,"confidence":0.9},"authority":{"value":20,"confidence":0.8},` +
		`"need":{"value":30,"confidence":0.9},"timing":{"value":18,"confidence":0.9},"total":1,"stage":"ready"}`

	scorer := NewScorer(&fakeProvider{resp: resp}, zap.NewNop())
	got, err := scorer.Score(context.Background(), &record)
	if err != nil {
		t.Fatalf("Score() = %v, want nil", err)
	}

	if got.Budget.Value != MaxBudget {
		t.Errorf("Budget.Value = %d, want clamped %d", got.Budget.Value, MaxBudget)
	}
	wantTotal := MaxBudget + 20 + 30 + 18
	if got.Total != wantTotal {
		t.Errorf("Total = %d, want %d", got.Total, wantTotal)
	}
	if got.Stage != bant.StageReady {
		t.Errorf("Stage = %q, want %q", got.Stage, bant.StageReady)
	}
}
