// Package followup produces clarifying questions for a weak slot.
// The model writes them when it can; otherwise a small set of canned
// questions keyed off the record state keeps the interview moving.
package followup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/interview/prompt"
	"bant-agent-be/pkg/llm"
)

// MaxPerSlot caps how many clarifying questions one turn may carry.
const MaxPerSlot = 2

type Generator struct {
	provider llm.LLMProvider
	log      *zap.Logger
}

func NewGenerator(provider llm.LLMProvider, log *zap.Logger) *Generator {
	return &Generator{provider: provider, log: log}
}

type followupResponse struct {
	Followups map[string][]string `json:"followups"`
}

// Generate returns up to MaxPerSlot clarifying questions for the slot.
// recentQuestions are the last questions already asked, passed so the
// model does not repeat them. A bad completion falls back to the
// canned questions; only a transport failure is an error.
func (g *Generator) Generate(ctx context.Context, record *bant.BantRecord, score *bant.BantScore, slot bant.Slot, recentQuestions []string) ([]string, error) {
	questions, err := g.fromModel(ctx, record, score, slot, recentQuestions)
	if err != nil || len(questions) == 0 {
		var terr *llm.TransportError
		if errors.As(err, &terr) {
			return nil, err
		}
		if err != nil {
			g.log.Warn("follow-up generation failed, using canned questions",
				zap.String("slot", string(slot)),
				zap.Error(err))
		}
		return Canned(record, score, slot), nil
	}
	return questions, nil
}

func (g *Generator) fromModel(ctx context.Context, record *bant.BantRecord, score *bant.BantScore, slot bant.Slot, recentQuestions []string) ([]string, error) {
	input := struct {
		Record *bant.BantRecord `json:"record"`
		Score  *bant.BantScore  `json:"score"`
	}{Record: record, Score: score}
	payload, err := json.Marshal(&input)
	if err != nil {
		return nil, err
	}

	asked := ""
	if len(recentQuestions) > 0 {
		asked = "Уже заданные вопросы (не повторяй их): " + strings.Join(recentQuestions, " | ")
	}

	raw, err := g.provider.Chat(ctx,
		[]llm.Message{
			{Role: "system", Content: prompt.FollowupPrompt(asked)},
			{Role: "user", Content: string(payload)},
		},
		llm.WithJSONMode(),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(512),
	)
	if err != nil {
		return nil, err
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &bant.SchemaViolationError{Field: "followups", Reason: "no JSON object in model output"}
	}

	var resp followupResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, &bant.SchemaViolationError{Field: "followups", Reason: "invalid JSON: " + err.Error()}
	}

	questions := make([]string, 0, MaxPerSlot)
	for _, q := range resp.Followups[string(slot)] {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == MaxPerSlot {
			break
		}
	}
	return questions, nil
}

// Canned returns the deterministic clarifying question for a slot,
// chosen by what kind of answer the record already holds. A slot that
// already scores decently gets no clarifying question.
func Canned(record *bant.BantRecord, score *bant.BantScore, slot bant.Slot) []string {
	switch slot {
	case bant.SlotBudget:
		if score.Budget.Value >= 15 {
			return nil
		}
		noBudget := record.Budget.HaveBudget != nil && !*record.Budget.HaveBudget
		if record.Budget.Status != nil && *record.Budget.Status == bant.BudgetStatusNoBudget {
			noBudget = true
		}
		if noBudget {
			return []string{prompt.FollowupBudgetNoBudget}
		}
		if record.Budget.HaveBudget == nil {
			return []string{prompt.FollowupBudgetUnknown}
		}
	case bant.SlotAuthority:
		if score.Authority.Value >= 15 {
			return nil
		}
		if dm := record.Authority.DecisionMaker; dm != nil && bant.IsUnknownDecisionMaker(*dm) {
			return []string{prompt.FollowupAuthorityVague}
		} else if dm == nil || *dm == "" {
			return []string{prompt.FollowupAuthorityEmpty}
		}
	case bant.SlotNeed:
		if score.Need.Value >= 15 {
			return nil
		}
		if record.Need.PainPoints != nil && len(record.Need.PainPoints) == 0 {
			return []string{prompt.FollowupNeedNoPains}
		}
		if record.Need.PainPoints == nil {
			return []string{prompt.FollowupNeedEmpty}
		}
	case bant.SlotTiming:
		if score.Timing.Value >= 10 {
			return nil
		}
		if tf := record.Timing.Timeframe; tf != nil && *tf == bant.TimeframeUnknown {
			return []string{prompt.FollowupTimingUnknown}
		} else if tf == nil {
			return []string{prompt.FollowupTimingEmpty}
		}
	}
	return nil
}
