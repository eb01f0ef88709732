// Package scoring assigns the four-dimension qualification score to a
// record. The model scores against a fixed rubric; a deterministic
// heuristic implementing the same rubric takes over whenever the model
// output cannot be used, so only an unreachable model fails a score.
package scoring

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

// Per-slot score ceilings of the rubric.
const (
	MaxBudget    = 25
	MaxAuthority = 25
	MaxNeed      = 30
	MaxTiming    = 20
)

type Scorer struct {
	provider llm.LLMProvider
	log      *zap.Logger
}

func NewScorer(provider llm.LLMProvider, log *zap.Logger) *Scorer {
	return &Scorer{provider: provider, log: log}
}

// Score evaluates the record. The model path is preferred; a bad
// completion degrades to the heuristic because the rubric is fully
// computable from the record. A transport failure is the only error:
// the heuristic substitutes a model opinion, not an unreachable model.
func (s *Scorer) Score(ctx context.Context, record *bant.BantRecord) (bant.BantScore, error) {
	// Score the data, not the previous score.
	unscored := *record
	unscored.Score = nil

	payload, err := json.Marshal(&unscored)
	if err != nil {
		return Heuristic(record), nil
	}

	raw, err := s.provider.Chat(ctx,
		[]llm.Message{
			{Role: "system", Content: prompt.ScoringPrompt},
			{Role: "user", Content: string(payload)},
		},
		llm.WithJSONMode(),
		llm.WithTemperature(0.0),
		llm.WithMaxTokens(1024),
	)
	if err != nil {
		var terr *llm.TransportError
		if errors.As(err, &terr) {
			return bant.BantScore{}, err
		}
		s.log.Warn("model scoring failed, using heuristic", zap.Error(err))
		return Heuristic(record), nil
	}

	score, err := parseScore(raw)
	if err != nil {
		s.log.Warn("model score unparseable, using heuristic", zap.Error(err))
		return Heuristic(record), nil
	}
	return score, nil
}

// parseScore decodes the model output and normalizes it: slot values
// are clamped to the rubric ceilings, total and stage are recomputed
// so the invariants hold regardless of what the model returned.
func parseScore(raw string) (bant.BantScore, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return bant.BantScore{}, &bant.SchemaViolationError{Field: "score", Reason: "no JSON object in model output"}
	}

	var score bant.BantScore
	if err := json.Unmarshal([]byte(raw[start:end+1]), &score); err != nil {
		return bant.BantScore{}, &bant.SchemaViolationError{Field: "score", Reason: "invalid JSON: " + err.Error()}
	}

	clampSlot(&score.Budget, MaxBudget)
	clampSlot(&score.Authority, MaxAuthority)
	clampSlot(&score.Need, MaxNeed)
	clampSlot(&score.Timing, MaxTiming)
	finalize(&score)

	if err := score.Validate(); err != nil {
		return bant.BantScore{}, err
	}
	return score, nil
}

func clampSlot(ss *bant.SlotScore, max int) {
	if ss.Value < 0 {
		ss.Value = 0
	}
	if ss.Value > max {
		ss.Value = max
	}
	if ss.Confidence < 0 {
		ss.Confidence = 0
	}
	if ss.Confidence > 1 {
		ss.Confidence = 1
	}
}

func finalize(score *bant.BantScore) {
	score.Total = score.Budget.Value + score.Authority.Value + score.Need.Value + score.Timing.Value
	score.Stage = Stage(score)
}

// Stage derives the qualification stage from the slot values.
func Stage(score *bant.BantScore) string {
	min := score.Budget.Value
	for _, v := range []int{score.Authority.Value, score.Need.Value, score.Timing.Value} {
		if v < min {
			min = v
		}
	}
	switch {
	case score.Total >= 80 && min >= 15:
		return bant.StageReady
	case score.Total >= 60 && min >= 8:
		return bant.StageQualified
	default:
		return bant.StageUnqualified
	}
}

// Heuristic computes the rubric directly from the record. It is both
// the model fallback and the reference the model is prompted against.
func Heuristic(record *bant.BantRecord) bant.BantScore {
	score := bant.BantScore{
		Budget:    scoreBudget(&record.Budget),
		Authority: scoreAuthority(&record.Authority),
		Need:      scoreNeed(&record.Need),
		Timing:    scoreTiming(&record.Timing),
	}
	finalize(&score)
	return score
}

func rationale(text string) *string { return &text }

func scoreBudget(b *bant.Budget) bant.SlotScore {
	hasMin := b.AmountMin != nil
	hasMax := b.AmountMax != nil
	hasCurrency := b.Currency != nil && *b.Currency != ""

	available := func() bant.SlotScore {
		switch {
		case hasMin && hasMax && hasCurrency:
			return bant.SlotScore{Value: 22, Confidence: 0.9, Rationale: rationale("бюджет подтверждён, суммы и валюта известны")}
		case (hasMin || hasMax) && hasCurrency:
			return bant.SlotScore{Value: 15, Confidence: 0.7, Rationale: rationale("бюджет подтверждён, известна часть сумм")}
		default:
			return bant.SlotScore{Value: 8, Confidence: 0.4, Rationale: rationale("бюджет подтверждён без сумм")}
		}
	}

	if b.Status != nil {
		switch *b.Status {
		case bant.BudgetStatusNotAsked:
			return bant.SlotScore{Value: 0, Confidence: 0.0, Rationale: rationale("про бюджет не спрашивали")}
		case bant.BudgetStatusNoBudget:
			return bant.SlotScore{Value: 3, Confidence: 0.6, Rationale: rationale("бюджет не заложен")}
		case bant.BudgetStatusAvailable:
			return available()
		}
	}

	// Older records carry only the tri-state flag.
	switch {
	case b.HaveBudget == nil:
		return bant.SlotScore{Value: 0, Confidence: 0.0, Rationale: rationale("про бюджет ничего не известно")}
	case !*b.HaveBudget:
		return bant.SlotScore{Value: 3, Confidence: 0.6, Rationale: rationale("бюджет не заложен")}
	default:
		return available()
	}
}

// looksLikeFullName reports a multi-word value containing at least one
// title-cased word, which distinguishes "Иван Петров, директор" from a
// bare role like "кто-то из закупок".
func looksLikeFullName(v string) bool {
	words := strings.Fields(v)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		runes := []rune(w)
		if len(runes) > 2 && strings.ToUpper(string(runes[0])) == string(runes[0]) &&
			strings.ToLower(string(runes[0])) != string(runes[0]) &&
			strings.ToLower(string(runes[1:])) == string(runes[1:]) {
			return true
		}
	}
	return false
}

func scoreAuthority(a *bant.Authority) bant.SlotScore {
	if a.DecisionMaker == nil || *a.DecisionMaker == "" {
		return bant.SlotScore{Value: 0, Confidence: 0.0, Rationale: rationale("ЛПР не назван")}
	}
	if bant.IsUnknownDecisionMaker(*a.DecisionMaker) {
		return bant.SlotScore{Value: 2, Confidence: 0.3, Rationale: rationale("клиент не знает, кто принимает решение")}
	}

	value, conf := 8, 0.5
	why := "названа роль ЛПР"
	if looksLikeFullName(*a.DecisionMaker) {
		value, conf = 10, 0.7
		why = "назван ЛПР с именем"
	}
	if a.DecisionProcess != nil && len(*a.DecisionProcess) > 10 {
		value += 7
		conf += 0.1
	}
	if len(a.Stakeholders) > 0 {
		value += 5
		conf += 0.1
	}
	if a.Uncertain != nil && *a.Uncertain {
		value -= 2
		conf -= 0.1
	}
	if value > MaxAuthority {
		value = MaxAuthority
	}
	if value < 0 {
		value = 0
	}
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < 0 {
		conf = 0
	}
	return bant.SlotScore{Value: value, Confidence: conf, Rationale: rationale(why)}
}

func scoreNeed(n *bant.Need) bant.SlotScore {
	if n.PainPoints == nil {
		return bant.SlotScore{Value: 0, Confidence: 0.0, Rationale: rationale("про потребности не спрашивали")}
	}
	if len(n.PainPoints) == 0 {
		return bant.SlotScore{Value: 3, Confidence: 0.4, Rationale: rationale("клиент говорит, что проблем нет")}
	}
	if len(n.PainPoints) >= 2 && len(n.SuccessCriteria) >= 2 {
		value := 22
		if n.CurrentSolution != nil && *n.CurrentSolution != "" &&
			n.Priority != nil && (*n.Priority == bant.PriorityHigh || *n.Priority == bant.PriorityCritical) {
			value += 5
		}
		return bant.SlotScore{Value: value, Confidence: 0.9, Rationale: rationale("боли и критерии успеха описаны")}
	}
	return bant.SlotScore{Value: 13, Confidence: 0.7, Rationale: rationale("названа хотя бы одна боль")}
}

func scoreTiming(t *bant.Timing) bant.SlotScore {
	tf := ""
	if t.Timeframe != nil {
		tf = *t.Timeframe
	}
	switch tf {
	case bant.TimeframeThisMonth, bant.TimeframeThisQuarter:
		return bant.SlotScore{Value: 18, Confidence: 0.9, Rationale: rationale("покупка в ближайшем квартале")}
	case bant.TimeframeThisHalf:
		return bant.SlotScore{Value: 15, Confidence: 0.8, Rationale: rationale("покупка в этом полугодии")}
	case bant.TimeframeThisYear:
		return bant.SlotScore{Value: 12, Confidence: 0.8, Rationale: rationale("покупка в этом году")}
	case bant.TimeframeNextYear:
		return bant.SlotScore{Value: 8, Confidence: 0.6, Rationale: rationale("покупка в следующем году")}
	}
	if t.Deadline != nil && *t.Deadline != "" {
		return bant.SlotScore{Value: 15, Confidence: 0.8, Rationale: rationale("есть конкретный дедлайн")}
	}
	if tf == bant.TimeframeUnknown {
		return bant.SlotScore{Value: 2, Confidence: 0.3, Rationale: rationale("сроки клиенту не ясны")}
	}
	return bant.SlotScore{Value: 0, Confidence: 0.0, Rationale: rationale("про сроки не спрашивали")}
}
