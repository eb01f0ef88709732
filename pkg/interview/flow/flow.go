// Package flow drives the interview state machine: one answer in, an
// updated record, a fresh score and the next question out. Every turn
// is a pure function of the session, so the engine itself keeps no
// state and any store backend can host the sessions.
package flow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/interview/extract"
	"bant-agent-be/pkg/interview/followup"
	"bant-agent-be/pkg/interview/prompt"
	"bant-agent-be/pkg/interview/scoring"
)

// MaxAttempts is the retry budget per slot. A slot asked this many
// times without a usable answer is skipped for good.
const MaxAttempts = 3

// followupThreshold is the slot score below which a turn also carries
// clarifying questions.
const followupThreshold = 15

// negativePhrases mark an answer as an explicit negative ("don't
// know" / "no"), which is valid slot data even when extraction pulled
// nothing out of it.
var negativePhrases = []string{
	"не знаю", "не знаем", "не определились", "без понятия",
	"не в курсе", "нет", "не", "неа", "не заложено", "нет денег",
}

// Turn is what one processed answer produces.
type Turn struct {
	Question  *string  `json:"question"`
	Followups []string `json:"followups"`
	Completed bool     `json:"completed"`
}

type Flow struct {
	extractor *extract.Extractor
	scorer    *scoring.Scorer
	followups *followup.Generator
	log       *zap.Logger
}

func NewFlow(extractor *extract.Extractor, scorer *scoring.Scorer, followups *followup.Generator, log *zap.Logger) *Flow {
	return &Flow{
		extractor: extractor,
		scorer:    scorer,
		followups: followups,
		log:       log,
	}
}

// NextSlot returns the first required slot whose data is still not
// good enough to move on, or nil when the interview can finish.
// "Good enough" is strict: an explicit "don't know" keeps the slot
// open so the retry budget, not the sentinel, decides when to give up.
func NextSlot(s *bant.Session) *bant.Slot {
	for _, slot := range s.RequiredSlots {
		if !slotAnswered(&s.Record, slot) {
			out := slot
			return &out
		}
	}
	return nil
}

func slotAnswered(r *bant.BantRecord, slot bant.Slot) bool {
	switch slot {
	case bant.SlotBudget:
		hb := r.Budget.HaveBudget
		if hb == nil {
			return false
		}
		if !*hb {
			return true // "no budget" is a complete answer
		}
		return r.Budget.AmountMin != nil || r.Budget.AmountMax != nil
	case bant.SlotAuthority:
		dm := r.Authority.DecisionMaker
		return dm != nil && *dm != "" && !bant.IsUnknownDecisionMaker(*dm)
	case bant.SlotNeed:
		return r.Need.PainPoints != nil && len(r.Need.PainPoints) > 0
	case bant.SlotTiming:
		tf := r.Timing.Timeframe
		return tf != nil && *tf != "" && *tf != bant.TimeframeUnknown
	}
	return true
}

// Start opens the interview: picks the first slot and asks its
// canonical question. Returns nil if the record somehow already
// answers everything.
func (f *Flow) Start(s *bant.Session) *string {
	slot := NextSlot(s)
	if slot == nil {
		s.CurrentSlot = nil
		return nil
	}
	s.CurrentSlot = slot
	s.RecordAttempt(*slot)
	question := prompt.Question(*slot)
	s.LastQuestion = question
	s.AppendUtterance(bant.RoleAssistant, question)
	return &question
}

// ProcessAnswer runs one interview turn: extract, normalize, merge,
// score, pick the next slot within its retry budget, phrase the next
// question and optional clarifying questions. Only a model transport
// failure errors out; bad completions degrade to deterministic paths.
func (f *Flow) ProcessAnswer(ctx context.Context, s *bant.Session, answer string) (*Turn, error) {
	s.AppendUtterance(bant.RoleUser, answer)

	patch, err := f.extractor.Extract(ctx, s.LastQuestion, answer)
	if err != nil {
		return nil, err
	}

	merged := s.Record.Merge(patch)
	if verr := merged.Validate(); verr != nil {
		// The extractor pre-validates patches, so this only trips on
		// session-level corruption. Keep the previous record.
		f.log.Error("merged record failed validation, keeping previous state",
			zap.String("session_id", s.SessionID),
			zap.Error(verr))
	} else {
		s.Record = merged
	}

	normalizeNegative(s, answer)
	normalizeFollowupAnswer(&s.Record, answer)
	s.Record.Filled = bant.Classify(&s.Record)

	score, err := f.scorer.Score(ctx, &s.Record)
	if err != nil {
		return nil, err
	}
	s.Record.Score = &score

	slot := NextSlot(s)
	if slot == nil {
		s.CurrentSlot = nil
		return &Turn{Completed: true, Followups: []string{}}, nil
	}

	// Retry budget: a slot that burned its attempts is skipped, and
	// when every open slot is exhausted the interview ends with
	// whatever data it has.
	if s.Attempts(*slot) >= MaxAttempts {
		s.RecordAttempt(*slot)
		next := nextWithinBudget(s, *slot)
		if next == nil {
			s.CurrentSlot = nil
			return &Turn{Completed: true, Followups: []string{}}, nil
		}
		slot = next
	}

	attempts := s.Attempts(*slot)
	s.CurrentSlot = slot
	s.RecordAttempt(*slot)

	var question string
	if attempts == 0 {
		question = prompt.Question(*slot)
	} else {
		question = prompt.RephrasedQuestion(*slot, attempts)
	}

	followups := []string{}
	if slotScore(&score, *slot).Value < followupThreshold {
		followups, err = f.followups.Generate(ctx, &s.Record, &score, *slot, recentQuestions(s, 4))
		if err != nil {
			return nil, err
		}
		if followups == nil {
			followups = []string{}
		}
	}

	s.LastQuestion = question
	s.AppendUtterance(bant.RoleAssistant, question)

	return &Turn{Question: &question, Followups: followups}, nil
}

// nextWithinBudget finds the next open slot, skipping the one just
// exhausted and anything else over budget.
func nextWithinBudget(s *bant.Session, exhausted bant.Slot) *bant.Slot {
	for _, slot := range s.RequiredSlots {
		if slot == exhausted {
			continue
		}
		if slotAnswered(&s.Record, slot) {
			continue
		}
		if s.Attempts(slot) >= MaxAttempts {
			continue
		}
		out := slot
		return &out
	}
	return nil
}

func slotScore(score *bant.BantScore, slot bant.Slot) bant.SlotScore {
	switch slot {
	case bant.SlotBudget:
		return score.Budget
	case bant.SlotAuthority:
		return score.Authority
	case bant.SlotNeed:
		return score.Need
	case bant.SlotTiming:
		return score.Timing
	}
	return bant.SlotScore{}
}

func recentQuestions(s *bant.Session, n int) []string {
	questions := []string{}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	for _, u := range s.History[start:] {
		if u.Role == bant.RoleAssistant {
			questions = append(questions, u.Content)
		}
	}
	return questions
}

// normalizeNegative stores an explicit negative answer into the
// current slot when extraction produced nothing for it. "No" and
// "don't know" are data, not noise.
func normalizeNegative(s *bant.Session, answer string) {
	lower := strings.ToLower(strings.TrimSpace(answer))
	negative := false
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			negative = true
			break
		}
	}
	if !negative {
		return
	}

	slot := s.CurrentSlot
	if slot == nil {
		slot = NextSlot(s)
	}
	if slot == nil {
		return
	}

	record := &s.Record
	note := "Ответ клиента: " + answer
	switch *slot {
	case bant.SlotBudget:
		if record.Budget.HaveBudget == nil {
			no := false
			record.Budget.HaveBudget = &no
			noBudget := bant.BudgetStatusNoBudget
			record.Budget.Status = &noBudget
			if record.Budget.Comment == nil {
				record.Budget.Comment = &note
			}
		}
	case bant.SlotAuthority:
		if record.Authority.DecisionMaker == nil {
			unknown := bant.UnknownDecisionMaker
			record.Authority.DecisionMaker = &unknown
			if record.Authority.Comment == nil {
				record.Authority.Comment = &note
			}
		}
	case bant.SlotNeed:
		if record.Need.PainPoints == nil {
			record.Need.PainPoints = []string{}
			if record.Need.Comment == nil {
				record.Need.Comment = &note
			}
		}
	case bant.SlotTiming:
		if record.Timing.Timeframe == nil {
			unknown := bant.TimeframeUnknown
			record.Timing.Timeframe = &unknown
			if record.Timing.Comment == nil {
				record.Timing.Comment = &note
			}
		}
	}
}

func appendComment(dst **string, text string) {
	if *dst == nil || **dst == "" {
		v := text
		*dst = &v
		return
	}
	v := **dst + "; " + text
	*dst = &v
}

// normalizeFollowupAnswer upgrades the record from answers to the
// canned clarifying questions, which rarely contain extractable slot
// values but still narrow the picture.
func normalizeFollowupAnswer(record *bant.BantRecord, answer string) {
	lower := strings.ToLower(strings.TrimSpace(answer))
	hasAny := func(phrases ...string) bool {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	switch {
	case hasAny("не говорил", "не говорил про деньги", "цена не волновала", "цена не важна", "деньги не обсуждали"):
		if record.Budget.HaveBudget != nil && !*record.Budget.HaveBudget {
			appendComment(&record.Budget.Comment, "клиент не обсуждал бюджет, цена не волновала")
		}
	case hasAny("общались с", "говорил с", "встречался с", "должность", "роль"):
		dm := record.Authority.DecisionMaker
		if dm != nil && bant.IsUnknownDecisionMaker(*dm) {
			switch {
			case hasAny("директор", "ceo"):
				v := "директор"
				record.Authority.DecisionMaker = &v
			case hasAny("руководитель", "менеджер"):
				v := "руководитель"
				record.Authority.DecisionMaker = &v
			case hasAny("владелец", "собственник"):
				v := "владелец"
				record.Authority.DecisionMaker = &v
			default:
				v := "уточнено в процессе"
				record.Authority.DecisionMaker = &v
				appendComment(&record.Authority.Comment, "контакт: "+answer)
			}
		}
	case hasAny("хочет получить", "результат", "цель", "изменится", "если не сделать"):
		if record.Need.PainPoints != nil && len(record.Need.PainPoints) == 0 {
			appendComment(&record.Need.Comment, "цели: "+answer)
		}
	case hasAny("подтолкнуло", "давление", "критично", "ждет", "ищет других"):
		if tf := record.Timing.Timeframe; tf != nil && *tf == bant.TimeframeUnknown {
			appendComment(&record.Timing.Comment, "контекст: "+answer)
		}
	}
}
