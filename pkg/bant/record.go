package bant

import (
	"time"
)

// Closed enum literals. These are the wire format consumed by the UI
// and the storage layer, do not rename.
const (
	CurrencyRUB = "RUB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyCNY = "CNY"
	CurrencyGBP = "GBP"

	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"

	TimeframeThisMonth   = "this_month"
	TimeframeThisQuarter = "this_quarter"
	TimeframeThisHalf    = "this_half"
	TimeframeThisYear    = "this_year"
	TimeframeNextYear    = "next_year"
	TimeframeUnknown     = "unknown"

	BudgetStatusNotAsked  = "NOT_ASKED"
	BudgetStatusNoBudget  = "NO_BUDGET"
	BudgetStatusAvailable = "AVAILABLE"

	FilledNone    = "none"
	FilledPartial = "partial"
	FilledFull    = "full"

	StageUnqualified = "unqualified"
	StageQualified   = "qualified"
	StageReady       = "ready"
)

// DeadlineLayout is the only accepted deadline format. Vague periods
// belong in timeframe, never here.
const DeadlineLayout = "2006-01-02"

// UnknownDecisionMaker is the sentinel stored when the manager
// explicitly answered that the decision maker is not known. It is
// semantically distinct from a nil decision maker (never asked).
const UnknownDecisionMaker = "не знаем"

// UnknownDecisionMakerPhrases lists every phrase treated as the
// "don't know" sentinel for the authority slot.
var UnknownDecisionMakerPhrases = []string{
	"не знаем", "не определились", "не знаю", "без понятия", "не в курсе",
}

// IsUnknownDecisionMaker reports whether the decision maker value is
// one of the explicit "don't know" phrases.
func IsUnknownDecisionMaker(v string) bool {
	for _, p := range UnknownDecisionMakerPhrases {
		if v == p {
			return true
		}
	}
	return false
}

// Budget describes what is known about the client's budget.
// have_budget is a tri-state: nil (never asked), false, true.
// budget_status additionally distinguishes "asked, answer unknown"
// (NOT_ASKED) from a plain nil.
type Budget struct {
	HaveBudget *bool    `json:"have_budget"`
	AmountMin  *float64 `json:"amount_min"`
	AmountMax  *float64 `json:"amount_max"`
	Currency   *string  `json:"currency"`
	Comment    *string  `json:"comment"`
	Status     *string  `json:"budget_status,omitempty"`
}

// Authority describes the client's decision making side.
type Authority struct {
	DecisionMaker   *string  `json:"decision_maker"`
	Stakeholders    []string `json:"stakeholders"`
	DecisionProcess *string  `json:"decision_process"`
	Risks           []string `json:"risks"`
	Uncertain       *bool    `json:"uncertain,omitempty"`
	Comment         *string  `json:"comment,omitempty"`
}

// Need describes the client's pains and goals. A non-nil empty
// pain_points list means "explicitly no pains reported" and is NOT the
// same as nil (never asked).
type Need struct {
	PainPoints      []string `json:"pain_points"`
	CurrentSolution *string  `json:"current_solution"`
	SuccessCriteria []string `json:"success_criteria"`
	Priority        *string  `json:"priority"`
	Comment         *string  `json:"comment,omitempty"`
}

// Timing describes the purchase timeline. The "unknown" timeframe is
// an explicit answer, distinct from a nil timeframe.
type Timing struct {
	Timeframe *string `json:"timeframe"`
	Deadline  *string `json:"deadline"`
	NextStep  *string `json:"next_step"`
	Comment   *string `json:"comment,omitempty"`
}

// SlotScore is one scored BANT dimension.
type SlotScore struct {
	Value      int     `json:"value"`
	Confidence float64 `json:"confidence"`
	Rationale  *string `json:"rationale,omitempty"`
}

// BantScore is the composite qualification score.
type BantScore struct {
	Budget    SlotScore `json:"budget"`
	Authority SlotScore `json:"authority"`
	Need      SlotScore `json:"need"`
	Timing    SlotScore `json:"timing"`
	Total     int       `json:"total"`
	Stage     string    `json:"stage"`
}

// BantRecord holds everything known about one deal. It is owned by a
// single session and replaced wholesale on every merge.
type BantRecord struct {
	DealID    string     `json:"deal_id"`
	Budget    Budget     `json:"budget"`
	Authority Authority  `json:"authority"`
	Need      Need       `json:"need"`
	Timing    Timing     `json:"timing"`
	Filled    string     `json:"filled"`
	Score     *BantScore `json:"score"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewRecord creates an empty record for a deal. Currency defaults to
// RUB until extraction says otherwise.
func NewRecord(dealID string) BantRecord {
	rub := CurrencyRUB
	return BantRecord{
		DealID:    dealID,
		Budget:    Budget{Currency: &rub},
		Filled:    FilledNone,
		UpdatedAt: time.Now().UTC(),
	}
}

func in(v string, set ...string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Validate enforces the closed enums and numeric bounds. It returns a
// *SchemaViolationError for the first violated constraint.
func (r *BantRecord) Validate() error {
	if r.DealID == "" {
		return &SchemaViolationError{Field: "deal_id", Reason: "must not be empty"}
	}
	if r.Budget.AmountMin != nil && *r.Budget.AmountMin < 0 {
		return &SchemaViolationError{Field: "budget.amount_min", Reason: "must be non-negative"}
	}
	if r.Budget.AmountMax != nil && *r.Budget.AmountMax < 0 {
		return &SchemaViolationError{Field: "budget.amount_max", Reason: "must be non-negative"}
	}
	if c := r.Budget.Currency; c != nil && !in(*c, CurrencyRUB, CurrencyUSD, CurrencyEUR, CurrencyCNY, CurrencyGBP) {
		return &SchemaViolationError{Field: "budget.currency", Reason: "unknown currency " + *c}
	}
	if s := r.Budget.Status; s != nil && !in(*s, BudgetStatusNotAsked, BudgetStatusNoBudget, BudgetStatusAvailable) {
		return &SchemaViolationError{Field: "budget.budget_status", Reason: "unknown status " + *s}
	}
	if p := r.Need.Priority; p != nil && !in(*p, PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical) {
		return &SchemaViolationError{Field: "need.priority", Reason: "unknown priority " + *p}
	}
	if tf := r.Timing.Timeframe; tf != nil && !in(*tf,
		TimeframeThisMonth, TimeframeThisQuarter, TimeframeThisHalf,
		TimeframeThisYear, TimeframeNextYear, TimeframeUnknown) {
		return &SchemaViolationError{Field: "timing.timeframe", Reason: "unknown timeframe " + *tf}
	}
	if d := r.Timing.Deadline; d != nil {
		if _, err := time.Parse(DeadlineLayout, *d); err != nil {
			return &SchemaViolationError{Field: "timing.deadline", Reason: "not a YYYY-MM-DD date: " + *d}
		}
	}
	if !in(r.Filled, FilledNone, FilledPartial, FilledFull) {
		return &SchemaViolationError{Field: "filled", Reason: "unknown value " + r.Filled}
	}
	if r.Score != nil {
		if err := r.Score.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks score bounds and the stage enum.
func (s *BantScore) Validate() error {
	check := func(name string, ss SlotScore) error {
		if ss.Value < 0 || ss.Value > 100 {
			return &SchemaViolationError{Field: "score." + name + ".value", Reason: "must be within [0, 100]"}
		}
		if ss.Confidence < 0 || ss.Confidence > 1 {
			return &SchemaViolationError{Field: "score." + name + ".confidence", Reason: "must be within [0, 1]"}
		}
		return nil
	}
	if err := check("budget", s.Budget); err != nil {
		return err
	}
	if err := check("authority", s.Authority); err != nil {
		return err
	}
	if err := check("need", s.Need); err != nil {
		return err
	}
	if err := check("timing", s.Timing); err != nil {
		return err
	}
	if s.Total < 0 || s.Total > 100 {
		return &SchemaViolationError{Field: "score.total", Reason: "must be within [0, 100]"}
	}
	if !in(s.Stage, StageUnqualified, StageQualified, StageReady) {
		return &SchemaViolationError{Field: "score.stage", Reason: "unknown stage " + s.Stage}
	}
	return nil
}

func strSet(s *string) bool  { return s != nil && *s != "" }
func listSet(l []string) bool { return l != nil }

// Touched reports whether any budget field carries information.
func (b *Budget) Touched() bool {
	return b.HaveBudget != nil || b.AmountMin != nil || b.AmountMax != nil ||
		strSet(b.Comment) || strSet(b.Status)
}

// Touched reports whether any authority field carries information.
func (a *Authority) Touched() bool {
	return strSet(a.DecisionMaker) || len(a.Stakeholders) > 0 ||
		strSet(a.DecisionProcess) || len(a.Risks) > 0 ||
		a.Uncertain != nil || strSet(a.Comment)
}

// Touched reports whether any need field carries information. An
// explicit empty pain_points list counts: the slot was answered.
func (n *Need) Touched() bool {
	return listSet(n.PainPoints) || strSet(n.CurrentSolution) ||
		len(n.SuccessCriteria) > 0 || strSet(n.Priority) || strSet(n.Comment)
}

// Touched reports whether any timing field carries information.
func (t *Timing) Touched() bool {
	return strSet(t.Timeframe) || strSet(t.Deadline) || strSet(t.NextStep) || strSet(t.Comment)
}

// Classify summarizes how many slots carry any information: none,
// partial or full. The default currency alone does not count as
// budget information.
func Classify(r *BantRecord) string {
	touched := 0
	if r.Budget.Touched() {
		touched++
	}
	if r.Authority.Touched() {
		touched++
	}
	if r.Need.Touched() {
		touched++
	}
	if r.Timing.Touched() {
		touched++
	}
	switch touched {
	case 0:
		return FilledNone
	case 4:
		return FilledFull
	default:
		return FilledPartial
	}
}
