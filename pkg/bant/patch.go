package bant

import "time"

// Patch is a partial set of slot values extracted from one free-text
// answer. Nil pointers and empty lists mean "nothing extracted", never
// "clear the field".
type Patch struct {
	Budget    *BudgetPatch    `json:"budget"`
	Authority *AuthorityPatch `json:"authority"`
	Need      *NeedPatch      `json:"need"`
	Timing    *TimingPatch    `json:"timing"`
}

type BudgetPatch struct {
	HaveBudget *bool    `json:"have_budget"`
	AmountMin  *float64 `json:"amount_min"`
	AmountMax  *float64 `json:"amount_max"`
	Currency   *string  `json:"currency"`
	Comment    *string  `json:"comment"`
	Status     *string  `json:"budget_status"`
}

type AuthorityPatch struct {
	DecisionMaker   *string  `json:"decision_maker"`
	Stakeholders    []string `json:"stakeholders"`
	DecisionProcess *string  `json:"decision_process"`
	Risks           []string `json:"risks"`
	Uncertain       *bool    `json:"uncertain"`
	Comment         *string  `json:"comment"`
}

type NeedPatch struct {
	PainPoints      []string `json:"pain_points"`
	CurrentSolution *string  `json:"current_solution"`
	SuccessCriteria []string `json:"success_criteria"`
	Priority        *string  `json:"priority"`
	Comment         *string  `json:"comment"`
}

type TimingPatch struct {
	Timeframe *string `json:"timeframe"`
	Deadline  *string `json:"deadline"`
	NextStep  *string `json:"next_step"`
	Comment   *string `json:"comment"`
}

// Empty reports whether the patch carries no values at all.
func (p *Patch) Empty() bool {
	if p == nil {
		return true
	}
	return p.Budget == nil && p.Authority == nil && p.Need == nil && p.Timing == nil
}

func mergeStr(dst **string, src *string) {
	if src != nil && *src != "" {
		v := *src
		*dst = &v
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeList(dst *[]string, src []string) {
	if len(src) > 0 {
		out := make([]string, len(src))
		copy(out, src)
		*dst = out
	}
}

// Merge applies the patch additively and returns a new record: only
// non-empty patch values overwrite, already known data is never
// cleared. The result carries a fresh updated_at and fill state; the
// caller is expected to Validate it before adopting it.
func (r BantRecord) Merge(p *Patch) BantRecord {
	if p == nil {
		return r
	}
	if bp := p.Budget; bp != nil {
		mergeBool(&r.Budget.HaveBudget, bp.HaveBudget)
		mergeFloat(&r.Budget.AmountMin, bp.AmountMin)
		mergeFloat(&r.Budget.AmountMax, bp.AmountMax)
		mergeStr(&r.Budget.Currency, bp.Currency)
		mergeStr(&r.Budget.Comment, bp.Comment)
		mergeStr(&r.Budget.Status, bp.Status)
	}
	if ap := p.Authority; ap != nil {
		mergeStr(&r.Authority.DecisionMaker, ap.DecisionMaker)
		mergeList(&r.Authority.Stakeholders, ap.Stakeholders)
		mergeStr(&r.Authority.DecisionProcess, ap.DecisionProcess)
		mergeList(&r.Authority.Risks, ap.Risks)
		mergeBool(&r.Authority.Uncertain, ap.Uncertain)
		mergeStr(&r.Authority.Comment, ap.Comment)
	}
	if np := p.Need; np != nil {
		mergeList(&r.Need.PainPoints, np.PainPoints)
		mergeStr(&r.Need.CurrentSolution, np.CurrentSolution)
		mergeList(&r.Need.SuccessCriteria, np.SuccessCriteria)
		mergeStr(&r.Need.Priority, np.Priority)
		mergeStr(&r.Need.Comment, np.Comment)
	}
	if tp := p.Timing; tp != nil {
		mergeStr(&r.Timing.Timeframe, tp.Timeframe)
		mergeStr(&r.Timing.Deadline, tp.Deadline)
		mergeStr(&r.Timing.NextStep, tp.NextStep)
		mergeStr(&r.Timing.Comment, tp.Comment)
	}
	r.Filled = Classify(&r)
	r.UpdatedAt = time.Now().UTC()
	return r
}
