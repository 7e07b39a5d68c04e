package report

// StructuredReport is the fixed six-field shape every successful generation
// produces. List fields are never nil once a report has been normalized.
type StructuredReport struct {
	ExecutiveSummary string       `json:"executiveSummary"`
	KeyHighlights    []string     `json:"keyHighlights"`
	DecisionsTaken   []string     `json:"decisionsTaken"`
	RisksAndBlockers []string     `json:"risksAndBlockers"`
	ActionItems      []ActionItem `json:"actionItems"`
	NextSteps        []string     `json:"nextSteps"`
}

// ActionItem is a single follow-up task. Priority is free-form text.
type ActionItem struct {
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Priority string `json:"priority"`
}

// Normalize returns a copy of r with nil lists replaced by empty ones, so the
// report always serializes with all six fields present.
func (r StructuredReport) Normalize() StructuredReport {
	out := StructuredReport{
		ExecutiveSummary: r.ExecutiveSummary,
		KeyHighlights:    cloneStrings(r.KeyHighlights),
		DecisionsTaken:   cloneStrings(r.DecisionsTaken),
		RisksAndBlockers: cloneStrings(r.RisksAndBlockers),
		NextSteps:        cloneStrings(r.NextSteps),
		ActionItems:      make([]ActionItem, len(r.ActionItems)),
	}
	copy(out.ActionItems, r.ActionItems)
	return out
}

// IsEmpty reports whether the report carries no content at all.
func (r StructuredReport) IsEmpty() bool {
	return r.ExecutiveSummary == "" &&
		len(r.KeyHighlights) == 0 &&
		len(r.DecisionsTaken) == 0 &&
		len(r.RisksAndBlockers) == 0 &&
		len(r.ActionItems) == 0 &&
		len(r.NextSteps) == 0
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
