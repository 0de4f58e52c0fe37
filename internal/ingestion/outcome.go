package ingestion

// StepStatus is the result of one pipeline step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Pipeline step names.
const (
	StepStoreDocuments     = "documents.store"
	StepTagDocuments       = "documents.tag"
	StepAppendDocuments    = "documents.append"
	StepChecklistBootstrap = "checklist.bootstrap"
	StepChecklistMatch     = "checklist.match"
	StepPricingMerge       = "pricing.merge"
	StepSolutionFit        = "solution.fit"
)

// StepResult records what happened in one step.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// Outcome is the step-by-step report of one ingestion flow. Failed steps do
// not roll back earlier ones.
type Outcome struct {
	Steps       []StepResult `json:"steps"`
	DocumentIDs []string     `json:"documentIds,omitempty"`
}

func (o *Outcome) ok(name, detail string) {
	o.Steps = append(o.Steps, StepResult{Name: name, Status: StepOK, Detail: detail})
}

func (o *Outcome) skipped(name, detail string) {
	o.Steps = append(o.Steps, StepResult{Name: name, Status: StepSkipped, Detail: detail})
}

func (o *Outcome) failed(name string, err error) {
	o.Steps = append(o.Steps, StepResult{Name: name, Status: StepFailed, Detail: sanitizeError(err)})
}

// Partial reports whether any step failed.
func (o Outcome) Partial() bool {
	for _, s := range o.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// Step returns the result for name, if recorded.
func (o Outcome) Step(name string) (StepResult, bool) {
	for _, s := range o.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
