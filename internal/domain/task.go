package domain

import "github.com/google/uuid"

// TrainingExample is an opaque labeled string consumed by policy training.
type TrainingExample string

// ProofTask is the unit of work handed to a proof-search executor. Each task
// carries its own serialized policy snapshot and theory so tasks share no
// mutable state and may run on any worker.
type ProofTask struct {
	ID         uuid.UUID `json:"id"`
	Snapshot   []byte    `json:"snapshot"`
	Theory     Theory    `json:"theory"`
	Conjecture string    `json:"conjecture"`
}

// HindsightExample is a training example mined from a subgoal encountered
// during search, relabeled as its own achievable goal. Goals are deduplicated
// globally across the run, not per iteration.
type HindsightExample struct {
	Goal     string            `json:"goal"`
	Logprob  float64           `json:"logprob"`
	Examples []TrainingExample `json:"examples"`
}

// ProofAttempt is the structured result of one proof-search task.
// Logprob is meaningful only when Success is true. A non-empty Error marks
// the attempt as an execution failure: it is logged and excluded from all
// downstream aggregation.
type ProofAttempt struct {
	Problem   string             `json:"problem"`
	Success   bool               `json:"success"`
	Logprob   float64            `json:"logprob"`
	Proof     []string           `json:"proof,omitempty"`
	Examples  []TrainingExample  `json:"extracted_examples,omitempty"`
	Hindsight []HindsightExample `json:"hindsight_examples,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Failed reports whether the attempt is an execution error rather than a
// genuine (possibly unsuccessful) search outcome.
func (a ProofAttempt) Failed() bool {
	return a.Error != ""
}
