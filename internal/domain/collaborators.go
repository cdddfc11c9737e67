package domain

import "context"

// Engine is the symbolic derivation engine. Incorporate loads a theory;
// Contract canonicalizes a statement so syntactically different but logically
// identical statements compare equal; Elaborate expands a statement into its
// fully explicit form. Contract and Elaborate are pure queries once the
// theory is incorporated.
type Engine interface {
	Incorporate(ctx context.Context, theory string) error
	Contract(ctx context.Context, statement string) (string, error)
	Elaborate(ctx context.Context, statement string) (string, error)
}

// TrainingBatch is everything a policy training step consumes.
type TrainingBatch struct {
	Examples    []TrainingExample `json:"examples"`
	FinalGoals  []string          `json:"final_goals"`
	Solutions   []string          `json:"solutions"`
	RatioProven float64           `json:"ratio_proven"`
}

// Policy is the learned agent. The orchestrator only ever samples proposals,
// captures/restores parameter snapshots, and runs training steps; the model
// architecture and inference machinery live behind this interface.
type Policy interface {
	// SampleConjecture draws one raw conjecture proposal conditioned on the
	// given prompt prefix. An empty proposal is a valid (discarded) outcome.
	SampleConjecture(ctx context.Context, prompt string) (string, error)

	// Snapshot serializes the current parameters into an opaque byte capture
	// sufficient to reconstruct an independent copy inside a search task.
	Snapshot(ctx context.Context) ([]byte, error)

	// Restore replaces the live parameters with a previously captured
	// snapshot. Used only when resuming a run from a checkpoint.
	Restore(ctx context.Context, snapshot []byte) error

	// Train runs one training step on the batch and returns the validation
	// loss.
	Train(ctx context.Context, batch TrainingBatch) (float64, error)
}

// Prover runs one proof-search task to completion. A returned error means
// the search could not execute at all; an unsuccessful search is reported as
// a ProofAttempt with Success false.
type Prover interface {
	TryProve(ctx context.Context, task ProofTask) (ProofAttempt, error)
}
