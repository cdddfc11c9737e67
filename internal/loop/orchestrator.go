// Package loop drives the curriculum iterations: evaluate the held-out
// goals, sample a conjecture batch, fan proof searches out and back in,
// classify, curate, train, checkpoint, repeat. The loop is single-threaded;
// proof-search tasks are the only unit of parallelism.
package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/checkpoint"
	"github.com/aletheia-lab/aletheia/internal/classify"
	"github.com/aletheia-lab/aletheia/internal/curate"
	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/aletheia-lab/aletheia/internal/executor"
	"github.com/aletheia-lab/aletheia/internal/goalset"
	"github.com/aletheia-lab/aletheia/internal/metrics"
	"github.com/aletheia-lab/aletheia/internal/runlog"
	"github.com/aletheia-lab/aletheia/internal/sampler"
	"go.uber.org/zap"
)

// Config carries the loop-level knobs. Everything else arrives as an
// injected collaborator.
type Config struct {
	Run             string
	NConjectures    int
	TotalIterations int
}

// Orchestrator owns the run state and composes the per-iteration phases. It
// runs iterations strictly sequentially; no iteration reads a policy
// snapshot other than the one produced at its own start.
type Orchestrator struct {
	cfg        Config
	theory     domain.Theory
	finalGoals goalset.GoalSet
	valGoals   goalset.GoalSet
	buckets    []domain.DifficultyBucket

	policy     domain.Policy
	sampler    *sampler.Sampler
	dispatcher *executor.Dispatcher
	curator    *curate.Curator
	ckpt       *checkpoint.Checkpointer
	artifacts  *runlog.RunLog
	sink       metrics.Sink
	logger     *zap.Logger

	state *domain.RunState
}

func New(
	cfg Config,
	theory domain.Theory,
	finalGoals, valGoals goalset.GoalSet,
	buckets []domain.DifficultyBucket,
	policy domain.Policy,
	smp *sampler.Sampler,
	dispatcher *executor.Dispatcher,
	curator *curate.Curator,
	ckpt *checkpoint.Checkpointer,
	artifacts *runlog.RunLog,
	sink metrics.Sink,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		theory:     theory,
		finalGoals: finalGoals,
		valGoals:   valGoals,
		buckets:    domain.SortBuckets(buckets),
		policy:     policy,
		sampler:    smp,
		dispatcher: dispatcher,
		curator:    curator,
		ckpt:       ckpt,
		artifacts:  artifacts,
		sink:       sink,
		logger:     logger,
		state:      domain.NewRunState(),
	}
}

// State exposes the run state for inspection after the loop finishes.
func (o *Orchestrator) State() *domain.RunState { return o.state }

// Resume restores the policy and run state from the last checkpoint. A run
// directory with no checkpoint starts fresh; a directory with a snapshot but
// broken metadata is fatal, since restarting from iteration 0 with a resumed
// policy would desynchronize the accumulator sets from its training history.
func (o *Orchestrator) Resume(ctx context.Context) error {
	snapshot, state, err := o.ckpt.Load()
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		o.logger.Info("no checkpoint found, starting fresh run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if err := o.policy.Restore(ctx, snapshot); err != nil {
		return fmt.Errorf("restore policy snapshot: %w", err)
	}
	o.state = state
	o.logger.Info("resumed from checkpoint",
		zap.Int("last_completed_iteration", state.Iteration()),
		zap.Int("proven", len(state.Proven())))
	return nil
}

// Run executes iterations from the one after the last completed until the
// final goals are fully proven or the iteration budget runs out. Budget
// exhaustion is a normal stop, not an error.
func (o *Orchestrator) Run(ctx context.Context) error {
	for i := o.state.Iteration() + 1; i < o.cfg.TotalIterations; i++ {
		terminated, err := o.runIteration(ctx, i)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if terminated {
			o.logger.Info("final goals fully proven, stopping", zap.Int("iteration", i))
			return nil
		}
	}
	o.logger.Info("iteration budget exhausted",
		zap.Int("total_iterations", o.cfg.TotalIterations))
	return nil
}

func (o *Orchestrator) runIteration(ctx context.Context, i int) (bool, error) {
	o.logger.Info("starting iteration", zap.Int("iteration", i))

	snapshot, err := o.policy.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("snapshot policy: %w", err)
	}

	// EVALUATE_FINAL: the termination check runs before anything is sampled,
	// so a run can terminate in iteration 0.
	finalResults, err := o.dispatcher.Prove(ctx, snapshot, o.theory, o.finalGoals.Theorems)
	if err != nil {
		return false, fmt.Errorf("prove final goals: %w", err)
	}
	finalProven := countSuccesses(finalResults)
	if Terminated(finalResults, o.finalGoals.Theorems) {
		if err := o.artifacts.WriteFinalProofs(FinalRecords(finalResults, o.finalGoals.Theorems)); err != nil {
			return false, err
		}
		if err := o.artifacts.Event(i, "all final goals proven", o.finalGoals.Theorems); err != nil {
			return false, err
		}
		o.record(ctx, metrics.Iteration{
			Run:              o.cfg.Run,
			Iteration:        i,
			FinalGoalsProven: finalProven,
			FinalGoalsTotal:  len(o.finalGoals.Theorems),
			ValGoalsTotal:    len(o.valGoals.Theorems),
		})
		return true, nil
	}

	// EVALUATE_VAL: diagnostic only, never gates termination.
	valResults, err := o.dispatcher.Prove(ctx, snapshot, o.theory, o.valGoals.Theorems)
	if err != nil {
		return false, fmt.Errorf("prove validation goals: %w", err)
	}
	valProven := countSuccesses(valResults)
	if err := o.artifacts.WriteValProofs(i, successRecords(valResults)); err != nil {
		return false, err
	}
	o.logger.Info("goal evaluation",
		zap.Int("iteration", i),
		zap.Int("final_proven", finalProven),
		zap.Int("final_total", len(o.finalGoals.Theorems)),
		zap.Int("val_proven", valProven),
		zap.Int("val_total", len(o.valGoals.Theorems)))

	// SAMPLE
	batch, err := o.sampler.SampleBatch(ctx, o.cfg.NConjectures, o.state)
	if err != nil {
		return false, fmt.Errorf("sample conjecture batch: %w", err)
	}
	if err := o.artifacts.Event(i, "sampled conjecture batch", batch); err != nil {
		return false, err
	}

	// PROVE
	batchResults, err := o.dispatcher.Prove(ctx, snapshot, o.theory, batch)
	if err != nil {
		return false, fmt.Errorf("prove conjecture batch: %w", err)
	}

	// THRESHOLD: a batch with zero successes skips curation and training but
	// still advances and checkpoints the iteration.
	batchSuccesses := countSuccesses(batchResults)
	if batchSuccesses == 0 {
		o.logger.Warn("no successful proofs in conjecture batch, skipping training",
			zap.Int("iteration", i),
			zap.Int("batch", len(batch)))
		if err := o.artifacts.Event(i, "no successful proofs, training skipped", nil); err != nil {
			return false, err
		}
		o.record(ctx, metrics.Iteration{
			Run:                   o.cfg.Run,
			Iteration:             i,
			FinalGoalsProven:      finalProven,
			FinalGoalsTotal:       len(o.finalGoals.Theorems),
			ValGoalsProven:        valProven,
			ValGoalsTotal:         len(o.valGoals.Theorems),
			ConjecturedFinalGoals: intersect(batch, o.finalGoals.Theorems),
		})
		return false, o.complete(i, snapshot)
	}

	// Final-goal results join the batch results so they contribute to the
	// thresholds and to the proven-conjecture set.
	results := make([]domain.ProofAttempt, 0, len(batchResults)+len(finalResults))
	results = append(results, batchResults...)
	results = append(results, finalResults...)

	successLogprobs := classify.SuccessLogprobs(results)
	thresholds, err := classify.Thresholds(successLogprobs, o.buckets)
	if err != nil {
		return false, fmt.Errorf("compute thresholds: %w", err)
	}
	o.logger.Info("difficulty thresholds",
		zap.Int("iteration", i),
		zap.Int("successes", len(successLogprobs)),
		zap.Float64s("thresholds", thresholds))

	// CURATE
	examples, err := o.curator.Curate(ctx, results, thresholds, o.state)
	if err != nil {
		return false, fmt.Errorf("curate training corpus: %w", err)
	}

	// TRAIN: skipped on the final scheduled iteration, since the trained
	// policy would never be used.
	var valLoss float64
	trained := false
	ratioProven := float64(batchSuccesses) / float64(len(batch))
	if i+1 < o.cfg.TotalIterations {
		valLoss, err = o.policy.Train(ctx, domain.TrainingBatch{
			Examples:    examples,
			FinalGoals:  prefixGoals(o.finalGoals.Theorems),
			Solutions:   o.valGoals.Solutions,
			RatioProven: ratioProven,
		})
		if err != nil {
			return false, fmt.Errorf("train policy: %w", err)
		}
		trained = true
	}

	o.record(ctx, metrics.Iteration{
		Run:                   o.cfg.Run,
		Iteration:             i,
		Trained:               trained,
		ValLoss:               valLoss,
		FinalGoalsProven:      finalProven,
		FinalGoalsTotal:       len(o.finalGoals.Theorems),
		ValGoalsProven:        valProven,
		ValGoalsTotal:         len(o.valGoals.Theorems),
		RatioProven:           ratioProven,
		MeanHardLogprob:       classify.MeanHardLogprob(successLogprobs, thresholds),
		ConjecturedFinalGoals: intersect(batch, o.finalGoals.Theorems),
	})

	// CHECKPOINT
	if err := o.artifacts.WriteExamples(i, examples); err != nil {
		return false, err
	}
	if trained {
		snapshot, err = o.policy.Snapshot(ctx)
		if err != nil {
			return false, fmt.Errorf("snapshot trained policy: %w", err)
		}
	}
	return false, o.complete(i, snapshot)
}

// complete marks iteration i finished and checkpoints the run.
func (o *Orchestrator) complete(i int, snapshot []byte) error {
	o.state.SetIteration(i)
	if err := o.ckpt.Save(snapshot, o.state); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (o *Orchestrator) record(ctx context.Context, m metrics.Iteration) {
	if err := o.sink.Record(ctx, m); err != nil {
		o.logger.Warn("recording iteration metrics failed", zap.Error(err))
	}
}

func countSuccesses(results []domain.ProofAttempt) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

func successRecords(results []domain.ProofAttempt) []runlog.ProofRecord {
	var successes []domain.ProofAttempt
	for _, r := range results {
		if r.Success {
			successes = append(successes, r)
		}
	}
	return runlog.Records(successes)
}

// prefixGoals re-tags goal statements with the hard-conjecture prompt so the
// training step scores them the way they would be sampled.
func prefixGoals(goals []string) []string {
	prefixed := make([]string, len(goals))
	for i, g := range goals {
		prefixed[i] = domain.HardConjecturePrompt + g
	}
	return prefixed
}

// intersect returns the batch conjectures that coincide with final goals, in
// batch order.
func intersect(batch, goals []string) []string {
	goalSet := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		goalSet[g] = struct{}{}
	}
	var hit []string
	for _, c := range batch {
		if _, ok := goalSet[c]; ok {
			hit = append(hit, c)
		}
	}
	return hit
}
