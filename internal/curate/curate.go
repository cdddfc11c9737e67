// Package curate assembles the training corpus for the next policy training
// step from collected proof attempts: difficulty-tagged conjecture
// statements, proof-trace sub-examples, and hindsight examples relabeled from
// failed searches.
package curate

import (
	"context"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/classify"
	"github.com/aletheia-lab/aletheia/internal/derivation"
	"github.com/aletheia-lab/aletheia/internal/domain"
	"go.uber.org/zap"
)

// Curator builds training corpora. It borrows the run state only for the
// duration of one Curate call to record proven conjectures and consumed
// hindsight goals.
type Curator struct {
	dctx              *derivation.Context
	buckets           []domain.DifficultyBucket
	freezeConjecturer bool
	hindsight         bool
	logger            *zap.Logger
}

// Config toggles the two curation ablations: freezing the conjecturer
// suppresses tagged statement examples, and hindsight gates the relabeled
// subgoal examples.
type Config struct {
	FreezeConjecturer bool
	Hindsight         bool
}

func New(dctx *derivation.Context, buckets []domain.DifficultyBucket, cfg Config, logger *zap.Logger) *Curator {
	return &Curator{
		dctx:              dctx,
		buckets:           domain.SortBuckets(buckets),
		freezeConjecturer: cfg.FreezeConjecturer,
		hindsight:         cfg.Hindsight,
		logger:            logger,
	}
}

// Curate walks the collected results in order and emits the corpus: per
// result a tagged elaborated statement (unless frozen), then its extracted
// sub-examples, then any not-yet-seen hindsight examples. Successful results
// are recorded into the run's proven set and proof list.
func (c *Curator) Curate(ctx context.Context, results []domain.ProofAttempt, thresholds []float64, state *domain.RunState) ([]domain.TrainingExample, error) {
	var examples []domain.TrainingExample

	for _, result := range results {
		outcome := classify.Outcome(result, thresholds, c.buckets)

		if !c.freezeConjecturer {
			tagged, err := c.taggedStatement(ctx, outcome, result.Problem)
			if err != nil {
				return nil, err
			}
			examples = append(examples, tagged)
		}

		if result.Success {
			state.MarkProven(result.Problem, result.Proof)
		}

		examples = append(examples, result.Examples...)

		if !c.hindsight {
			continue
		}
		for _, h := range result.Hindsight {
			if state.HasHindsightGoal(h.Goal) {
				continue
			}
			hindsightOutcome := classify.Label(h.Logprob, thresholds, c.buckets)
			if !c.freezeConjecturer {
				tagged, err := c.taggedStatement(ctx, hindsightOutcome, result.Problem)
				if err != nil {
					return nil, err
				}
				examples = append(examples, tagged)
			}
			examples = append(examples, h.Examples...)
			state.MarkHindsightGoal(h.Goal)
		}
	}

	c.logger.Info("curated training corpus",
		zap.Int("results", len(results)),
		zap.Int("examples", len(examples)))
	return examples, nil
}

func (c *Curator) taggedStatement(ctx context.Context, outcome, statement string) (domain.TrainingExample, error) {
	elaborated, err := c.dctx.Elaborate(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("elaborate %q: %w", statement, err)
	}
	return domain.TrainingExample(domain.ConjectureTag(outcome) + elaborated), nil
}
