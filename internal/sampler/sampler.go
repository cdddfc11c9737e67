// Package sampler draws batches of novel conjectures from the policy,
// deduplicating against the batch under construction and everything the run
// has already proven.
package sampler

import (
	"context"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/derivation"
	"github.com/aletheia-lab/aletheia/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config bounds the sampling loop. MaxAttemptsFactor caps total policy draws
// at factor×target; on exhaustion the sampler returns the partial batch
// rather than spinning forever on a policy that keeps repeating itself.
type Config struct {
	MaxAttemptsFactor int
	RPS               float64
	Burst             int
}

const defaultMaxAttemptsFactor = 64

// Sampler produces proposal batches. It is read-only with respect to the
// policy: sampling never mutates parameters.
type Sampler struct {
	policy  domain.Policy
	dctx    *derivation.Context
	limiter *rate.Limiter
	factor  int
	logger  *zap.Logger
}

func New(policy domain.Policy, dctx *derivation.Context, cfg Config, logger *zap.Logger) *Sampler {
	factor := cfg.MaxAttemptsFactor
	if factor <= 0 {
		factor = defaultMaxAttemptsFactor
	}
	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return &Sampler{
		policy:  policy,
		dctx:    dctx,
		limiter: limiter,
		factor:  factor,
		logger:  logger,
	}
}

// SampleBatch collects up to target canonicalized conjectures, none of which
// repeat within the batch or against the run's proven set. A short batch is
// returned (with a warning) when the attempt ceiling is reached.
func (s *Sampler) SampleBatch(ctx context.Context, target int, state *domain.RunState) ([]string, error) {
	batch := make([]string, 0, target)
	inBatch := make(map[string]struct{}, target)
	maxAttempts := s.factor * target

	for attempts := 0; len(batch) < target && attempts < maxAttempts; attempts++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		proposal, err := s.policy.SampleConjecture(ctx, domain.HardConjecturePrompt)
		if err != nil {
			return nil, fmt.Errorf("sample conjecture: %w", err)
		}
		if proposal == "" {
			continue
		}
		if _, dup := inBatch[proposal]; dup || state.HasProven(proposal) {
			continue
		}

		canonical, err := s.dctx.Canonicalize(ctx, proposal)
		if err != nil {
			s.logger.Warn("discarding unparseable proposal",
				zap.String("proposal", proposal),
				zap.Error(err))
			continue
		}
		if _, dup := inBatch[canonical]; dup || state.HasProven(canonical) {
			continue
		}

		inBatch[canonical] = struct{}{}
		batch = append(batch, canonical)
	}

	if len(batch) < target {
		s.logger.Warn("sampling attempt ceiling reached with a partial batch",
			zap.Int("target", target),
			zap.Int("collected", len(batch)),
			zap.Int("max_attempts", maxAttempts))
	}
	return batch, nil
}
