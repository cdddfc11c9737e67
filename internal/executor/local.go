package executor

import (
	"context"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultParallelism = 4

// LocalExecutor runs tasks in-process on a bounded goroutine pool. Submit
// blocks once all slots are busy, which bounds concurrent searches without
// the orchestrator having to care.
type LocalExecutor struct {
	prover domain.Prover
	g      *errgroup.Group
}

func NewLocal(prover domain.Prover, parallelism int) *LocalExecutor {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	g := new(errgroup.Group)
	g.SetLimit(parallelism)
	return &LocalExecutor{prover: prover, g: g}
}

func (e *LocalExecutor) Submit(ctx context.Context, task domain.ProofTask) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := newChanHandle()
	e.g.Go(func() error {
		attempt, err := e.prover.TryProve(ctx, task)
		if err != nil {
			attempt = errorAttempt(task, err)
		}
		h.ch <- attempt
		return nil
	})
	return h, nil
}

// Close waits for all in-flight tasks to finish.
func (e *LocalExecutor) Close() error {
	return e.g.Wait()
}
