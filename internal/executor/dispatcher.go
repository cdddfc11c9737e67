package executor

import (
	"context"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher submits one proof-search task per conjecture and collects the
// results in submission order. Results carrying an execution error are
// logged and dropped; they contribute to neither success nor failure
// statistics.
type Dispatcher struct {
	exec   Executor
	logger *zap.Logger
}

func NewDispatcher(exec Executor, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{exec: exec, logger: logger}
}

// Dispatch submits the whole batch before returning any handle.
func (d *Dispatcher) Dispatch(ctx context.Context, snapshot []byte, theory domain.Theory, conjectures []string) ([]Handle, error) {
	handles := make([]Handle, 0, len(conjectures))
	for _, conjecture := range conjectures {
		h, err := d.exec.Submit(ctx, domain.ProofTask{
			ID:         uuid.New(),
			Snapshot:   snapshot,
			Theory:     theory,
			Conjecture: conjecture,
		})
		if err != nil {
			return nil, fmt.Errorf("submit task for %q: %w", conjecture, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Collect blocks on every handle in order and returns the surviving results.
func (d *Dispatcher) Collect(ctx context.Context, handles []Handle) ([]domain.ProofAttempt, error) {
	results := make([]domain.ProofAttempt, 0, len(handles))
	for _, h := range handles {
		attempt, err := h.Await(ctx)
		if err != nil {
			return nil, err
		}
		if attempt.Failed() {
			d.logger.Error("proof-search task errored",
				zap.String("conjecture", attempt.Problem),
				zap.String("error", attempt.Error))
			continue
		}
		results = append(results, attempt)
	}
	return results, nil
}

// Prove dispatches and collects in one call.
func (d *Dispatcher) Prove(ctx context.Context, snapshot []byte, theory domain.Theory, conjectures []string) ([]domain.ProofAttempt, error) {
	d.logger.Info("dispatching proof-search tasks", zap.Int("tasks", len(conjectures)))
	handles, err := d.Dispatch(ctx, snapshot, theory, conjectures)
	if err != nil {
		return nil, err
	}
	results, err := d.Collect(ctx, handles)
	if err != nil {
		return nil, err
	}
	d.logger.Info("collected proof-search results",
		zap.Int("submitted", len(conjectures)),
		zap.Int("collected", len(results)))
	return results, nil
}
