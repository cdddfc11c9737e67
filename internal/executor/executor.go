// Package executor fans proof-search tasks out to an execution backend and
// collects their results in submission order. Two backends share one
// interface: an in-process pool and an HTTP worker pool.
package executor

import (
	"context"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"go.uber.org/zap"
)

// Handle resolves to the result of one submitted task.
type Handle interface {
	Await(ctx context.Context) (domain.ProofAttempt, error)
}

// Executor runs proof-search tasks. Submit may block while the backend is at
// its concurrency bound; backpressure lives here, not in the orchestrator.
type Executor interface {
	Submit(ctx context.Context, task domain.ProofTask) (Handle, error)
	Close() error
}

// Execution modes
const (
	ModeLocal = "local"
	ModePool  = "pool"
)

// Config selects and sizes the execution backend. It is resolved once at
// startup and passed in explicitly; the loop never consults ambient process
// state to pick a mode.
type Config struct {
	Mode        string
	Parallelism int
	WorkerURLs  []string
}

// New builds the configured executor. The local mode needs a prover to run
// tasks in-process; the pool mode talks to remote workers and ignores it.
func New(cfg Config, prover domain.Prover, logger *zap.Logger) (Executor, error) {
	switch cfg.Mode {
	case ModeLocal:
		if prover == nil {
			return nil, fmt.Errorf("local executor requires a prover")
		}
		return NewLocal(prover, cfg.Parallelism), nil

	case ModePool:
		if len(cfg.WorkerURLs) == 0 {
			return nil, fmt.Errorf("pool executor requires at least one worker URL")
		}
		return NewPool(cfg.WorkerURLs, cfg.Parallelism, logger), nil

	default:
		return nil, fmt.Errorf("unknown executor mode: %s (valid options: local, pool)", cfg.Mode)
	}
}

// errorAttempt wraps an execution failure as an error result so the
// collector can drop and log it uniformly.
func errorAttempt(task domain.ProofTask, err error) domain.ProofAttempt {
	return domain.ProofAttempt{Problem: task.Conjecture, Error: err.Error()}
}

type chanHandle struct {
	ch chan domain.ProofAttempt
}

func newChanHandle() *chanHandle {
	return &chanHandle{ch: make(chan domain.ProofAttempt, 1)}
}

func (h *chanHandle) Await(ctx context.Context) (domain.ProofAttempt, error) {
	select {
	case attempt := <-h.ch:
		return attempt, nil
	case <-ctx.Done():
		return domain.ProofAttempt{}, ctx.Err()
	}
}
