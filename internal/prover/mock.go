package prover

import (
	"context"
	"sync"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// MockProver is a scriptable prover for testing. Results maps conjectures to
// attempts; unmapped conjectures get an unsuccessful attempt. Safe for
// concurrent use, since executors run tasks in parallel.
type MockProver struct {
	Results map[string]domain.ProofAttempt
	Err     error

	mu    sync.Mutex
	Calls []string
}

func NewMockProver() *MockProver {
	return &MockProver{Results: map[string]domain.ProofAttempt{}}
}

func (p *MockProver) TryProve(ctx context.Context, task domain.ProofTask) (domain.ProofAttempt, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, task.Conjecture)
	p.mu.Unlock()

	if p.Err != nil {
		return domain.ProofAttempt{}, p.Err
	}
	if attempt, ok := p.Results[task.Conjecture]; ok {
		if attempt.Problem == "" {
			attempt.Problem = task.Conjecture
		}
		return attempt, nil
	}
	return domain.ProofAttempt{Problem: task.Conjecture, Success: false}, nil
}

// CallCount returns how many tasks the prover has executed.
func (p *MockProver) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
