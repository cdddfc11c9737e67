package policy

import (
	"context"
	"sync"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// MockPolicy is a configurable policy for testing. SampleResponses is
// consumed front-to-back; once exhausted, SampleDefault is returned.
type MockPolicy struct {
	SampleResponses []string
	SampleDefault   string
	SampleError     error
	SnapshotData    []byte
	SnapshotError   error
	RestoreError    error
	TrainLoss       float64
	TrainError      error

	// Call tracking for assertions
	mu           sync.Mutex
	SampleCalls  []string
	RestoreCalls [][]byte
	TrainCalls   []domain.TrainingBatch
}

func NewMockPolicy() *MockPolicy {
	return &MockPolicy{
		SnapshotData: []byte("mock-snapshot"),
	}
}

func (p *MockPolicy) SampleConjecture(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SampleCalls = append(p.SampleCalls, prompt)
	if p.SampleError != nil {
		return "", p.SampleError
	}
	if len(p.SampleResponses) > 0 {
		next := p.SampleResponses[0]
		p.SampleResponses = p.SampleResponses[1:]
		return next, nil
	}
	return p.SampleDefault, nil
}

func (p *MockPolicy) Snapshot(ctx context.Context) ([]byte, error) {
	if p.SnapshotError != nil {
		return nil, p.SnapshotError
	}
	return p.SnapshotData, nil
}

func (p *MockPolicy) Restore(ctx context.Context, snapshot []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RestoreCalls = append(p.RestoreCalls, snapshot)
	return p.RestoreError
}

func (p *MockPolicy) Train(ctx context.Context, batch domain.TrainingBatch) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TrainCalls = append(p.TrainCalls, batch)
	if p.TrainError != nil {
		return 0, p.TrainError
	}
	return p.TrainLoss, nil
}
