package derivation

import (
	"context"
	"strings"
	"sync"
)

// MockEngine is a configurable derivation engine for testing. By default
// Contract normalizes whitespace and Elaborate is the identity; set the map
// fields to override individual statements.
type MockEngine struct {
	ContractResults  map[string]string
	ElaborateResults map[string]string
	IncorporateError error
	ContractError    error
	ElaborateError   error

	// Call tracking for assertions
	mu               sync.Mutex
	IncorporateCalls []string
	ContractCalls    []string
	ElaborateCalls   []string
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		ContractResults:  map[string]string{},
		ElaborateResults: map[string]string{},
	}
}

func (e *MockEngine) Incorporate(ctx context.Context, theory string) error {
	e.mu.Lock()
	e.IncorporateCalls = append(e.IncorporateCalls, theory)
	e.mu.Unlock()
	return e.IncorporateError
}

func (e *MockEngine) Contract(ctx context.Context, statement string) (string, error) {
	e.mu.Lock()
	e.ContractCalls = append(e.ContractCalls, statement)
	e.mu.Unlock()
	if e.ContractError != nil {
		return "", e.ContractError
	}
	if out, ok := e.ContractResults[statement]; ok {
		return out, nil
	}
	return strings.Join(strings.Fields(statement), " "), nil
}

func (e *MockEngine) Elaborate(ctx context.Context, statement string) (string, error) {
	e.mu.Lock()
	e.ElaborateCalls = append(e.ElaborateCalls, statement)
	e.mu.Unlock()
	if e.ElaborateError != nil {
		return "", e.ElaborateError
	}
	if out, ok := e.ElaborateResults[statement]; ok {
		return out, nil
	}
	return statement, nil
}
