// Package derivation wraps the symbolic derivation engine behind the small
// operation set the loop needs: canonicalize a raw conjecture and elaborate a
// proved statement. The engine itself is an external collaborator.
package derivation

import (
	"context"
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// Context is the derivation state built from a theory. It is effectively
// immutable after construction: canonicalization and elaboration are pure
// queries against the incorporated theory.
type Context struct {
	engine   domain.Engine
	premises []string
}

// NewContext incorporates the theory into the engine and returns a query
// context over it.
func NewContext(ctx context.Context, engine domain.Engine, theory domain.Theory) (*Context, error) {
	if err := engine.Incorporate(ctx, theory.Definition); err != nil {
		return nil, fmt.Errorf("incorporate theory %q: %w", theory.Name, err)
	}
	return &Context{engine: engine, premises: theory.Premises}, nil
}

// Canonicalize contracts a raw conjecture into its normal form.
func (c *Context) Canonicalize(ctx context.Context, statement string) (string, error) {
	contracted, err := c.engine.Contract(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("contract statement: %w", err)
	}
	return contracted, nil
}

// Elaborate expands a statement into its fully explicit form for use in
// training examples.
func (c *Context) Elaborate(ctx context.Context, statement string) (string, error) {
	elaborated, err := c.engine.Elaborate(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("elaborate statement: %w", err)
	}
	return elaborated, nil
}

// Premises returns the axiom names proof search may use.
func (c *Context) Premises() []string {
	return c.premises
}
