// Package prover adapts proof-search procedures to the task contract the
// executors dispatch against. The search algorithm itself is external; the
// exec prover runs it as a subprocess speaking JSON on stdin/stdout.
package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// ExecProver invokes an external search binary once per task. The task is
// written to stdin as JSON and a ProofAttempt is read back from stdout.
type ExecProver struct {
	command string
	args    []string
}

func NewExecProver(command string, args ...string) *ExecProver {
	return &ExecProver{command: command, args: args}
}

func (p *ExecProver) TryProve(ctx context.Context, task domain.ProofTask) (domain.ProofAttempt, error) {
	input, err := json.Marshal(task)
	if err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("marshal proof task: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("prover %s: %w (stderr: %s)", p.command, err, stderr.String())
	}

	var attempt domain.ProofAttempt
	if err := json.Unmarshal(stdout.Bytes(), &attempt); err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("unmarshal prover output: %w", err)
	}
	if attempt.Problem == "" {
		attempt.Problem = task.Conjecture
	}
	return attempt, nil
}
