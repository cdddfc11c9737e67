package prover

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available")
	}
	path := filepath.Join(t.TempDir(), "search.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return path
}

func TestExecProver_ParsesAttempt(t *testing.T) {
	script := writeScript(t, `cat >/dev/null
echo '{"problem": "a + 0 = a", "success": true, "logprob": -2.5, "proof": ["refl"]}'`)

	p := NewExecProver(script)
	attempt, err := p.TryProve(context.Background(), domain.ProofTask{Conjecture: "a + 0 = a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !attempt.Success || attempt.Logprob != -2.5 || len(attempt.Proof) != 1 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
}

func TestExecProver_FillsProblemFromTask(t *testing.T) {
	script := writeScript(t, `cat >/dev/null
echo '{"success": false}'`)

	p := NewExecProver(script)
	attempt, err := p.TryProve(context.Background(), domain.ProofTask{Conjecture: "0 + a = a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempt.Problem != "0 + a = a" {
		t.Fatalf("expected problem filled from task, got %q", attempt.Problem)
	}
}

func TestExecProver_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "search crashed" >&2
exit 1`)

	p := NewExecProver(script)
	if _, err := p.TryProve(context.Background(), domain.ProofTask{Conjecture: "a"}); err == nil {
		t.Fatal("expected an error on non-zero exit")
	}
}

func TestExecProver_GarbageOutput(t *testing.T) {
	script := writeScript(t, `cat >/dev/null
echo 'not json'`)

	p := NewExecProver(script)
	if _, err := p.TryProve(context.Background(), domain.ProofTask{Conjecture: "a"}); err == nil {
		t.Fatal("expected an error on unparseable output")
	}
}

func TestNewProver_Providers(t *testing.T) {
	if _, err := NewProver(ProviderExec, ""); err == nil {
		t.Fatal("expected an error for exec provider without a command")
	}
	if _, err := NewProver(ProviderMock, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := NewProver("ray", ""); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
