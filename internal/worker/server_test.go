package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/aletheia-lab/aletheia/internal/executor"
	"github.com/aletheia-lab/aletheia/internal/prover"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, p domain.Prover) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(p, 2, zap.NewNop()).Router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, prover.NewMockProver())

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Fatal("expected a request ID header")
	}
}

func TestHandleTask_Success(t *testing.T) {
	p := prover.NewMockProver()
	p.Results["a + 0 = a"] = domain.ProofAttempt{
		Success: true,
		Logprob: -2,
		Proof:   []string{"refl"},
	}
	srv := newTestServer(t, p)

	body, _ := json.Marshal(domain.ProofTask{Conjecture: "a + 0 = a", Snapshot: []byte("snap")})
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var attempt domain.ProofAttempt
	if err := json.NewDecoder(resp.Body).Decode(&attempt); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !attempt.Success || attempt.Problem != "a + 0 = a" || len(attempt.Proof) != 1 {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
}

func TestHandleTask_ProverErrorIsErrorResult(t *testing.T) {
	p := prover.NewMockProver()
	p.Err = context.DeadlineExceeded
	srv := newTestServer(t, p)

	body, _ := json.Marshal(domain.ProofTask{Conjecture: "a + 0 = a"})
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with an error result, got %d", resp.StatusCode)
	}

	var attempt domain.ProofAttempt
	if err := json.NewDecoder(resp.Body).Decode(&attempt); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !attempt.Failed() || attempt.Problem != "a + 0 = a" {
		t.Fatalf("expected an error result, got %+v", attempt)
	}
}

func TestHandleTask_BadPayload(t *testing.T) {
	srv := newTestServer(t, prover.NewMockProver())

	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleTask_MissingConjecture(t *testing.T) {
	srv := newTestServer(t, prover.NewMockProver())

	body, _ := json.Marshal(domain.ProofTask{Snapshot: []byte("snap")})
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPoolExecutor_EndToEnd(t *testing.T) {
	p := prover.NewMockProver()
	p.Results["a + 0 = a"] = domain.ProofAttempt{Success: true, Logprob: -2, Proof: []string{"refl"}}
	srv := newTestServer(t, p)

	exec := executor.NewPool([]string{srv.URL}, 2, zap.NewNop())
	d := executor.NewDispatcher(exec, zap.NewNop())

	theory := domain.Theory{Name: "nat-add", Definition: "nat : type."}
	results, err := d.Prove(context.Background(), []byte("snap"), theory, []string{"a + 0 = a", "0 + a = a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := exec.Close(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Success || results[0].Problem != "a + 0 = a" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Success {
		t.Fatalf("expected the unknown conjecture to fail: %+v", results[1])
	}
	if p.CallCount() != 2 {
		t.Fatalf("expected 2 prover calls, got %d", p.CallCount())
	}
}

func TestPoolExecutor_DeadWorkerYieldsErrorResult(t *testing.T) {
	exec := executor.NewPool([]string{"http://127.0.0.1:1"}, 1, zap.NewNop())

	h, err := exec.Submit(context.Background(), domain.ProofTask{Conjecture: "a + 0 = a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	attempt, err := h.Await(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !attempt.Failed() {
		t.Fatalf("expected an error result from an unreachable worker, got %+v", attempt)
	}
	if err := exec.Close(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
