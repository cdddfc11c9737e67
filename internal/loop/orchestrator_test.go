package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aletheia-lab/aletheia/internal/checkpoint"
	"github.com/aletheia-lab/aletheia/internal/curate"
	"github.com/aletheia-lab/aletheia/internal/derivation"
	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/aletheia-lab/aletheia/internal/executor"
	"github.com/aletheia-lab/aletheia/internal/goalset"
	"github.com/aletheia-lab/aletheia/internal/metrics"
	"github.com/aletheia-lab/aletheia/internal/policy"
	"github.com/aletheia-lab/aletheia/internal/runlog"
	"github.com/aletheia-lab/aletheia/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedProver drives each test's proof outcomes. The script sees the
// conjecture and how many times it has been attempted so far (1-based), so
// tests can make a goal fail in one iteration and succeed in the next.
type scriptedProver struct {
	mu     sync.Mutex
	counts map[string]int
	script func(conjecture string, call int) domain.ProofAttempt
}

func newScriptedProver(script func(conjecture string, call int) domain.ProofAttempt) *scriptedProver {
	return &scriptedProver{counts: make(map[string]int), script: script}
}

func (p *scriptedProver) TryProve(ctx context.Context, task domain.ProofTask) (domain.ProofAttempt, error) {
	p.mu.Lock()
	p.counts[task.Conjecture]++
	call := p.counts[task.Conjecture]
	p.mu.Unlock()

	attempt := p.script(task.Conjecture, call)
	attempt.Problem = task.Conjecture
	return attempt, nil
}

func (p *scriptedProver) attempts(conjecture string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[conjecture]
}

// recorderSink captures metric records for assertions.
type recorderSink struct {
	mu      sync.Mutex
	records []metrics.Iteration
}

func (s *recorderSink) Record(ctx context.Context, m metrics.Iteration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, m)
	return nil
}

func (s *recorderSink) Close() {}

type fixture struct {
	orch   *Orchestrator
	policy *policy.MockPolicy
	prover *scriptedProver
	sink   *recorderSink
	dir    string
}

func newFixture(t *testing.T, dir string, cfg Config, agent *policy.MockPolicy, prover *scriptedProver) *fixture {
	t.Helper()
	logger := zap.NewNop()
	theory := domain.Theory{Name: "nat-add", Definition: "nat : type.", Premises: []string{"+_z", "+_s"}}
	goals := goalset.GoalSet{Theorems: []string{"a + 0 = a"}, Solutions: []string{"refl"}}
	buckets := []domain.DifficultyBucket{{Label: "easy", Percentile: 100}}

	dctx, err := derivation.NewContext(context.Background(), derivation.NewMockEngine(), theory)
	require.NoError(t, err)

	artifacts, err := runlog.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = artifacts.Close() })

	exec := executor.NewLocal(prover, 2)
	t.Cleanup(func() { _ = exec.Close() })

	sink := &recorderSink{}
	orch := New(
		cfg,
		theory,
		goals,
		goals,
		buckets,
		agent,
		sampler.New(agent, dctx, sampler.Config{MaxAttemptsFactor: 8}, logger),
		executor.NewDispatcher(exec, logger),
		curate.New(dctx, buckets, curate.Config{Hindsight: true}, logger),
		checkpoint.New(checkpoint.RunHandle{Dir: dir}),
		artifacts,
		sink,
		logger,
	)
	return &fixture{orch: orch, policy: agent, prover: prover, sink: sink, dir: dir}
}

func readFinalProofs(t *testing.T, dir string) []runlog.ProofRecord {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "final_goals_proofs.json"))
	require.NoError(t, err)
	var records []runlog.ProofRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	return records
}

func TestRun_TerminatesWhenFinalGoalsProven(t *testing.T) {
	// Iteration 0: the final goal fails everywhere; the batch also fails.
	// Iteration 1: the final-goal search succeeds with logprob -2.0 and the
	// loop terminates with exactly one proof record.
	agent := policy.NewMockPolicy()
	agent.SampleResponses = []string{"c1", "c2"}
	agent.SampleDefault = "c2"

	prover := newScriptedProver(func(conjecture string, call int) domain.ProofAttempt {
		if conjecture == "a + 0 = a" && call >= 3 {
			// Calls 1 and 2 are iteration 0's final and val evaluations.
			return domain.ProofAttempt{Success: true, Logprob: -2.0, Proof: []string{"refl"}}
		}
		return domain.ProofAttempt{Success: false}
	})

	dir := t.TempDir()
	f := newFixture(t, dir, Config{Run: "test", NConjectures: 2, TotalIterations: 5}, agent, prover)

	require.NoError(t, f.orch.Run(context.Background()))

	records := readFinalProofs(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "a + 0 = a", records[0].Theorem)
	assert.Equal(t, []string{"refl"}, records[0].Proof)

	// Iteration 0 had zero batch successes: no corpus, no training.
	_, err := os.Stat(filepath.Join(dir, "examples_0.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, f.policy.TrainCalls)

	// Termination happened before iteration 1 sampled anything new.
	last := f.sink.records[len(f.sink.records)-1]
	assert.Equal(t, 1, last.Iteration)
	assert.Equal(t, 1, last.FinalGoalsProven)
	assert.Equal(t, 1, last.FinalGoalsTotal)
}

func TestRun_TerminatesAtIterationZero(t *testing.T) {
	agent := policy.NewMockPolicy()
	prover := newScriptedProver(func(conjecture string, call int) domain.ProofAttempt {
		return domain.ProofAttempt{Success: true, Logprob: -1.5, Proof: []string{"refl"}}
	})

	dir := t.TempDir()
	f := newFixture(t, dir, Config{Run: "test", NConjectures: 2, TotalIterations: 3}, agent, prover)

	require.NoError(t, f.orch.Run(context.Background()))

	records := readFinalProofs(t, dir)
	require.Len(t, records, 1)

	// Nothing was sampled and the validation set was never evaluated.
	assert.Empty(t, f.policy.SampleCalls)
	assert.Equal(t, 1, f.prover.attempts("a + 0 = a"))
}

func TestRun_ZeroSuccessIterationSkipsTraining(t *testing.T) {
	agent := policy.NewMockPolicy()
	agent.SampleResponses = []string{"c1", "c2", "c3", "c4"}
	agent.SampleDefault = "c4"

	prover := newScriptedProver(func(conjecture string, call int) domain.ProofAttempt {
		return domain.ProofAttempt{Success: false}
	})

	dir := t.TempDir()
	f := newFixture(t, dir, Config{Run: "test", NConjectures: 2, TotalIterations: 2}, agent, prover)

	require.NoError(t, f.orch.Run(context.Background()))

	// Both iterations were wasted but the loop advanced through its budget.
	assert.Equal(t, 1, f.orch.State().Iteration())
	assert.Empty(t, f.policy.TrainCalls)
	for i := 0; i < 2; i++ {
		_, err := os.Stat(filepath.Join(dir, fmt.Sprintf("examples_%d.json", i)))
		assert.True(t, os.IsNotExist(err), "examples_%d.json should not exist", i)
	}

	// The checkpoint still records the last completed iteration.
	_, state, err := checkpoint.New(checkpoint.RunHandle{Dir: dir}).Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.Iteration())
}

func TestRun_TrainsOnBatchSuccesses(t *testing.T) {
	agent := policy.NewMockPolicy()
	agent.SampleResponses = []string{"c1", "c2"}
	agent.SampleDefault = "c2"
	agent.TrainLoss = 0.42

	prover := newScriptedProver(func(conjecture string, call int) domain.ProofAttempt {
		switch conjecture {
		case "c1":
			return domain.ProofAttempt{
				Success:  true,
				Logprob:  -2,
				Proof:    []string{"refl"},
				Examples: []domain.TrainingExample{"sub-1"},
			}
		case "c2":
			return domain.ProofAttempt{Success: true, Logprob: -3, Proof: []string{"induction"}}
		default:
			return domain.ProofAttempt{Success: false}
		}
	})

	dir := t.TempDir()
	f := newFixture(t, dir, Config{Run: "test", NConjectures: 1, TotalIterations: 2}, agent, prover)

	require.NoError(t, f.orch.Run(context.Background()))

	// Iteration 0 trains; iteration 1 is the last scheduled one and skips
	// the training step even though its batch succeeded.
	require.Len(t, f.policy.TrainCalls, 1)
	batch := f.policy.TrainCalls[0]
	assert.Equal(t, []string{"Conj:(hard) a + 0 = a"}, batch.FinalGoals)
	assert.Equal(t, []string{"refl"}, batch.Solutions)
	assert.Equal(t, 1.0, batch.RatioProven)
	assert.Contains(t, batch.Examples, domain.TrainingExample("Conj:(easy) c1"))
	assert.Contains(t, batch.Examples, domain.TrainingExample("sub-1"))

	// Both iterations wrote their curated corpus.
	for i := 0; i < 2; i++ {
		_, err := os.Stat(filepath.Join(dir, fmt.Sprintf("examples_%d.json", i)))
		assert.NoError(t, err)
	}

	// Iteration 1 must not re-sample the proven c1.
	assert.Equal(t, 1, f.prover.attempts("c1"))
	assert.Equal(t, 1, f.prover.attempts("c2"))

	require.Len(t, f.sink.records, 2)
	assert.True(t, f.sink.records[0].Trained)
	assert.Equal(t, 0.42, f.sink.records[0].ValLoss)
	assert.False(t, f.sink.records[1].Trained)
}

func TestRun_ResumeContinuesWhereItStopped(t *testing.T) {
	dir := t.TempDir()

	script := func(conjecture string, call int) domain.ProofAttempt {
		if conjecture == "a + 0 = a" && call >= 3 {
			return domain.ProofAttempt{Success: true, Logprob: -2.0, Proof: []string{"refl"}}
		}
		return domain.ProofAttempt{Success: false}
	}
	prover := newScriptedProver(script)

	// First process: budget of one iteration, then stops.
	agent1 := policy.NewMockPolicy()
	agent1.SampleResponses = []string{"c1", "c2"}
	agent1.SampleDefault = "c2"
	f1 := newFixture(t, dir, Config{Run: "test", NConjectures: 2, TotalIterations: 1}, agent1, prover)
	require.NoError(t, f1.orch.Run(context.Background()))
	assert.Equal(t, 0, f1.orch.State().Iteration())

	// Second process: same run directory, larger budget. Resume must pick
	// up at iteration 1, restore the policy, and never re-run iteration 0.
	agent2 := policy.NewMockPolicy()
	agent2.SampleDefault = "c3"
	f2 := newFixture(t, dir, Config{Run: "test", NConjectures: 2, TotalIterations: 5}, agent2, prover)
	require.NoError(t, f2.orch.Resume(context.Background()))
	require.Len(t, agent2.RestoreCalls, 1)
	assert.Equal(t, 0, f2.orch.State().Iteration())

	require.NoError(t, f2.orch.Run(context.Background()))

	records := readFinalProofs(t, dir)
	require.Len(t, records, 1)
	// 2 attempts from the first process (final + val), 1 from the second.
	assert.Equal(t, 3, f2.prover.attempts("a + 0 = a"))
}

func TestRun_ResumeWithoutCheckpointStartsFresh(t *testing.T) {
	agent := policy.NewMockPolicy()
	prover := newScriptedProver(func(conjecture string, call int) domain.ProofAttempt {
		return domain.ProofAttempt{Success: true, Logprob: -1, Proof: []string{"refl"}}
	})

	f := newFixture(t, t.TempDir(), Config{Run: "test", NConjectures: 1, TotalIterations: 1}, agent, prover)
	require.NoError(t, f.orch.Resume(context.Background()))
	assert.Empty(t, agent.RestoreCalls)
	assert.Equal(t, -1, f.orch.State().Iteration())
}

func TestTerminated(t *testing.T) {
	goals := []string{"a", "b"}
	results := []domain.ProofAttempt{
		{Problem: "a", Success: true, Proof: []string{"p-a"}},
		{Problem: "b", Success: false},
	}
	assert.False(t, Terminated(results, goals))

	results[1].Success = true
	results[1].Proof = []string{"p-b"}
	assert.True(t, Terminated(results, goals))

	records := FinalRecords(results, goals)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Theorem)
	assert.Equal(t, []string{"p-b"}, records[1].Proof)
}
