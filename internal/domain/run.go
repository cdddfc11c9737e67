package domain

import "sort"

// RunState holds the accumulators that survive across iterations: the set of
// conjectures proven so far, their proofs, the hindsight goals already
// consumed, and the index of the last completed iteration (-1 for a fresh
// run). It is owned exclusively by the orchestrator and lent to the curator
// for the duration of one curation call.
type RunState struct {
	iteration     int
	proven        []string
	provenSet     map[string]struct{}
	proofs        [][]string
	seenHindsight map[string]struct{}
}

// NewRunState returns the state of a fresh run: nothing proven, no hindsight
// goals seen, no iteration completed yet.
func NewRunState() *RunState {
	return &RunState{
		iteration:     -1,
		provenSet:     make(map[string]struct{}),
		seenHindsight: make(map[string]struct{}),
	}
}

// Iteration returns the index of the last completed iteration, or -1.
func (s *RunState) Iteration() int { return s.iteration }

// SetIteration records iteration i as completed.
func (s *RunState) SetIteration(i int) { s.iteration = i }

// HasProven reports whether the conjecture was proven in any prior iteration.
func (s *RunState) HasProven(conjecture string) bool {
	_, ok := s.provenSet[conjecture]
	return ok
}

// MarkProven records a proven conjecture and its proof trace.
func (s *RunState) MarkProven(conjecture string, proof []string) {
	if _, ok := s.provenSet[conjecture]; ok {
		return
	}
	s.provenSet[conjecture] = struct{}{}
	s.proven = append(s.proven, conjecture)
	s.proofs = append(s.proofs, proof)
}

// Proven returns the proven conjectures in the order they were recorded.
func (s *RunState) Proven() []string { return s.proven }

// Proofs returns the recorded proof traces, parallel to Proven.
func (s *RunState) Proofs() [][]string { return s.proofs }

// HasHindsightGoal reports whether the goal was already consumed. The set
// only grows: a goal once consumed is never reconsidered, even if it
// resurfaces with a different likelihood.
func (s *RunState) HasHindsightGoal(goal string) bool {
	_, ok := s.seenHindsight[goal]
	return ok
}

// MarkHindsightGoal records a hindsight goal as consumed.
func (s *RunState) MarkHindsightGoal(goal string) {
	s.seenHindsight[goal] = struct{}{}
}

// RunStateData is the serializable form of RunState, persisted with every
// checkpoint so that a resumed run keeps its accumulator sets in sync with
// the policy's training history.
type RunStateData struct {
	Iteration          int        `json:"iteration"`
	ProvenConjectures  []string   `json:"proven_conjectures"`
	Proofs             [][]string `json:"proofs"`
	SeenHindsightGoals []string   `json:"seen_hindsight_goals"`
}

// Data returns a snapshot of the state for persistence. Hindsight goals are
// sorted so the artifact is stable across runs.
func (s *RunState) Data() RunStateData {
	goals := make([]string, 0, len(s.seenHindsight))
	for g := range s.seenHindsight {
		goals = append(goals, g)
	}
	sort.Strings(goals)

	proven := make([]string, len(s.proven))
	copy(proven, s.proven)
	proofs := make([][]string, len(s.proofs))
	copy(proofs, s.proofs)

	return RunStateData{
		Iteration:          s.iteration,
		ProvenConjectures:  proven,
		Proofs:             proofs,
		SeenHindsightGoals: goals,
	}
}

// RestoreRunState rebuilds a RunState from its persisted form.
func RestoreRunState(data RunStateData) *RunState {
	s := NewRunState()
	s.iteration = data.Iteration
	for i, c := range data.ProvenConjectures {
		var proof []string
		if i < len(data.Proofs) {
			proof = data.Proofs[i]
		}
		s.MarkProven(c, proof)
	}
	for _, g := range data.SeenHindsightGoals {
		s.MarkHindsightGoal(g)
	}
	return s
}
