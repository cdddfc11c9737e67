package loop

import (
	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/aletheia-lab/aletheia/internal/runlog"
)

// Terminated reports whether every goal appears among the successfully
// proved problems in results.
func Terminated(results []domain.ProofAttempt, goals []string) bool {
	proved := provedSet(results)
	for _, g := range goals {
		if _, ok := proved[g]; !ok {
			return false
		}
	}
	return true
}

// FinalRecords returns exactly one proof record per goal, in goal order.
// Call only after Terminated holds.
func FinalRecords(results []domain.ProofAttempt, goals []string) []runlog.ProofRecord {
	proved := provedSet(results)
	records := make([]runlog.ProofRecord, 0, len(goals))
	for _, g := range goals {
		records = append(records, runlog.ProofRecord{Theorem: g, Proof: proved[g]})
	}
	return records
}

func provedSet(results []domain.ProofAttempt) map[string][]string {
	proved := make(map[string][]string, len(results))
	for _, r := range results {
		if r.Success {
			proved[r.Problem] = r.Proof
		}
	}
	return proved
}
