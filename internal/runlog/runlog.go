// Package runlog owns the run directory's observable artifacts: an
// append-only JSONL event log plus per-iteration and terminal JSON files.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

const logFileName = "log.jsonl"

// ProofRecord pairs a theorem with the proof trace found for it.
type ProofRecord struct {
	Theorem string   `json:"theorem"`
	Proof   []string `json:"proof"`
}

type event struct {
	Iteration   int      `json:"iteration"`
	Msg         string   `json:"msg"`
	Conjectures []string `json:"conjectures,omitempty"`
}

// RunLog writes artifacts into one run directory.
type RunLog struct {
	dir string
	log *os.File
}

// Open creates the run directory if needed and opens the event log for
// appending.
func Open(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", logFileName, err)
	}
	return &RunLog{dir: dir, log: f}, nil
}

// Close closes the event log.
func (l *RunLog) Close() error {
	return l.log.Close()
}

// Event appends one line to log.jsonl.
func (l *RunLog) Event(iteration int, msg string, conjectures []string) error {
	line, err := json.Marshal(event{Iteration: iteration, Msg: msg, Conjectures: conjectures})
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}
	if _, err := l.log.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append log event: %w", err)
	}
	return nil
}

// WriteExamples writes the curated corpus for iteration i.
func (l *RunLog) WriteExamples(i int, examples []domain.TrainingExample) error {
	return l.writeJSON(fmt.Sprintf("examples_%d.json", i), examples)
}

// WriteValProofs writes the validation proof traces for iteration i.
func (l *RunLog) WriteValProofs(i int, records []ProofRecord) error {
	return l.writeJSON(fmt.Sprintf("val_goals_proofs_%d.json", i), records)
}

// WriteFinalProofs writes the terminal final-goal proof traces.
func (l *RunLog) WriteFinalProofs(records []ProofRecord) error {
	return l.writeJSON("final_goals_proofs.json", records)
}

func (l *RunLog) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(l.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// Records converts proof attempts into proof records.
func Records(attempts []domain.ProofAttempt) []ProofRecord {
	records := make([]ProofRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, ProofRecord{Theorem: a.Problem, Proof: a.Proof})
	}
	return records
}
