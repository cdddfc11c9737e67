// Package checkpoint persists the policy snapshot and run state at the end
// of every iteration and restores them on resume. Writes are atomic
// (temp-then-rename) so a crash leaves either the previous or the new
// checkpoint intact.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	snapshotFile  = "policy.ckpt"
	stateFile     = "run_state.json"
	modelInfoFile = "model_info.yaml"
)

var (
	// ErrNoCheckpoint means the run directory holds no checkpoint at all;
	// the run starts fresh.
	ErrNoCheckpoint = errors.New("no checkpoint found")

	// ErrCorruptCheckpoint means a snapshot exists but its metadata or state
	// is missing or unreadable. Resuming would desynchronize the accumulator
	// sets from the policy's training history, so this is fatal.
	ErrCorruptCheckpoint = errors.New("checkpoint metadata missing or corrupt")
)

// RunHandle names the checkpoint location explicitly, decoupled from the
// process working directory.
type RunHandle struct {
	Dir string
}

type modelInfo struct {
	Iteration int `yaml:"iteration"`
}

// Checkpointer saves and loads run checkpoints under one run directory.
type Checkpointer struct {
	dir string
}

func New(handle RunHandle) *Checkpointer {
	return &Checkpointer{dir: handle.Dir}
}

// Save persists the snapshot, the run state, and last the iteration
// metadata. The metadata acts as the commit marker: Load refuses a directory
// where the snapshot exists without it.
func (c *Checkpointer) Save(snapshot []byte, state *domain.RunState) error {
	if err := writeAtomic(filepath.Join(c.dir, snapshotFile), snapshot); err != nil {
		return fmt.Errorf("write policy snapshot: %w", err)
	}

	stateRaw, err := json.MarshalIndent(state.Data(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}
	if err := writeAtomic(filepath.Join(c.dir, stateFile), stateRaw); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}

	infoRaw, err := yaml.Marshal(modelInfo{Iteration: state.Iteration()})
	if err != nil {
		return fmt.Errorf("marshal model info: %w", err)
	}
	if err := writeAtomic(filepath.Join(c.dir, modelInfoFile), infoRaw); err != nil {
		return fmt.Errorf("write model info: %w", err)
	}
	return nil
}

// Load restores the snapshot and run state of the last completed iteration.
// Returns ErrNoCheckpoint if the directory has never been checkpointed, and
// an error wrapping ErrCorruptCheckpoint on partial or unreadable state.
func (c *Checkpointer) Load() ([]byte, *domain.RunState, error) {
	snapshot, err := os.ReadFile(filepath.Join(c.dir, snapshotFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read policy snapshot: %w", err)
	}

	infoRaw, err := os.ReadFile(filepath.Join(c.dir, modelInfoFile))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read model info: %v", ErrCorruptCheckpoint, err)
	}
	var info modelInfo
	if err := yaml.Unmarshal(infoRaw, &info); err != nil {
		return nil, nil, fmt.Errorf("%w: parse model info: %v", ErrCorruptCheckpoint, err)
	}

	stateRaw, err := os.ReadFile(filepath.Join(c.dir, stateFile))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read run state: %v", ErrCorruptCheckpoint, err)
	}
	var data domain.RunStateData
	if err := json.Unmarshal(stateRaw, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: parse run state: %v", ErrCorruptCheckpoint, err)
	}
	if data.Iteration != info.Iteration {
		return nil, nil, fmt.Errorf("%w: run state is at iteration %d but model info says %d",
			ErrCorruptCheckpoint, data.Iteration, info.Iteration)
	}

	return snapshot, domain.RestoreRunState(data), nil
}

// writeAtomic writes data to path via a temp file in the same directory and
// a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
