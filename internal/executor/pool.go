package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PoolExecutor fans tasks out to a pool of HTTP workers, round-robin. A
// worker that cannot be reached or answers with a non-200 status yields an
// error result; the collector drops it like any other failed task.
type PoolExecutor struct {
	urls       []string
	next       atomic.Uint64
	httpClient *http.Client
	g          *errgroup.Group
	logger     *zap.Logger
}

func NewPool(workerURLs []string, parallelism int, logger *zap.Logger) *PoolExecutor {
	if parallelism <= 0 {
		parallelism = len(workerURLs) * defaultParallelism
	}
	urls := make([]string, len(workerURLs))
	for i, u := range workerURLs {
		urls[i] = strings.TrimRight(u, "/")
	}
	g := new(errgroup.Group)
	g.SetLimit(parallelism)
	return &PoolExecutor{
		urls: urls,
		// Proof searches run for minutes; the worker enforces its own task
		// deadline, so the client only guards against dead connections.
		httpClient: &http.Client{Timeout: 2 * time.Hour},
		g:          g,
		logger:     logger,
	}
}

func (e *PoolExecutor) Submit(ctx context.Context, task domain.ProofTask) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := e.urls[e.next.Add(1)%uint64(len(e.urls))]
	h := newChanHandle()
	e.g.Go(func() error {
		attempt, err := e.run(ctx, url, task)
		if err != nil {
			e.logger.Warn("worker task failed",
				zap.String("worker", url),
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			attempt = errorAttempt(task, err)
		}
		h.ch <- attempt
		return nil
	})
	return h, nil
}

func (e *PoolExecutor) run(ctx context.Context, url string, task domain.ProofTask) (domain.ProofAttempt, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("create task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("submit task: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("read task response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ProofAttempt{}, fmt.Errorf("worker returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var attempt domain.ProofAttempt
	if err := json.Unmarshal(respBody, &attempt); err != nil {
		return domain.ProofAttempt{}, fmt.Errorf("unmarshal task response: %w", err)
	}
	return attempt, nil
}

// Close waits for all in-flight tasks to finish.
func (e *PoolExecutor) Close() error {
	return e.g.Wait()
}
