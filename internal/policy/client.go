// Package policy exposes the learned agent through the narrow surface the
// loop consumes: sample a conjecture, capture/restore a snapshot, train on a
// batch of examples. The model itself runs behind an HTTP service.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// HTTPPolicy is a client for a policy inference/training service.
type HTTPPolicy struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPPolicy(baseURL string) *HTTPPolicy {
	return &HTTPPolicy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type sampleRequest struct {
	Prompt string `json:"prompt"`
}

type sampleResponse struct {
	Conjecture string `json:"conjecture"`
}

type snapshotResponse struct {
	Snapshot []byte `json:"snapshot"`
}

type restoreRequest struct {
	Snapshot []byte `json:"snapshot"`
}

type trainResponse struct {
	ValLoss float64 `json:"val_loss"`
}

func (p *HTTPPolicy) post(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("policy service %s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}

func (p *HTTPPolicy) SampleConjecture(ctx context.Context, prompt string) (string, error) {
	var resp sampleResponse
	if err := p.post(ctx, "/v1/sample", sampleRequest{Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Conjecture), nil
}

func (p *HTTPPolicy) Snapshot(ctx context.Context) ([]byte, error) {
	var resp snapshotResponse
	if err := p.post(ctx, "/v1/snapshot", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Snapshot) == 0 {
		return nil, fmt.Errorf("policy service returned an empty snapshot")
	}
	return resp.Snapshot, nil
}

func (p *HTTPPolicy) Restore(ctx context.Context, snapshot []byte) error {
	return p.post(ctx, "/v1/restore", restoreRequest{Snapshot: snapshot}, nil)
}

func (p *HTTPPolicy) Train(ctx context.Context, batch domain.TrainingBatch) (float64, error) {
	var resp trainResponse
	if err := p.post(ctx, "/v1/train", batch, &resp); err != nil {
		return 0, err
	}
	return resp.ValLoss, nil
}
