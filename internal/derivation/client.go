package derivation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPEngine talks to a derivation engine service over its JSON API. One
// engine process serves one incorporated theory at a time, matching how the
// orchestrator uses it.
type HTTPEngine struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPEngine(baseURL string) *HTTPEngine {
	return &HTTPEngine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type engineRequest struct {
	Statement string `json:"statement,omitempty"`
	Theory    string `json:"theory,omitempty"`
}

type engineResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

func (e *HTTPEngine) call(ctx context.Context, op string, req engineRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/"+op, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("engine %s returned status %d: %s", op, resp.StatusCode, string(respBody))
	}

	var result engineResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal %s response: %w", op, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("engine %s error: %s", op, result.Error)
	}
	return result.Result, nil
}

func (e *HTTPEngine) Incorporate(ctx context.Context, theory string) error {
	_, err := e.call(ctx, "incorporate", engineRequest{Theory: theory})
	return err
}

func (e *HTTPEngine) Contract(ctx context.Context, statement string) (string, error) {
	return e.call(ctx, "contract", engineRequest{Statement: statement})
}

func (e *HTTPEngine) Elaborate(ctx context.Context, statement string) (string, error) {
	return e.call(ctx, "elaborate", engineRequest{Statement: statement})
}
