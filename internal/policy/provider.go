package policy

import (
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// Provider constants
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
)

// NewPolicy creates a policy client based on the provider name.
func NewPolicy(provider, baseURL string) (domain.Policy, error) {
	switch provider {
	case ProviderHTTP:
		if baseURL == "" {
			return nil, fmt.Errorf("POLICY_URL is required for the http policy provider")
		}
		return NewHTTPPolicy(baseURL), nil

	case ProviderMock:
		return NewMockPolicy(), nil

	default:
		return nil, fmt.Errorf("unknown policy provider: %s (valid options: http, mock)", provider)
	}
}
