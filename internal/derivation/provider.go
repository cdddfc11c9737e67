package derivation

import (
	"fmt"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// Provider constants
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
)

// NewEngine creates a derivation engine based on the provider name.
func NewEngine(provider, baseURL string) (domain.Engine, error) {
	switch provider {
	case ProviderHTTP:
		if baseURL == "" {
			return nil, fmt.Errorf("ENGINE_URL is required for the http engine provider")
		}
		return NewHTTPEngine(baseURL), nil

	case ProviderMock:
		return NewMockEngine(), nil

	default:
		return nil, fmt.Errorf("unknown engine provider: %s (valid options: http, mock)", provider)
	}
}
