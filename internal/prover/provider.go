package prover

import (
	"fmt"
	"strings"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// Provider constants
const (
	ProviderExec = "exec"
	ProviderMock = "mock"
)

// NewProver creates a prover based on the provider name. For the exec
// provider, command is the search binary plus arguments, space-separated.
func NewProver(provider, command string) (domain.Prover, error) {
	switch provider {
	case ProviderExec:
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("PROVER_CMD is required for the exec prover provider")
		}
		return NewExecProver(fields[0], fields[1:]...), nil

	case ProviderMock:
		return NewMockProver(), nil

	default:
		return nil, fmt.Errorf("unknown prover provider: %s (valid options: exec, mock)", provider)
	}
}
