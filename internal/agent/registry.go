package agent

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

// NewAllAgents собирает всех агентов, доступных через HTTP
func NewAllAgents(logger *zap.Logger) []Agent {
	if logger == nil {
		logger = zap.NewNop()
	}

	return []Agent{
		NewEchoAgent(logger),
		NewLeadAssistant(logger),
	}
}

type Registry struct {
	agents map[string]Agent
}

func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		r.agents[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
