package llm

import "fmt"

// Manager selects among named Provider implementations by config, grounded
// on the teacher's agent.Manager (pkg/core/agent/manager.go).
type Manager struct {
	active    string
	providers map[string]Provider
}

// NewManager constructs a Manager with the given active provider name and
// registered providers. "fallback" is always registered even if not passed
// explicitly, so GetProvider never returns nil.
func NewManager(active string, providers map[string]Provider) *Manager {
	m := &Manager{active: active, providers: map[string]Provider{}}
	for name, p := range providers {
		m.providers[name] = p
	}
	if _, ok := m.providers["fallback"]; !ok {
		m.providers["fallback"] = FallbackProvider{}
	}
	return m
}

// GetProvider returns the active provider, falling back to the rule-based
// provider if the configured one isn't registered.
func (m *Manager) GetProvider() Provider {
	if p, ok := m.providers[m.active]; ok {
		return p
	}
	return m.providers["fallback"]
}

// GetProviderByName retrieves a specific named provider.
func (m *Manager) GetProviderByName(name string) (Provider, error) {
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("llm: provider %q not registered", name)
}

// SetActive changes the active provider name.
func (m *Manager) SetActive(name string) error {
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("llm: provider %q not registered", name)
	}
	m.active = name
	return nil
}
