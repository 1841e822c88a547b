// Package agent indexes the vendor adapter packages. The table maps an agent
// type to a builder for its acp.Adapter; the Manager and CLI look adapters up
// here instead of branching on vendor identity themselves.
package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
	"github.com/geniusgordon/agentmux/agent/claude"
	"github.com/geniusgordon/agentmux/agent/codex"
	"github.com/geniusgordon/agentmux/agent/gemini"
)

// Builder constructs a vendor adapter. binary overrides the vendor's default
// executable name; empty keeps the default.
type Builder func(binary string) acp.Adapter

var (
	mu       sync.RWMutex
	builders = map[agentmux.AgentType]Builder{
		claude.Type: func(binary string) acp.Adapter { return claude.New(claude.WithBinary(binary)) },
		gemini.Type: func(binary string) acp.Adapter { return gemini.New(gemini.WithBinary(binary)) },
		codex.Type:  func(binary string) acp.Adapter { return codex.New(codex.WithBinary(binary)) },
	}
)

// Register adds a builder for an agent type. Registering an already-known
// type fails, so built-in vendors cannot be silently shadowed.
func Register(t agentmux.AgentType, b Builder) error {
	if t == "" || b == nil {
		return fmt.Errorf("agent: register %q: type and builder must be non-empty", t)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := builders[t]; exists {
		return fmt.Errorf("agent: type %q already registered", t)
	}
	builders[t] = b
	return nil
}

// Lookup returns the builder for an agent type.
func Lookup(t agentmux.AgentType) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[t]
	return b, ok
}

// New builds an adapter for the given agent type with its default binary.
func New(t agentmux.AgentType) (acp.Adapter, error) {
	return NewWithBinary(t, "")
}

// NewWithBinary builds an adapter with an overridden executable name or path.
func NewWithBinary(t agentmux.AgentType, binary string) (acp.Adapter, error) {
	b, ok := Lookup(t)
	if !ok {
		return nil, fmt.Errorf("agent: unknown agent type %q (known: %v): %w", t, Types(), agentmux.ErrUnavailable)
	}
	return b(binary), nil
}

// Types returns all registered agent types, sorted.
func Types() []agentmux.AgentType {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]agentmux.AgentType, 0, len(builders))
	for t := range builders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
