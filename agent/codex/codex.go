// Package codex provides the Codex adapter for agentmux, driving the
// codex-acp bridge binary.
//
// Codex exposes coarser approval control than the other vendors: auto-edit
// maps to --full-auto and bypass maps to
// --dangerously-bypass-approvals-and-sandbox. Plan mode is unsupported.
package codex

import (
	"encoding/json"
	"fmt"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
)

// Type is the agent type this package implements.
const Type agentmux.AgentType = "codex"

const defaultBinary = "codex-acp"

// Adapter is the Codex ACP adapter.
type Adapter struct {
	binary string
}

var _ acp.Adapter = (*Adapter)(nil)

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithBinary overrides the codex-acp binary path. Empty values are ignored.
func WithBinary(path string) Option {
	return func(a *Adapter) {
		if path != "" {
			a.binary = path
		}
	}
}

// New creates a Codex adapter. The default binary is "codex-acp".
func New(opts ...Option) *Adapter {
	a := &Adapter{binary: defaultBinary}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type identifies the vendor.
func (a *Adapter) Type() agentmux.AgentType { return Type }

// SpawnSpec builds the subprocess command.
func (a *Adapter) SpawnSpec(_ string, extra []string) (acp.SpawnSpec, error) {
	return acp.SpawnSpec{
		Command: a.binary,
		Args:    append([]string(nil), extra...),
	}, nil
}

// PermissionArgs maps a cross-vendor permission mode to Codex approval flags.
func (a *Adapter) PermissionArgs(mode agentmux.PermissionMode) ([]string, error) {
	switch mode {
	case "", agentmux.PermissionDefault:
		return nil, nil
	case agentmux.PermissionAutoEdit:
		return []string{"--full-auto"}, nil
	case agentmux.PermissionBypass:
		return []string{"--dangerously-bypass-approvals-and-sandbox"}, nil
	case agentmux.PermissionPlan:
		return nil, fmt.Errorf("codex: permission mode %q not supported", mode)
	default:
		return nil, fmt.Errorf("codex: unknown permission mode %q", mode)
	}
}

// NormalizeEvent delegates to the shared ACP update parser.
func (a *Adapter) NormalizeEvent(sessionID string, update json.RawMessage) (agentmux.Event, bool) {
	return acp.ParseSessionUpdate(sessionID, update)
}
