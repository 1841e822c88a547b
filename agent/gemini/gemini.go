// Package gemini provides the Gemini CLI adapter for agentmux. The Gemini CLI
// speaks ACP behind its --experimental-acp flag.
//
// Permission modes map to --approval-mode: auto-edit is "auto_edit", bypass
// is "yolo". Plan mode has no Gemini equivalent and fails at spawn.
package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
)

// Type is the agent type this package implements.
const Type agentmux.AgentType = "gemini"

const defaultBinary = "gemini"

// Adapter is the Gemini CLI ACP adapter.
type Adapter struct {
	binary string
}

var _ acp.Adapter = (*Adapter)(nil)

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithBinary overrides the gemini binary path. Empty values are ignored.
func WithBinary(path string) Option {
	return func(a *Adapter) {
		if path != "" {
			a.binary = path
		}
	}
}

// New creates a Gemini adapter. The default binary is "gemini".
func New(opts ...Option) *Adapter {
	a := &Adapter{binary: defaultBinary}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type identifies the vendor.
func (a *Adapter) Type() agentmux.AgentType { return Type }

// SpawnSpec builds the subprocess command with the ACP mode flag first.
func (a *Adapter) SpawnSpec(_ string, extra []string) (acp.SpawnSpec, error) {
	args := []string{"--experimental-acp"}
	return acp.SpawnSpec{
		Command: a.binary,
		Args:    append(args, extra...),
	}, nil
}

// PermissionArgs maps a cross-vendor permission mode to --approval-mode.
func (a *Adapter) PermissionArgs(mode agentmux.PermissionMode) ([]string, error) {
	switch mode {
	case "", agentmux.PermissionDefault:
		return nil, nil
	case agentmux.PermissionAutoEdit:
		return []string{"--approval-mode", "auto_edit"}, nil
	case agentmux.PermissionBypass:
		return []string{"--approval-mode", "yolo"}, nil
	case agentmux.PermissionPlan:
		return nil, fmt.Errorf("gemini: permission mode %q not supported", mode)
	default:
		return nil, fmt.Errorf("gemini: unknown permission mode %q", mode)
	}
}

// NormalizeEvent delegates to the shared ACP update parser.
func (a *Adapter) NormalizeEvent(sessionID string, update json.RawMessage) (agentmux.Event, bool) {
	return acp.ParseSessionUpdate(sessionID, update)
}
