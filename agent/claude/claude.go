package claude

import (
	"encoding/json"
	"fmt"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
)

// Type is the agent type this package implements.
const Type agentmux.AgentType = "claude"

const defaultBinary = "claude-code-acp"

// Claude Code --permission-mode values.
const (
	permAcceptEdits = "acceptEdits"
	permBypass      = "bypassPermissions"
	permPlan        = "plan"
)

// Adapter is the Claude Code ACP adapter.
type Adapter struct {
	binary string
}

var _ acp.Adapter = (*Adapter)(nil)

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithBinary overrides the claude-code-acp binary path.
// Empty values are ignored.
func WithBinary(path string) Option {
	return func(a *Adapter) {
		if path != "" {
			a.binary = path
		}
	}
}

// New creates a Claude Code adapter. The default binary is "claude-code-acp".
func New(opts ...Option) *Adapter {
	a := &Adapter{binary: defaultBinary}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Type identifies the vendor.
func (a *Adapter) Type() agentmux.AgentType { return Type }

// SpawnSpec builds the subprocess command. claude-code-acp takes no
// positional arguments; the working directory comes from the process cwd.
func (a *Adapter) SpawnSpec(_ string, extra []string) (acp.SpawnSpec, error) {
	return acp.SpawnSpec{
		Command: a.binary,
		Args:    append([]string(nil), extra...),
	}, nil
}

// PermissionArgs maps a cross-vendor permission mode to --permission-mode.
func (a *Adapter) PermissionArgs(mode agentmux.PermissionMode) ([]string, error) {
	switch mode {
	case "", agentmux.PermissionDefault:
		return nil, nil
	case agentmux.PermissionAutoEdit:
		return []string{"--permission-mode", permAcceptEdits}, nil
	case agentmux.PermissionBypass:
		return []string{"--permission-mode", permBypass}, nil
	case agentmux.PermissionPlan:
		return []string{"--permission-mode", permPlan}, nil
	default:
		return nil, fmt.Errorf("claude: unknown permission mode %q", mode)
	}
}

// NormalizeEvent delegates to the shared ACP update parser; claude-code-acp
// emits standard-conformant session updates.
func (a *Adapter) NormalizeEvent(sessionID string, update json.RawMessage) (agentmux.Event, bool) {
	return acp.ParseSessionUpdate(sessionID, update)
}
