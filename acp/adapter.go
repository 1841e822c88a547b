package acp

import (
	"encoding/json"

	"github.com/geniusgordon/agentmux"
)

// Adapter is the capability set a vendor must supply to run under a Client.
//
// The interface is defined here, at the consumer side, following Go interface
// ownership conventions; vendor packages (agent/claude, agent/gemini,
// agent/codex) provide concrete implementations. No component outside a
// vendor package inspects agent-type tags; everything vendor-specific flows
// through these methods.
type Adapter interface {
	// Type identifies the vendor.
	Type() agentmux.AgentType

	// SpawnSpec builds the subprocess command for a client rooted at cwd.
	// extra is appended after the vendor's own arguments. Must not perform
	// I/O; binary resolution happens in Client.Start.
	SpawnSpec(cwd string, extra []string) (SpawnSpec, error)

	// PermissionArgs maps a cross-vendor permission mode to vendor-specific
	// command-line flags. Vendors whose mode auto-approves reverse-requests
	// do so here, at the spawn-argument level; unsupported modes return an
	// error. PermissionDefault always yields no flags.
	PermissionArgs(mode agentmux.PermissionMode) ([]string, error)

	// NormalizeEvent converts a raw session/update payload (the inner update
	// object) into the shared event taxonomy. Returns false to consume the
	// update silently. Vendor-specific field names must not survive past
	// this call; most vendors delegate to ParseSessionUpdate.
	NormalizeEvent(sessionID string, update json.RawMessage) (agentmux.Event, bool)
}

// SpawnSpec is the resolved subprocess command for an agent.
type SpawnSpec struct {
	// Command is the executable name or path, resolved via PATH at start.
	Command string

	// Args are the full argument list, permission flags included.
	Args []string

	// Env are extra environment entries in "KEY=value" form, appended to
	// the inherited environment.
	Env []string
}
