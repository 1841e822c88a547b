package agentmux

import "time"

// AgentType identifies an agent vendor ("claude", "gemini", "codex").
// The set of valid values is defined by the registered adapters; no component
// outside the vendor adapter packages branches on this value.
type AgentType string

// ClientStatus is the lifecycle state of a protocol client.
type ClientStatus string

const (
	ClientSpawning     ClientStatus = "spawning"
	ClientInitializing ClientStatus = "initializing"
	ClientReady        ClientStatus = "ready"
	ClientStopping     ClientStatus = "stopping"
	ClientExited       ClientStatus = "exited"
	ClientError        ClientStatus = "error"
)

// Terminal reports whether the status is final.
func (s ClientStatus) Terminal() bool {
	return s == ClientExited || s == ClientError
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
	SessionKilled    SessionStatus = "killed"
)

// ClientInfo is a point-in-time snapshot of a client. The subprocess handle
// itself is owned by the protocol client and never exposed.
type ClientInfo struct {
	ID        string       `json:"id"`
	AgentType AgentType    `json:"agent_type"`
	CWD       string       `json:"cwd"`
	Status    ClientStatus `json:"status"`
}

// SessionMode is one operating mode offered by the agent.
type SessionMode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionInfo is a point-in-time snapshot of a session. A session is attached
// to exactly one client for its entire lifetime.
type SessionInfo struct {
	ID             string        `json:"id"`
	ClientID       string        `json:"client_id"`
	CWD            string        `json:"cwd"`
	Name           string        `json:"name,omitempty"`
	Status         SessionStatus `json:"status"`
	AvailableModes []SessionMode `json:"available_modes,omitempty"`
	CurrentModeID  string        `json:"current_mode_id,omitempty"`
}

// PermissionOption is one selectable resolution offered by the agent.
// Kind follows the ACP vocabulary: allow_once, allow_always, reject_once,
// reject_always.
type PermissionOption struct {
	OptionID string `json:"option_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
}

// PermissionRequest is a snapshot of an agent-initiated permission request
// awaiting resolution. It is never persisted beyond process lifetime.
type PermissionRequest struct {
	ID        string             `json:"id"`
	ClientID  string             `json:"client_id"`
	SessionID string             `json:"session_id"`
	ToolCall  ToolCall           `json:"tool_call"`
	Options   []PermissionOption `json:"options"`
	CreatedAt time.Time          `json:"created_at"`
}

// PermissionMode is the cross-vendor permission posture requested at spawn
// time. Adapters map these to vendor-specific flags; vendors that auto-approve
// under a given mode do so at the spawn-argument level, and each adapter
// documents its own mapping.
type PermissionMode string

const (
	// PermissionDefault leaves the agent's permission handling untouched.
	PermissionDefault PermissionMode = "default"

	// PermissionAutoEdit auto-approves file edit operations.
	PermissionAutoEdit PermissionMode = "auto-edit"

	// PermissionBypass disables permission prompts entirely. Whether this
	// suppresses reverse permission requests is vendor-defined.
	PermissionBypass PermissionMode = "bypass"

	// PermissionPlan restricts the agent to planning without side effects.
	// Not every vendor supports it.
	PermissionPlan PermissionMode = "plan"
)
