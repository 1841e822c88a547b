package agentmux

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event emitted by an agent session.
type EventType string

const (
	// EventMessageDelta is an incremental chunk of assistant text.
	EventMessageDelta EventType = "message_delta"

	// EventThoughtDelta is an incremental chunk of assistant reasoning.
	EventThoughtDelta EventType = "thought_delta"

	// EventToolCall indicates the agent started a tool invocation.
	EventToolCall EventType = "tool_call"

	// EventToolCallUpdate carries progress or completion of a tool invocation.
	EventToolCallUpdate EventType = "tool_call_update"

	// EventPlan carries the agent's current plan as newline-joined entries.
	EventPlan EventType = "plan"

	// EventCommandsUpdate signals the agent's available command set changed.
	EventCommandsUpdate EventType = "commands_update"

	// EventModeChange signals the session's operating mode changed.
	EventModeChange EventType = "mode_change"

	// EventPermissionRequested signals a permission request was parked and
	// awaits Approve/Deny. PermissionID identifies the registry entry.
	EventPermissionRequested EventType = "permission_requested"

	// EventTurnEnded signals a prompt turn completed. StopReason is set.
	EventTurnEnded EventType = "turn_ended"

	// EventClientStatus signals a client status transition.
	EventClientStatus EventType = "client_status"

	// EventError carries an error from the agent or the runtime.
	EventError EventType = "error"
)

// Event is an immutable record forwarded to subscribers. Events are never
// stored centrally; each is produced once and delivered in arrival order.
type Event struct {
	// Type identifies the kind of event.
	Type EventType `json:"type"`

	// ClientID is the id of the client that produced the event.
	ClientID string `json:"client_id"`

	// SessionID is the id of the originating session, if any.
	SessionID string `json:"session_id,omitempty"`

	// Content is the text payload (deltas, plan, errors, mode ids).
	Content string `json:"content,omitempty"`

	// Tool carries tool invocation details for tool events.
	Tool *ToolCall `json:"tool,omitempty"`

	// StopReason is set on EventTurnEnded.
	StopReason StopReason `json:"stop_reason,omitempty"`

	// PermissionID identifies the pending permission for
	// EventPermissionRequested.
	PermissionID string `json:"permission_id,omitempty"`

	// ClientStatus is set on EventClientStatus.
	ClientStatus ClientStatus `json:"client_status,omitempty"`

	// Timestamp is when the event was produced.
	Timestamp time.Time `json:"timestamp"`
}

// ToolCall describes a tool invocation by the agent.
type ToolCall struct {
	// ID is the agent-assigned tool call identifier.
	ID string `json:"id,omitempty"`

	// Title is the human-readable tool description.
	Title string `json:"title,omitempty"`

	// Kind classifies the tool call (read, edit, execute, ...).
	Kind string `json:"kind,omitempty"`

	// Status is the tool call state (pending, in_progress, completed, failed).
	Status string `json:"status,omitempty"`

	// Input is the tool's input parameters as raw JSON.
	Input json.RawMessage `json:"input,omitempty"`

	// Output is the tool's result as raw JSON.
	Output json.RawMessage `json:"output,omitempty"`
}

// StopReason is a terminal classification of why a prompt turn ended.
type StopReason string

// Stop reasons defined by the ACP specification. Agents may report values
// outside this set; Recognized distinguishes the known ones.
const (
	StopEndTurn         StopReason = "end_turn"
	StopMaxTokens       StopReason = "max_tokens"
	StopMaxTurnRequests StopReason = "max_turn_requests"
	StopRefusal         StopReason = "refusal"
	StopCancelled       StopReason = "cancelled"
)

// Recognized reports whether s is a stop reason defined by the protocol.
func (s StopReason) Recognized() bool {
	switch s {
	case StopEndTurn, StopMaxTokens, StopMaxTurnRequests, StopRefusal, StopCancelled:
		return true
	}
	return false
}

// Success reports whether s indicates the turn ran to natural completion.
func (s StopReason) Success() bool {
	return s == StopEndTurn
}
