package acp

import "encoding/json"

// JSON-RPC 2.0 method constants for the Agent Client Protocol.
const (
	MethodInitialize    = "initialize"
	MethodSessionNew    = "session/new"
	MethodSessionLoad   = "session/load"
	MethodSessionPrompt = "session/prompt"
	MethodSessionUpdate = "session/update"
	MethodSessionCancel = "session/cancel"
	MethodRequestPerm   = "session/request_permission"
)

// ACP protocol and client identity constants.
const (
	protocolVersion = 1 // ACP protocol version is an integer, not semver
	clientName      = "agentmux"
	clientVersion   = "0.1.0"
)

// --- Initialize ---

// initializeParams is sent to the agent to begin the capability handshake.
type initializeParams struct {
	ProtocolVersion    int                 `json:"protocolVersion"`
	ClientCapabilities *clientCapabilities `json:"clientCapabilities,omitempty"`
	ClientInfo         *implementation     `json:"clientInfo,omitempty"`
}

// initializeResult is the agent's response to initialize.
type initializeResult struct {
	ProtocolVersion   int                `json:"protocolVersion"`
	AgentCapabilities *agentCapabilities `json:"agentCapabilities,omitempty"`
	AgentInfo         *implementation    `json:"agentInfo,omitempty"`
	AuthMethods       []authMethod       `json:"authMethods,omitempty"`
}

// implementation identifies a client or agent.
type implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// clientCapabilities declares which client-side operations the client supports.
type clientCapabilities struct {
	FS       *fileSystemCapability `json:"fs,omitempty"`
	Terminal bool                  `json:"terminal,omitempty"`
}

// fileSystemCapability declares file system operations the client supports.
type fileSystemCapability struct {
	ReadTextFile  bool `json:"readTextFile,omitempty"`
	WriteTextFile bool `json:"writeTextFile,omitempty"`
}

// agentCapabilities declares what the agent supports.
type agentCapabilities struct {
	LoadSession bool `json:"loadSession,omitempty"`
}

// authMethod describes an authentication method offered by the agent.
type authMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// --- Session ---

// newSessionParams creates a new agent session.
type newSessionParams struct {
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers"`
}

// newSessionResult is the response to session/new.
type newSessionResult struct {
	SessionID string            `json:"sessionId"`
	Modes     *sessionModeState `json:"modes,omitempty"`
}

// loadSessionParams resumes an existing session.
type loadSessionParams struct {
	SessionID  string      `json:"sessionId"`
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers"`
}

// loadSessionResult is the response to session/load. There is no SessionID
// field; the caller uses the requested id directly.
type loadSessionResult struct {
	Modes *sessionModeState `json:"modes,omitempty"`
}

// MCPServer describes an MCP server to attach to a session (stdio transport).
type MCPServer struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// sessionModeState describes the agent's current and available operating modes.
type sessionModeState struct {
	CurrentModeID  string        `json:"currentModeId"`
	AvailableModes []sessionMode `json:"availableModes"`
}

// sessionMode describes a single operating mode.
type sessionMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// --- Prompt ---

// contentBlock is a single content element in a prompt (text-only).
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// promptParams sends a user message to the session.
type promptParams struct {
	SessionID string         `json:"sessionId"`
	Prompt    []contentBlock `json:"prompt"`
}

// promptResult is the response when a prompt turn completes.
type promptResult struct {
	StopReason string `json:"stopReason,omitempty"`
}

// cancelParams is the session/cancel notification payload.
type cancelParams struct {
	SessionID string `json:"sessionId"`
}

// --- Updates (notifications from agent) ---

// sessionNotification is the outer envelope for session/update notifications.
type sessionNotification struct {
	SessionID string          `json:"sessionId"`
	Update    json.RawMessage `json:"update"`
}

// sessionUpdateHeader extracts the discriminator from the inner update object.
type sessionUpdateHeader struct {
	SessionUpdate string `json:"sessionUpdate"`
}

// --- Permission (reverse-request wire types) ---

// requestPermissionParams is the ACP wire format for permission requests.
type requestPermissionParams struct {
	SessionID string          `json:"sessionId"`
	ToolCall  toolCallUpdate  `json:"toolCall"`
	Options   []permissionOpt `json:"options"`
}

// toolCallUpdate describes a tool call in permission and update contexts.
type toolCallUpdate struct {
	ToolCallID string          `json:"toolCallId"`
	Title      string          `json:"title,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Status     string          `json:"status,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	RawInput   json.RawMessage `json:"rawInput,omitempty"`
	RawOutput  json.RawMessage `json:"rawOutput,omitempty"`
}

// permissionOpt is a single option in a permission request.
type permissionOpt struct {
	OptionID string `json:"optionId"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
}

// requestPermissionResult is the response to a permission request.
type requestPermissionResult struct {
	Outcome requestPermissionOutcome `json:"outcome"`
}

// requestPermissionOutcome is the selected outcome.
type requestPermissionOutcome struct {
	Outcome  string `json:"outcome"`
	OptionID string `json:"optionId,omitempty"`
}
