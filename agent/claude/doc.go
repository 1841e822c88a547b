// Package claude provides the Claude Code adapter for agentmux.
//
// The [Adapter] drives the claude-code-acp binary, which speaks the Agent
// Client Protocol natively over stdio.
//
// # Permission modes
//
// Cross-vendor permission modes map to the --permission-mode flag:
//
//   - default: no flag; every sensitive tool call arrives as a
//     session/request_permission reverse-request
//   - auto-edit: "acceptEdits", file edits approved at the agent side,
//     other tool calls still request permission
//   - bypass: "bypassPermissions", no reverse-requests at all
//   - plan: "plan", read-only planning, no side effects
//
// Auto-approval happens inside the agent subprocess; the client never
// fabricates permission outcomes on the agent's behalf.
package claude
