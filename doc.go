// Package agentmux provides the shared vocabulary for driving AI coding-agent
// subprocesses over the Agent Client Protocol (ACP).
//
// agentmux multiplexes any number of agent subprocesses behind one typed event
// stream and one approval queue. Each subprocess speaks JSON-RPC 2.0 over its
// stdin/stdout; vendor differences (spawn arguments, permission-mode flags)
// are isolated behind the [agent] adapter packages.
//
// # Core Types
//
//   - [Event]: a typed record emitted by agent sessions
//   - [ClientInfo] / [SessionInfo]: snapshots of client and session state
//   - [PermissionRequest]: an agent-initiated approval awaiting resolution
//   - [StopReason]: terminal classification of a prompt turn
//
// # Packages
//
// The root package defines vocabulary only. The acp package implements the
// protocol client that owns one subprocess connection; the agent package and
// its vendor subpackages supply spawn specs and event normalization; the
// registry package tracks pending permissions; the manager package multiplexes
// clients and fans events out to subscribers.
//
// # Quick Start
//
//	m := manager.New()
//	defer m.Dispose(ctx)
//	m.OnEvent(func(ev agentmux.Event) { fmt.Println(ev.Content) })
//	c, err := m.SpawnClient(ctx, manager.SpawnConfig{AgentType: "claude", CWD: dir})
//	if err != nil { log.Fatal(err) }
//	s, _ := m.CreateSession(ctx, c.ID, dir)
//	stop, _ := m.SendMessage(ctx, s.ID, "2+2?")
package agentmux
