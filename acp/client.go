//go:build !windows

package acp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/internal/textutil"
	"github.com/geniusgordon/agentmux/registry"
)

// Client owns exactly one agent subprocess and its JSON-RPC connection.
//
// State machine: spawning → initializing → ready → stopping → exited, with
// error reachable from spawning, initializing, or ready on subprocess crash
// or protocol fault. Sessions are created on a ready client and stay attached
// to it for their entire lifetime.
type Client struct {
	id        string
	agentType agentmux.AgentType
	cwd       string
	adapter   Adapter
	reg       *registry.Registry
	opts      Options
	log       *zap.Logger

	// lifeMu serializes Start's spawn-and-wire section against Stop, so Stop
	// never observes a spawned subprocess without a wired connection.
	lifeMu sync.Mutex
	conn   *Conn
	cmd    *exec.Cmd
	stdin  io.WriteCloser

	statusMu sync.Mutex
	status   agentmux.ClientStatus

	sessMu   sync.Mutex
	sessions map[string]*sessionState

	updates   chan agentmux.Event
	updMu     sync.Mutex // guards updates channel close
	updClosed bool

	stopping   atomic.Bool
	stopOnce   sync.Once
	finishOnce sync.Once
	killErr    error // recorded before a forced kill; wins over the exit error
	termErr    error

	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// sessionState is the per-session table entry. Mutated only by the owning
// Client in response to protocol events; busy guards against concurrent
// prompts to the same session.
type sessionState struct {
	info agentmux.SessionInfo
	busy bool
}

// NewClient creates a client for one subprocess. id must be unique among the
// owner's clients; reg receives parked permission requests. Call Start to
// spawn the subprocess.
func NewClient(id string, adapter Adapter, reg *registry.Registry, cwd string, opts ...Option) *Client {
	o := resolveOptions(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:        id,
		agentType: adapter.Type(),
		cwd:       cwd,
		adapter:   adapter,
		reg:       reg,
		opts:      o,
		log:       o.Logger.With(zap.String("client", id), zap.String("agent", string(adapter.Type()))),
		status:    agentmux.ClientSpawning,
		sessions:  make(map[string]*sessionState),
		updates:   make(chan agentmux.Event, updateQueueSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ID returns the client id.
func (c *Client) ID() string { return c.id }

// Status returns the current lifecycle status.
func (c *Client) Status() agentmux.ClientStatus {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

// Info returns a snapshot of the client.
func (c *Client) Info() agentmux.ClientInfo {
	return agentmux.ClientInfo{
		ID:        c.id,
		AgentType: c.agentType,
		CWD:       c.cwd,
		Status:    c.Status(),
	}
}

// Done returns a channel closed once the client reaches a terminal status.
func (c *Client) Done() <-chan struct{} { return c.done }

// Start spawns the subprocess per the adapter's spawn spec and performs the
// initialize handshake. On success the client is ready; on failure it is in
// error status with a *agentmux.SpawnError or *agentmux.HandshakeError.
func (c *Client) Start(ctx context.Context) error {
	if c.cwd != "" && !filepath.IsAbs(c.cwd) {
		return fmt.Errorf("acp: cwd must be an absolute path, got %q", c.cwd)
	}

	spec, err := c.spawnSpec()
	if err != nil {
		c.failEarly(err)
		return err
	}

	resolved, err := exec.LookPath(spec.Command)
	if err != nil {
		spawnErr := &agentmux.SpawnError{Command: spec.Command, Err: fmt.Errorf("%w: %w", agentmux.ErrUnavailable, err)}
		c.failEarly(spawnErr)
		return spawnErr
	}

	c.lifeMu.Lock()
	if c.stopping.Load() {
		c.lifeMu.Unlock()
		return agentmux.ErrClientStopped
	}

	cmd := exec.Command(resolved, spec.Args...)
	if c.cwd != "" {
		cmd.Dir = c.cwd
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.lifeMu.Unlock()
		spawnErr := &agentmux.SpawnError{Command: spec.Command, Err: err}
		c.failEarly(spawnErr)
		return spawnErr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.lifeMu.Unlock()
		spawnErr := &agentmux.SpawnError{Command: spec.Command, Err: err}
		c.failEarly(spawnErr)
		return spawnErr
	}
	if err := cmd.Start(); err != nil {
		c.lifeMu.Unlock()
		spawnErr := &agentmux.SpawnError{Command: spec.Command, Err: err}
		c.failEarly(spawnErr)
		return spawnErr
	}

	c.cmd = cmd
	c.wireIO(stdout, stdin, cmd.Wait)
	c.lifeMu.Unlock()

	c.log.Debug("subprocess started", zap.String("binary", resolved), zap.Int("pid", cmd.Process.Pid))
	return c.run(ctx)
}

// spawnSpec composes the adapter's spawn spec with permission-mode flags and
// caller extra args.
func (c *Client) spawnSpec() (SpawnSpec, error) {
	permArgs, err := c.adapter.PermissionArgs(c.opts.PermissionMode)
	if err != nil {
		return SpawnSpec{}, err
	}
	spec, err := c.adapter.SpawnSpec(c.cwd, c.opts.ExtraArgs)
	if err != nil {
		return SpawnSpec{}, err
	}
	spec.Args = append(spec.Args, permArgs...)
	return spec, nil
}

// startIO wires the connection over the given pipes and runs the initialize
// handshake, the same path Start takes after spawning. Split from Start so
// tests can drive a client over in-memory pipes.
func (c *Client) startIO(ctx context.Context, r io.Reader, w io.WriteCloser, wait func() error) error {
	c.lifeMu.Lock()
	if c.stopping.Load() {
		c.lifeMu.Unlock()
		return agentmux.ErrClientStopped
	}
	c.wireIO(r, w, wait)
	c.lifeMu.Unlock()
	return c.run(ctx)
}

// wireIO builds the connection and launches the read and dispatch loops.
// Caller holds lifeMu.
func (c *Client) wireIO(r io.Reader, w io.WriteCloser, wait func() error) {
	c.stdin = w
	conn := newConn(r, w, connConfig{
		maxMessageSize: c.opts.MaxMessageSize,
		onParseError: func(_ []byte, err error) {
			c.queueUpdate(agentmux.Event{
				Type:    agentmux.EventError,
				Content: textutil.Truncate(fmt.Sprintf("acp: malformed JSON from agent: %v", err)),
			})
		},
	})
	conn.OnNotification(MethodSessionUpdate, c.handleSessionUpdate)
	conn.OnMethod(MethodRequestPerm, c.handlePermissionRequest)
	c.conn = conn

	// Dispatch goroutine: drains updates → event sink in arrival order.
	var dispatchDone sync.WaitGroup
	dispatchDone.Add(1)
	go func() {
		defer dispatchDone.Done()
		for ev := range c.updates {
			c.deliver(ev)
		}
	}()

	// ReadLoop goroutine: on exit, queued updates are drained, the
	// subprocess is reaped, and the client reaches a terminal status.
	go func() {
		conn.ReadLoop()
		c.closeUpdates()
		dispatchDone.Wait()
		c.finish(wait())
	}()
}

// run performs the initialize handshake on a wired client.
func (c *Client) run(ctx context.Context) error {
	c.setStatus(agentmux.ClientInitializing)

	if err := c.handshake(ctx); err != nil {
		hsErr := &agentmux.HandshakeError{Err: err}
		c.kill(hsErr)
		return hsErr
	}

	c.setStatus(agentmux.ClientReady)
	return nil
}

// handshake performs the initialize exchange.
func (c *Client) handshake(ctx context.Context) error {
	params := initializeParams{
		ProtocolVersion:    protocolVersion,
		ClientInfo:         &implementation{Name: clientName, Version: clientVersion},
		ClientCapabilities: &clientCapabilities{},
	}
	var result initializeResult
	if err := c.conn.Call(ctx, MethodInitialize, params, &result); err != nil {
		return err
	}
	if result.ProtocolVersion != protocolVersion {
		return fmt.Errorf("protocol version mismatch: agent=%d client=%d", result.ProtocolVersion, protocolVersion)
	}
	return nil
}

// NewSession creates a session rooted at cwd. Valid only on a ready client.
func (c *Client) NewSession(ctx context.Context, cwd string) (agentmux.SessionInfo, error) {
	if c.Status() != agentmux.ClientReady {
		return agentmux.SessionInfo{}, agentmux.ErrNotReady
	}

	params := newSessionParams{CWD: cwd, MCPServers: []MCPServer{}} // empty slice, never nil
	var result newSessionResult
	if err := c.conn.Call(ctx, MethodSessionNew, params, &result); err != nil {
		return agentmux.SessionInfo{}, err
	}

	if err := validateSessionID(result.SessionID); err != nil {
		return agentmux.SessionInfo{}, fmt.Errorf("acp: invalid session id from agent: %w", err)
	}
	return c.addSession(result.SessionID, cwd, result.Modes)
}

// LoadSession resumes an existing session by id. The agent's session/load
// result carries no session id; the requested id is used directly.
func (c *Client) LoadSession(ctx context.Context, sessionID, cwd string) (agentmux.SessionInfo, error) {
	if c.Status() != agentmux.ClientReady {
		return agentmux.SessionInfo{}, agentmux.ErrNotReady
	}
	if err := validateSessionID(sessionID); err != nil {
		return agentmux.SessionInfo{}, fmt.Errorf("%w: %w", agentmux.ErrUnknownSession, err)
	}

	params := loadSessionParams{SessionID: sessionID, CWD: cwd, MCPServers: []MCPServer{}}
	var result loadSessionResult
	if err := c.conn.Call(ctx, MethodSessionLoad, params, &result); err != nil {
		return agentmux.SessionInfo{}, err
	}
	return c.addSession(sessionID, cwd, result.Modes)
}

// addSession registers a session in the per-client table.
func (c *Client) addSession(id, cwd string, modes *sessionModeState) (agentmux.SessionInfo, error) {
	info := agentmux.SessionInfo{
		ID:       id,
		ClientID: c.id,
		CWD:      cwd,
		Status:   agentmux.SessionIdle,
	}
	if modes != nil {
		info.CurrentModeID = modes.CurrentModeID
		for _, m := range modes.AvailableModes {
			info.AvailableModes = append(info.AvailableModes, agentmux.SessionMode{ID: m.ID, Name: m.Name})
		}
	}

	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	if _, exists := c.sessions[id]; exists {
		return agentmux.SessionInfo{}, fmt.Errorf("acp: duplicate session id %q from agent", id)
	}
	c.sessions[id] = &sessionState{info: info}
	c.log.Debug("session created", zap.String("session", id))
	return info, nil
}

// Session returns a snapshot of the session with id, if owned by this client.
func (c *Client) Session(id string) (agentmux.SessionInfo, bool) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return agentmux.SessionInfo{}, false
	}
	return s.info, true
}

// Sessions returns snapshots of all sessions owned by this client.
func (c *Client) Sessions() []agentmux.SessionInfo {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	out := make([]agentmux.SessionInfo, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s.info)
	}
	return out
}

// Prompt sends a user message to a session and blocks until the agent signals
// completion. Valid only on a ready client. A second Prompt while one is in
// flight for the same session fails with ErrSessionBusy; prompts to different
// sessions interleave freely and are correlated independently at the
// transport level.
func (c *Client) Prompt(ctx context.Context, sessionID, text string) (agentmux.StopReason, error) {
	if c.Status() != agentmux.ClientReady {
		return "", agentmux.ErrNotReady
	}
	if err := c.beginTurn(sessionID); err != nil {
		return "", err
	}

	params := promptParams{
		SessionID: sessionID,
		Prompt:    []contentBlock{{Type: "text", Text: text}},
	}
	var result promptResult
	err := c.conn.Call(ctx, MethodSessionPrompt, params, &result)
	if err != nil {
		c.endTurn(sessionID, "", err)
		return "", err
	}

	stop := agentmux.StopReason(textutil.SanitizeStopReason(result.StopReason))
	c.endTurn(sessionID, stop, nil)

	c.queueUpdate(agentmux.Event{
		Type:       agentmux.EventTurnEnded,
		SessionID:  sessionID,
		StopReason: stop,
	})
	return stop, nil
}

// beginTurn marks the session running, failing if a prompt is in flight.
func (c *Client) beginTurn(sessionID string) error {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return agentmux.ErrUnknownSession
	}
	if s.busy {
		return agentmux.ErrSessionBusy
	}
	s.busy = true
	s.info.Status = agentmux.SessionRunning
	return nil
}

// endTurn records the turn outcome in the session table.
func (c *Client) endTurn(sessionID string, stop agentmux.StopReason, err error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return
	}
	s.busy = false
	switch {
	case errors.Is(err, agentmux.ErrClientStopped) || errors.Is(err, agentmux.ErrCancelled):
		s.info.Status = agentmux.SessionKilled
	case err != nil:
		s.info.Status = agentmux.SessionError
	case stop == agentmux.StopCancelled:
		s.info.Status = agentmux.SessionKilled
	default:
		s.info.Status = agentmux.SessionCompleted
	}
}

// Cancel asks the agent to stop the session's current turn. Valid only on a
// ready client. Best-effort: completion is still signaled through the normal
// prompt-response path, carrying a cancellation stop reason.
func (c *Client) Cancel(ctx context.Context, sessionID string) error {
	if c.Status() != agentmux.ClientReady {
		return agentmux.ErrNotReady
	}
	c.sessMu.Lock()
	_, ok := c.sessions[sessionID]
	c.sessMu.Unlock()
	if !ok {
		return agentmux.ErrUnknownSession
	}
	return c.conn.Notify(MethodSessionCancel, cancelParams{SessionID: sessionID})
}

// Stop terminates the subprocess: SIGTERM, then SIGKILL after the grace
// period. Every outstanding request (prompt calls and parked permissions)
// is rejected with ErrClientStopped. Idempotent.
func (c *Client) Stop(ctx context.Context) error {
	c.stopOnce.Do(func() {
		// Taking lifeMu orders this against an in-flight Start: either the
		// subprocess is fully wired here, or Start observes stopping and
		// never spawns one.
		c.lifeMu.Lock()
		c.stopping.Store(true)
		conn, cmd, stdin := c.conn, c.cmd, c.stdin
		c.lifeMu.Unlock()

		c.setStatus(agentmux.ClientStopping)
		c.log.Debug("stopping client")

		if conn != nil {
			conn.CloseWithError(agentmux.ErrClientStopped)
		}

		// Unblock parked permission handlers (auto-deny-equivalent).
		c.reg.CancelClient(c.id)

		// Close stdin to signal EOF.
		if stdin != nil {
			_ = stdin.Close()
		}

		// Cancel the client context to unblock anything still waiting.
		c.cancel()

		if cmd != nil {
			_ = signalProcess(cmd.Process, syscall.SIGTERM)
			select {
			case <-c.done:
			case <-time.After(c.opts.GracePeriod):
				_ = signalProcess(cmd.Process, os.Kill)
				<-c.done
			case <-ctx.Done():
				_ = signalProcess(cmd.Process, os.Kill)
				<-c.done
			}
		}

		// A client that never started IO has no ReadLoop to finish it.
		if conn == nil {
			c.finishOnce.Do(func() {
				c.statusMu.Lock()
				c.status = agentmux.ClientExited
				c.statusMu.Unlock()
				close(c.done)
			})
		}
	})

	<-c.done
	return nil
}

// --- Inbound dispatch ---

// handleSessionUpdate runs on ReadLoop; it normalizes the update through the
// adapter and queues the event, never blocking the loop on the sink.
func (c *Client) handleSessionUpdate(params json.RawMessage) {
	var notif sessionNotification
	if err := json.Unmarshal(params, &notif); err != nil {
		c.queueUpdate(agentmux.Event{
			Type:    agentmux.EventError,
			Content: textutil.Truncate(fmt.Sprintf("acp: unmarshal update params: %v", err)),
		})
		return
	}

	ev, ok := c.adapter.NormalizeEvent(notif.SessionID, notif.Update)
	if !ok {
		return // silently consumed
	}

	if ev.Type == agentmux.EventModeChange {
		c.setSessionMode(ev.SessionID, ev.Content)
	}
	c.queueUpdate(ev)
}

func (c *Client) setSessionMode(sessionID, modeID string) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	if s, ok := c.sessions[sessionID]; ok {
		s.info.CurrentModeID = modeID
	}
}

// handlePermissionRequest runs in a dedicated goroutine per reverse-request
// (dispatched by Conn.handleMethodCall). It parks the request in the registry
// and holds the agent's reply until the entry resolves or the client stops.
// Only this one in-flight prompt blocks; other sessions and clients proceed.
func (c *Client) handlePermissionRequest(params json.RawMessage) (any, error) {
	var wireReq requestPermissionParams
	if err := json.Unmarshal(params, &wireReq); err != nil {
		c.queueUpdate(agentmux.Event{
			Type:    agentmux.EventError,
			Content: textutil.Truncate(fmt.Sprintf("acp: unmarshal permission request: %v", err)),
		})
		return cancelledPermission(), nil
	}

	tc := agentmux.ToolCall{
		ID:    wireReq.ToolCall.ToolCallID,
		Title: wireReq.ToolCall.Title,
		Kind:  wireReq.ToolCall.Kind,
		Input: wireReq.ToolCall.RawInput,
	}
	opts := make([]agentmux.PermissionOption, 0, len(wireReq.Options))
	for _, o := range wireReq.Options {
		opts = append(opts, agentmux.PermissionOption{OptionID: o.OptionID, Name: o.Name, Kind: o.Kind})
	}

	pending := c.reg.Register(c.id, wireReq.SessionID, tc, opts)
	c.log.Debug("permission parked",
		zap.String("permission", pending.Request().ID),
		zap.String("session", wireReq.SessionID),
		zap.String("tool", tc.Title))

	c.queueUpdate(agentmux.Event{
		Type:         agentmux.EventPermissionRequested,
		SessionID:    wireReq.SessionID,
		Tool:         &tc,
		PermissionID: pending.Request().ID,
	})
	if c.opts.Approvals != nil {
		c.opts.Approvals(pending.Request())
	}

	select {
	case out := <-pending.Outcome():
		if out.Cancelled {
			return cancelledPermission(), nil
		}
		return requestPermissionResult{
			Outcome: requestPermissionOutcome{Outcome: "selected", OptionID: out.OptionID},
		}, nil
	case <-c.ctx.Done():
		return cancelledPermission(), nil
	}
}

// cancelledPermission returns a cancelled permission outcome.
func cancelledPermission() requestPermissionResult {
	return requestPermissionResult{
		Outcome: requestPermissionOutcome{Outcome: "cancelled"},
	}
}

// --- Lifecycle internals ---

// queueUpdate enqueues an event for ordered delivery. Drops nothing while the
// client is live; on a stopping client the context unblocks the send. The
// lock keeps sends ordered before closeUpdates so a late Prompt or permission
// goroutine never sends on a closed channel.
func (c *Client) queueUpdate(ev agentmux.Event) {
	c.updMu.Lock()
	defer c.updMu.Unlock()
	if c.updClosed {
		return
	}
	select {
	case c.updates <- ev:
	case <-c.ctx.Done():
	}
}

// closeUpdates closes the updates channel. Cancels the client context first
// so any queueUpdate blocked on a full channel exits before the lock is taken.
func (c *Client) closeUpdates() {
	c.cancel()
	c.updMu.Lock()
	defer c.updMu.Unlock()
	if c.updClosed {
		return
	}
	c.updClosed = true
	close(c.updates)
}

// deliver stamps and hands an event to the sink.
func (c *Client) deliver(ev agentmux.Event) {
	if c.opts.Events == nil {
		return
	}
	ev.ClientID = c.id
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	c.opts.Events(ev)
}

// setStatus transitions the state machine and emits a status event.
func (c *Client) setStatus(s agentmux.ClientStatus) {
	c.statusMu.Lock()
	if c.status == s || c.status.Terminal() {
		c.statusMu.Unlock()
		return
	}
	c.status = s
	c.statusMu.Unlock()

	c.log.Debug("status", zap.String("status", string(s)))
	c.deliver(agentmux.Event{Type: agentmux.EventClientStatus, ClientStatus: s})
}

// failEarly marks a client that never got a subprocess as failed.
func (c *Client) failEarly(err error) {
	c.finishOnce.Do(func() {
		c.termErr = err
		c.statusMu.Lock()
		c.status = agentmux.ClientError
		c.statusMu.Unlock()
		c.cancel()
		c.deliver(agentmux.Event{
			Type:         agentmux.EventClientStatus,
			ClientStatus: agentmux.ClientError,
			Content:      textutil.Truncate(err.Error()),
		})
		close(c.done)
	})
}

// kill forcefully terminates the subprocess after recording why, and waits
// for the ReadLoop goroutine to finish the client. Used on handshake failure.
func (c *Client) kill(reason error) {
	c.killErr = reason
	c.cancel()
	if c.cmd != nil {
		_ = signalProcess(c.cmd.Process, os.Kill)
	}
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	<-c.done
}

// finish sets the terminal status once the subprocess is reaped. Called only
// from the ReadLoop goroutine, after all queued updates were delivered.
func (c *Client) finish(waitErr error) {
	c.finishOnce.Do(func() {
		c.cancel()

		var status agentmux.ClientStatus
		switch {
		case c.stopping.Load():
			status = agentmux.ClientExited
		case c.killErr != nil:
			status = agentmux.ClientError
			c.termErr = c.killErr
		default:
			status = agentmux.ClientError
			c.termErr = exitError(waitErr)
			if c.termErr == nil {
				// Agent exited on its own without a stop; still a fault
				// from the owner's perspective.
				c.termErr = &agentmux.TransportError{Err: io.EOF}
			}
		}

		// Sessions cannot outlive their client. Completed turns keep their
		// final status; live sessions follow the client down.
		c.sessMu.Lock()
		for _, s := range c.sessions {
			s.busy = false
			if s.info.Status == agentmux.SessionRunning || s.info.Status == agentmux.SessionIdle {
				if status == agentmux.ClientExited {
					s.info.Status = agentmux.SessionKilled
				} else {
					s.info.Status = agentmux.SessionError
				}
			}
		}
		c.sessMu.Unlock()

		// Any permissions still parked are cancelled.
		c.reg.CancelClient(c.id)

		c.statusMu.Lock()
		c.status = status
		c.statusMu.Unlock()

		ev := agentmux.Event{Type: agentmux.EventClientStatus, ClientStatus: status}
		if c.termErr != nil && status == agentmux.ClientError {
			ev.Content = textutil.Truncate(c.termErr.Error())
		}
		c.deliver(ev)
		c.log.Debug("client finished", zap.String("status", string(status)), zap.Error(c.termErr))

		close(c.done)
	})
}

// Err returns the terminal error, or nil while the client is live or after a
// clean stop.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.termErr
	default:
		return nil
	}
}

// exitError maps a cmd.Wait error to *agentmux.ExitError, or nil.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &agentmux.ExitError{Code: ee.ExitCode(), Err: err}
	}
	return &agentmux.ExitError{Code: -1, Err: err}
}

// signalProcess sends sig to a process, returning nil if the process has
// already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	if proc == nil {
		return nil
	}
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// sessionIDPattern matches safe session identifiers.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,256}$`)

func validateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("session id %q does not match allowed pattern", id)
	}
	return nil
}
