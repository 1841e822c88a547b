// Package manager owns the client fleet: it spawns protocol clients, indexes
// sessions to their owning client, fans events out to observers, and routes
// permission resolutions back to the parked reverse-requests.
package manager

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
	"github.com/geniusgordon/agentmux/agent"
	"github.com/geniusgordon/agentmux/registry"
)

// protocolClient is the slice of acp.Client the manager consumes. Tests
// substitute fakes through the factory seam.
type protocolClient interface {
	ID() string
	Info() agentmux.ClientInfo
	Status() agentmux.ClientStatus
	Start(ctx context.Context) error
	NewSession(ctx context.Context, cwd string) (agentmux.SessionInfo, error)
	LoadSession(ctx context.Context, sessionID, cwd string) (agentmux.SessionInfo, error)
	Prompt(ctx context.Context, sessionID, text string) (agentmux.StopReason, error)
	Cancel(ctx context.Context, sessionID string) error
	Stop(ctx context.Context) error
	Session(id string) (agentmux.SessionInfo, bool)
	Sessions() []agentmux.SessionInfo
	Done() <-chan struct{}
	Err() error
}

// clientFactory builds a protocol client. The default wraps acp.NewClient.
type clientFactory func(id string, adapter acp.Adapter, reg *registry.Registry, cwd string, opts ...acp.Option) protocolClient

// SpawnConfig describes one client to spawn.
type SpawnConfig struct {
	// AgentType selects the vendor adapter from the agent package table.
	AgentType agentmux.AgentType

	// Adapter, when non-nil, overrides the table lookup. Custom vendors and
	// tests use it.
	Adapter acp.Adapter

	// CWD is the working directory for the subprocess and its sessions.
	// Must be absolute when set.
	CWD string

	// ExtraArgs are appended to the adapter's spawn arguments.
	ExtraArgs []string

	// PermissionMode is the cross-vendor permission posture at spawn.
	PermissionMode agentmux.PermissionMode

	// Binary overrides the vendor's default executable. Ignored when
	// Adapter is set.
	Binary string
}

// EventHandler observes the manager's ordered event stream.
type EventHandler func(agentmux.Event)

// ApprovalHandler observes newly parked permission requests.
type ApprovalHandler func(agentmux.PermissionRequest)

// envelope is one queued delivery: an event or an approval, never both.
type envelope struct {
	ev       agentmux.Event
	approval *agentmux.PermissionRequest
}

// observer is one registered handler with its removal key.
type observer[H any] struct {
	id int64
	fn H
}

// Manager multiplexes protocol clients. All events from all clients flow
// through one buffered queue drained by a single dispatch goroutine, so
// observers see a globally ordered stream and never run concurrently with
// each other.
//
// A Manager must be created with New and released with Dispose; every method
// on a disposed manager fails with ErrDisposed.
type Manager struct {
	reg     *registry.Registry
	factory clientFactory
	log     *zap.Logger

	clientOpts []acp.Option

	mu       sync.Mutex
	clients  map[string]protocolClient
	sessions map[string]string // session id → owning client id

	queue   chan envelope
	qMu     sync.Mutex // guards queue close
	qClosed bool

	obsMu       sync.Mutex
	obsSeq      int64
	eventObs    []observer[EventHandler]
	approvalObs []observer[ApprovalHandler]

	disposed     atomic.Bool
	disposeOnce  sync.Once
	dispatchDone chan struct{}
}

// New creates a manager and starts its dispatch goroutine.
func New(opts ...Option) *Manager {
	o := resolveOptions(opts...)
	m := &Manager{
		reg:          registry.New(),
		log:          o.Logger.Named("manager"),
		clientOpts:   o.ClientOptions,
		clients:      make(map[string]protocolClient),
		sessions:     make(map[string]string),
		queue:        make(chan envelope, o.QueueSize),
		dispatchDone: make(chan struct{}),
	}
	m.factory = func(id string, adapter acp.Adapter, reg *registry.Registry, cwd string, opts ...acp.Option) protocolClient {
		return acp.NewClient(id, adapter, reg, cwd, opts...)
	}
	go m.dispatch()
	return m
}

// shared is the process-wide default manager, created on first use with
// default options. Programs that need configuration should construct their
// own Manager and ignore Shared.
var (
	sharedOnce sync.Once
	sharedMgr  *Manager
)

// Shared returns the lazily created process-wide manager. The instance is
// created exactly once, on first call, and is never disposed implicitly.
func Shared() *Manager {
	sharedOnce.Do(func() {
		sharedMgr = New()
	})
	return sharedMgr
}

// --- Observers ---

// OnEvent registers an event observer. Returns a removal function.
// Handlers run on the dispatch goroutine in registration order; a slow
// handler delays the whole stream, never reorders it.
func (m *Manager) OnEvent(h EventHandler) func() {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.obsSeq++
	id := m.obsSeq
	m.eventObs = append(m.eventObs, observer[EventHandler]{id: id, fn: h})
	return func() { m.removeEventObserver(id) }
}

// OnApproval registers a permission-request observer. Returns a removal
// function.
func (m *Manager) OnApproval(h ApprovalHandler) func() {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.obsSeq++
	id := m.obsSeq
	m.approvalObs = append(m.approvalObs, observer[ApprovalHandler]{id: id, fn: h})
	return func() { m.removeApprovalObserver(id) }
}

func (m *Manager) removeEventObserver(id int64) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	for i, o := range m.eventObs {
		if o.id == id {
			m.eventObs = append(m.eventObs[:i], m.eventObs[i+1:]...)
			return
		}
	}
}

func (m *Manager) removeApprovalObserver(id int64) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	for i, o := range m.approvalObs {
		if o.id == id {
			m.approvalObs = append(m.approvalObs[:i], m.approvalObs[i+1:]...)
			return
		}
	}
}

// --- Spawning ---

// SpawnClient creates and starts a protocol client. The returned ClientInfo
// carries the generated client id. Spawn and handshake failures are returned
// AND leave the client registered in error status, so the fleet view reflects
// the failed attempt.
func (m *Manager) SpawnClient(ctx context.Context, cfg SpawnConfig) (agentmux.ClientInfo, error) {
	if m.disposed.Load() {
		return agentmux.ClientInfo{}, agentmux.ErrDisposed
	}

	adapter := cfg.Adapter
	if adapter == nil {
		var err error
		adapter, err = agent.NewWithBinary(cfg.AgentType, cfg.Binary)
		if err != nil {
			return agentmux.ClientInfo{}, err
		}
	}

	id := uuid.NewString()
	opts := append([]acp.Option{
		acp.WithEventSink(m.enqueueEvent),
		acp.WithApprovalSink(m.enqueueApproval),
		acp.WithPermissionMode(cfg.PermissionMode),
		acp.WithExtraArgs(cfg.ExtraArgs...),
		acp.WithLogger(m.log),
	}, m.clientOpts...)

	c := m.factory(id, adapter, m.reg, cfg.CWD, opts...)

	m.mu.Lock()
	m.clients[id] = c
	m.mu.Unlock()

	m.log.Info("spawning client",
		zap.String("client", id),
		zap.String("agent", string(adapter.Type())),
		zap.String("cwd", cfg.CWD))

	if err := c.Start(ctx); err != nil {
		// Client stays registered; its status is already error.
		return c.Info(), err
	}
	return c.Info(), nil
}

// StopClient stops one client. The client stays registered in its terminal
// status so its history remains inspectable.
func (m *Manager) StopClient(ctx context.Context, clientID string) error {
	c, err := m.client(clientID)
	if err != nil {
		return err
	}
	return c.Stop(ctx)
}

// --- Sessions ---

// CreateSession creates a session on the given client and indexes it.
func (m *Manager) CreateSession(ctx context.Context, clientID, cwd string) (agentmux.SessionInfo, error) {
	c, err := m.client(clientID)
	if err != nil {
		return agentmux.SessionInfo{}, err
	}
	info, err := c.NewSession(ctx, cwd)
	if err != nil {
		return agentmux.SessionInfo{}, err
	}
	m.indexSession(info.ID, clientID)
	return info, nil
}

// LoadSession resumes a previously created session on the given client and
// indexes it.
func (m *Manager) LoadSession(ctx context.Context, clientID, sessionID, cwd string) (agentmux.SessionInfo, error) {
	c, err := m.client(clientID)
	if err != nil {
		return agentmux.SessionInfo{}, err
	}
	info, err := c.LoadSession(ctx, sessionID, cwd)
	if err != nil {
		return agentmux.SessionInfo{}, err
	}
	m.indexSession(info.ID, clientID)
	return info, nil
}

func (m *Manager) indexSession(sessionID, clientID string) {
	m.mu.Lock()
	m.sessions[sessionID] = clientID
	m.mu.Unlock()
}

// SendMessage prompts the session and blocks until the turn completes.
// Concurrent sends to the same session fail with ErrSessionBusy; sends to
// different sessions proceed independently even on the same client.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (agentmux.StopReason, error) {
	c, err := m.sessionClient(sessionID)
	if err != nil {
		return "", err
	}
	return c.Prompt(ctx, sessionID, text)
}

// Cancel asks the session's agent to stop the current turn. Best-effort.
func (m *Manager) Cancel(ctx context.Context, sessionID string) error {
	c, err := m.sessionClient(sessionID)
	if err != nil {
		return err
	}
	return c.Cancel(ctx, sessionID)
}

// --- Approvals ---

// PendingApprovals returns all unresolved permission requests, oldest first.
func (m *Manager) PendingApprovals() []agentmux.PermissionRequest {
	return m.reg.List()
}

// Approve resolves a pending permission with an allow option. When optionID
// is empty the first allow-kind option offered by the agent is selected.
func (m *Manager) Approve(permissionID, optionID string) error {
	if m.disposed.Load() {
		return agentmux.ErrDisposed
	}
	if optionID == "" {
		req, err := m.reg.Find(permissionID)
		if err != nil {
			return err
		}
		optionID = pickOption(req.Options, "allow")
		if optionID == "" {
			return agentmux.ErrPermissionNotFound
		}
	}
	return m.reg.Resolve(permissionID, registry.Outcome{OptionID: optionID})
}

// Deny resolves a pending permission with a reject option, falling back to a
// cancelled outcome when the agent offered no reject option.
func (m *Manager) Deny(permissionID string) error {
	if m.disposed.Load() {
		return agentmux.ErrDisposed
	}
	req, err := m.reg.Find(permissionID)
	if err != nil {
		return err
	}
	if optionID := pickOption(req.Options, "reject"); optionID != "" {
		return m.reg.Resolve(permissionID, registry.Outcome{OptionID: optionID})
	}
	return m.reg.Resolve(permissionID, registry.Outcome{Cancelled: true})
}

// pickOption returns the first option whose kind carries the given prefix
// ("allow" matches allow_once and allow_always).
func pickOption(opts []agentmux.PermissionOption, kindPrefix string) string {
	for _, o := range opts {
		if strings.HasPrefix(o.Kind, kindPrefix) {
			return o.OptionID
		}
	}
	return ""
}

// --- Accessors ---

// Client returns a snapshot of the client with id.
func (m *Manager) Client(id string) (agentmux.ClientInfo, bool) {
	m.mu.Lock()
	c, ok := m.clients[id]
	m.mu.Unlock()
	if !ok {
		return agentmux.ClientInfo{}, false
	}
	return c.Info(), true
}

// Clients returns snapshots of all registered clients, ordered by id.
func (m *Manager) Clients() []agentmux.ClientInfo {
	m.mu.Lock()
	out := make([]agentmux.ClientInfo, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c.Info())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Session returns a snapshot of the session with id.
func (m *Manager) Session(id string) (agentmux.SessionInfo, bool) {
	c, err := m.sessionClient(id)
	if err != nil {
		return agentmux.SessionInfo{}, false
	}
	return c.Session(id)
}

// Sessions returns snapshots of all sessions across all clients, ordered by
// client id then session id.
func (m *Manager) Sessions() []agentmux.SessionInfo {
	m.mu.Lock()
	clients := make([]protocolClient, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	var out []agentmux.SessionInfo
	for _, c := range clients {
		out = append(out, c.Sessions()...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ClientErr returns the terminal error of a client, nil while it is live.
func (m *Manager) ClientErr(clientID string) error {
	c, err := m.client(clientID)
	if err != nil {
		return err
	}
	return c.Err()
}

func (m *Manager) client(id string) (protocolClient, error) {
	if m.disposed.Load() {
		return nil, agentmux.ErrDisposed
	}
	m.mu.Lock()
	c, ok := m.clients[id]
	m.mu.Unlock()
	if !ok {
		return nil, agentmux.ErrUnknownClient
	}
	return c, nil
}

func (m *Manager) sessionClient(sessionID string) (protocolClient, error) {
	if m.disposed.Load() {
		return nil, agentmux.ErrDisposed
	}
	m.mu.Lock()
	clientID, ok := m.sessions[sessionID]
	var c protocolClient
	if ok {
		c, ok = m.clients[clientID]
	}
	m.mu.Unlock()
	if !ok {
		return nil, agentmux.ErrUnknownSession
	}
	return c, nil
}

// --- Queue and dispatch ---

// enqueueEvent is the EventSink wired into every client. Runs on client
// dispatch goroutines; the lock orders sends before the Dispose-time close.
func (m *Manager) enqueueEvent(ev agentmux.Event) {
	m.enqueue(envelope{ev: ev})
}

// enqueueApproval is the ApprovalSink wired into every client.
func (m *Manager) enqueueApproval(req agentmux.PermissionRequest) {
	m.enqueue(envelope{approval: &req})
}

func (m *Manager) enqueue(env envelope) {
	m.qMu.Lock()
	defer m.qMu.Unlock()
	if m.qClosed {
		return
	}
	m.queue <- env
}

// dispatch is the single delivery goroutine: every observer callback in the
// process runs here, in queue order.
func (m *Manager) dispatch() {
	defer close(m.dispatchDone)
	for env := range m.queue {
		if env.approval != nil {
			for _, o := range m.approvalObservers() {
				o(*env.approval)
			}
			continue
		}
		for _, o := range m.eventObservers() {
			o(env.ev)
		}
	}
}

func (m *Manager) eventObservers() []EventHandler {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	out := make([]EventHandler, len(m.eventObs))
	for i, o := range m.eventObs {
		out[i] = o.fn
	}
	return out
}

func (m *Manager) approvalObservers() []ApprovalHandler {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	out := make([]ApprovalHandler, len(m.approvalObs))
	for i, o := range m.approvalObs {
		out[i] = o.fn
	}
	return out
}

// --- Dispose ---

// Dispose stops every client concurrently, cancels all pending permissions,
// drains the event queue, and marks the manager unusable. Idempotent; after
// the first call every other method fails with ErrDisposed. No observer
// callback fires after Dispose returns.
func (m *Manager) Dispose(ctx context.Context) error {
	m.disposeOnce.Do(func() {
		m.disposed.Store(true)
		m.log.Info("disposing manager")

		m.mu.Lock()
		clients := make([]protocolClient, 0, len(m.clients))
		for _, c := range m.clients {
			clients = append(clients, c)
		}
		m.mu.Unlock()

		var wg sync.WaitGroup
		for _, c := range clients {
			wg.Add(1)
			go func(c protocolClient) {
				defer wg.Done()
				_ = c.Stop(ctx)
			}(c)
		}
		wg.Wait()

		m.reg.CancelAll()

		// All client dispatch goroutines have exited, so no further
		// enqueues can race this close.
		m.qMu.Lock()
		m.qClosed = true
		close(m.queue)
		m.qMu.Unlock()

		<-m.dispatchDone
		m.log.Info("manager disposed")
	})
	return nil
}
