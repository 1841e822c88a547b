// Package registry tracks agent-initiated permission requests awaiting
// resolution. Each entry backs exactly one blocked reverse-request: resolving
// the entry delivers an outcome on its channel, unblocking the protocol
// client goroutine that is holding the agent's reply.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geniusgordon/agentmux"
)

// resolvedHistory bounds how many resolved permission ids are remembered so
// a second resolve of a recent id reports ErrAlreadyResolved instead of
// ErrPermissionNotFound. Older ids fall off and read as unknown.
const resolvedHistory = 1024

// Outcome is the resolution of a pending permission.
// Cancelled reports the request was abandoned (client stopped, deny with no
// reject option offered); otherwise OptionID is the selected option.
type Outcome struct {
	OptionID  string
	Cancelled bool
}

// Pending is one permission request parked between the agent's
// reverse-request and an external Approve/Deny call.
type Pending struct {
	req agentmux.PermissionRequest
	ch  chan Outcome

	mu       sync.Mutex
	resolved bool
}

// Request returns a snapshot of the pending request.
func (p *Pending) Request() agentmux.PermissionRequest {
	return p.req
}

// Outcome returns the channel that receives the resolution exactly once.
func (p *Pending) Outcome() <-chan Outcome {
	return p.ch
}

// resolve delivers o exactly once. Returns ErrAlreadyResolved afterwards.
func (p *Pending) resolve(o Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return agentmux.ErrAlreadyResolved
	}
	p.resolved = true
	p.ch <- o // buffered; never blocks
	return nil
}

// Registry is the manager-wide index of pending permissions, keyed by
// permission id. Entries are removed as soon as they resolve; the id is kept
// in a bounded history so a second resolve still fails with
// ErrAlreadyResolved rather than ErrPermissionNotFound. Nothing is ever
// persisted.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*Pending
	resolved map[string]struct{}
	order    []string // FIFO eviction for resolved
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[string]*Pending),
		resolved: make(map[string]struct{}),
	}
}

// Register creates and indexes a pending permission for the given tool call.
func (r *Registry) Register(clientID, sessionID string, tc agentmux.ToolCall, opts []agentmux.PermissionOption) *Pending {
	p := &Pending{
		req: agentmux.PermissionRequest{
			ID:        uuid.NewString(),
			ClientID:  clientID,
			SessionID: sessionID,
			ToolCall:  tc,
			Options:   opts,
			CreatedAt: time.Now(),
		},
		ch: make(chan Outcome, 1),
	}
	r.mu.Lock()
	r.entries[p.req.ID] = p
	r.mu.Unlock()
	return p
}

// remember records id in the resolved history, evicting the oldest entry
// once the bound is hit. Caller holds r.mu.
func (r *Registry) remember(id string) {
	if len(r.order) >= resolvedHistory {
		delete(r.resolved, r.order[0])
		r.order = r.order[1:]
	}
	r.resolved[id] = struct{}{}
	r.order = append(r.order, id)
}

// Resolve delivers the outcome for id. Resolution is exactly-once: the first
// call unblocks the parked reverse-request and removes the entry, a second
// call returns ErrAlreadyResolved, and an unknown id returns
// ErrPermissionNotFound.
func (r *Registry) Resolve(id string, o Outcome) error {
	r.mu.Lock()
	p, ok := r.entries[id]
	if !ok {
		_, was := r.resolved[id]
		r.mu.Unlock()
		if was {
			return agentmux.ErrAlreadyResolved
		}
		return agentmux.ErrPermissionNotFound
	}
	delete(r.entries, id)
	r.remember(id)
	r.mu.Unlock()
	return p.resolve(o)
}

// Find returns the unresolved permission with id. A recently resolved id
// reports ErrAlreadyResolved; anything else reports ErrPermissionNotFound.
func (r *Registry) Find(id string) (agentmux.PermissionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.entries[id]; ok {
		return p.req, nil
	}
	if _, ok := r.resolved[id]; ok {
		return agentmux.PermissionRequest{}, agentmux.ErrAlreadyResolved
	}
	return agentmux.PermissionRequest{}, agentmux.ErrPermissionNotFound
}

// Get returns a snapshot of the pending (unresolved) permission with id.
func (r *Registry) Get(id string) (agentmux.PermissionRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	if !ok {
		return agentmux.PermissionRequest{}, false
	}
	return p.req, true
}

// List returns all unresolved permissions ordered by creation time.
func (r *Registry) List() []agentmux.PermissionRequest {
	r.mu.Lock()
	out := make([]agentmux.PermissionRequest, 0, len(r.entries))
	for _, p := range r.entries {
		out = append(out, p.req)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CancelClient resolves every outstanding entry for clientID as cancelled.
// Called when a client stops or crashes, the auto-deny-equivalent path.
func (r *Registry) CancelClient(clientID string) {
	r.mu.Lock()
	var doomed []*Pending
	for id, p := range r.entries {
		if p.req.ClientID == clientID {
			doomed = append(doomed, p)
			delete(r.entries, id)
			r.remember(id)
		}
	}
	r.mu.Unlock()

	for _, p := range doomed {
		_ = p.resolve(Outcome{Cancelled: true})
	}
}

// CancelAll resolves everything as cancelled and clears the index.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	doomed := make([]*Pending, 0, len(r.entries))
	for id, p := range r.entries {
		doomed = append(doomed, p)
		delete(r.entries, id)
		r.remember(id)
	}
	r.mu.Unlock()

	for _, p := range doomed {
		_ = p.resolve(Outcome{Cancelled: true})
	}
}
