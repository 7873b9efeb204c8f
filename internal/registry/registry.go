// Package registry holds the single process-wide source of truth for
// window ownership: which workspace, if any, currently owns a given OS
// window id. Every tree mutation inside a workspace must be paired with an
// update here in the same critical section; lock order is always
// registry -> workspace to avoid deadlock with code that walks a workspace
// and then needs to look a window up.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
)

// Registry maps WindowID -> owning WorkspaceId.
type Registry struct {
	mu      sync.Mutex
	owners  map[accessport.WindowID]uuid.UUID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{owners: make(map[accessport.WindowID]uuid.UUID)}
}

// Assign records that workspace owns id, overwriting any prior owner. The
// caller is responsible for also removing id from the prior owner's
// workspace tree, inside the same lock acquisition.
func (r *Registry) Assign(id accessport.WindowID, workspace uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[id] = workspace
}

// Reassign atomically swaps id's owner from whatever it is to next,
// returning the previous owner (uuid.Nil if id was unowned).
func (r *Registry) Reassign(id accessport.WindowID, next uuid.UUID) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.owners[id]
	r.owners[id] = next
	return prev
}

// Lookup returns the owning workspace for id, if any.
func (r *Registry) Lookup(id accessport.WindowID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.owners[id]
	return ws, ok
}

// Remove drops id from the registry entirely (window destroyed).
func (r *Registry) Remove(id accessport.WindowID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, id)
}

// WindowsOf returns every window id currently assigned to workspace, in no
// particular order; callers needing display order should use the
// workspace's own WindowIDs instead. This exists for consistency checks
// (see the Registry–tree agreement property) and diagnostics.
func (r *Registry) WindowsOf(workspace uuid.UUID) []accessport.WindowID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []accessport.WindowID
	for id, ws := range r.owners {
		if ws == workspace {
			out = append(out, id)
		}
	}
	return out
}

// WithLock runs fn while holding the registry lock, for callers that need
// to perform a paired mutation as one atomic step against other registry
// readers. fn must not itself call back into Registry: the lock is not
// reentrant.
func (r *Registry) WithLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}
