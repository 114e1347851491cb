// Package registry keeps track of parsed manifests for a host instance.
// It enforces plugin-id uniqueness across single plugins and packages and
// resolves declared service requirements against declared services.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goatkit/plugkit/pkg/manifest"
)

// Registry holds manifests keyed by plugin id. A package manifest claims
// every plugin id it contains.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // plugin ids in registration order
}

type entry struct {
	manifest *manifest.Manifest
	expanded *manifest.PluginManifest // per-plugin view; for packages, the expansion
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a manifest. For packages every contained plugin is
// registered under its own id (using the package expansion). Registration
// fails if any id is already taken; a failed registration adds nothing.
func (r *Registry) Register(m *manifest.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := m.PluginIDs()
	for _, id := range ids {
		if _, exists := r.entries[id]; exists {
			return fmt.Errorf("plugin %q already registered", id)
		}
	}

	if m.IsPackage() {
		for _, pm := range m.Pkg.Expand() {
			r.entries[pm.Plugin.ID] = &entry{manifest: m, expanded: pm}
			r.order = append(r.order, pm.Plugin.ID)
		}
		return nil
	}

	r.entries[m.Single.Plugin.ID] = &entry{manifest: m, expanded: m.Single}
	r.order = append(r.order, m.Single.Plugin.ID)
	return nil
}

// Get returns the per-plugin manifest for an id. For plugins that arrived
// inside a package this is the expanded manifest.
func (r *Registry) Get(id string) (*manifest.PluginManifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.expanded, true
}

// Source returns the manifest a plugin id was registered from, which for
// package members is the package manifest itself.
func (r *Registry) Source(id string) (*manifest.Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.manifest, true
}

// IDs returns all registered plugin ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Unregister removes a plugin id. Removing one member of a package does not
// remove its siblings.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("plugin %q not registered", id)
	}
	delete(r.entries, id)
	for i, known := range r.order {
		if known == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// UnmetRequirement describes a hard service requirement no registered
// plugin provides.
type UnmetRequirement struct {
	PluginID  string // the requiring plugin
	ServiceID string // the missing service
}

func (u UnmetRequirement) String() string {
	return fmt.Sprintf("plugin %s requires service %s", u.PluginID, u.ServiceID)
}

// CheckRequirements resolves every hard service requirement against the
// union of services provided by registered plugins. Optional requirements
// never appear in the result. The result is sorted for stable reporting.
func (r *Registry) CheckRequirements() []UnmetRequirement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provided := make(map[string]bool)
	for _, e := range r.entries {
		for _, svc := range e.expanded.Provides {
			provided[svc.ID] = true
		}
	}

	var unmet []UnmetRequirement
	for _, id := range r.order {
		e := r.entries[id]
		for _, req := range e.expanded.Requires {
			if req.Optional || provided[req.ID] {
				continue
			}
			unmet = append(unmet, UnmetRequirement{PluginID: id, ServiceID: req.ID})
		}
	}

	sort.Slice(unmet, func(i, j int) bool {
		if unmet[i].PluginID != unmet[j].PluginID {
			return unmet[i].PluginID < unmet[j].PluginID
		}
		return unmet[i].ServiceID < unmet[j].ServiceID
	})
	return unmet
}
