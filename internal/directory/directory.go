// Package directory holds the team-member lookup the scheduling engine
// matches resource names against. Resources are owned by an external
// system; the engine only ever sees (id, display name) pairs.
package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/schedule"
)

// Resolver maps a display name to a resource id.
type Resolver interface {
	Resolve(name string) (uuid.UUID, bool)
}

// Directory is an in-memory team roster. Resolution tries an exact name
// match first, then a case-insensitive match on the trimmed name.
// Safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	byName  map[string]uuid.UUID
	folded  map[string]uuid.UUID
	members []schedule.Resource
}

// New builds a directory from a roster.
func New(members []schedule.Resource) *Directory {
	d := &Directory{
		byName: make(map[string]uuid.UUID, len(members)),
		folded: make(map[string]uuid.UUID, len(members)),
	}
	for _, m := range members {
		d.add(m)
	}
	return d
}

// Add registers one member. A later member with the same name wins.
func (d *Directory) Add(m schedule.Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(m)
}

func (d *Directory) add(m schedule.Resource) {
	d.byName[m.Name] = m.ID
	d.folded[foldName(m.Name)] = m.ID
	d.members = append(d.members, m)
}

// Resolve implements Resolver.
func (d *Directory) Resolve(name string) (uuid.UUID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id, ok := d.byName[name]; ok {
		return id, true
	}
	id, ok := d.folded[foldName(name)]
	return id, ok
}

// Members returns the roster sorted by display name.
func (d *Directory) Members() []schedule.Resource {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := append([]schedule.Resource(nil), d.members...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Multi resolves through several directories in order, first match wins.
// Used for cross-project lookups where each project owns its own roster.
type Multi []Resolver

func (m Multi) Resolve(name string) (uuid.UUID, bool) {
	for _, r := range m {
		if r == nil {
			continue
		}
		if id, ok := r.Resolve(name); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
