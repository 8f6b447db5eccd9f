// Package memory keeps every loaded project schedule in process memory.
// Each project pairs a task graph with its team roster; mutations run
// under a per-project lock so concurrent edits to different projects
// never contend.
package memory

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
)

// ErrProjectNotFound is returned when a project has no loaded schedule.
var ErrProjectNotFound = errors.New("memory: project not found")

type project struct {
	mu    sync.Mutex
	graph *schedule.Graph
	team  *directory.Directory
}

// Store is the in-memory project registry.
type Store struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*project
}

// New creates an empty store.
func New() *Store {
	return &Store{projects: make(map[uuid.UUID]*project)}
}

func (s *Store) get(projectID uuid.UUID) (*project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	return p, ok
}

func (s *Store) getOrCreate(projectID uuid.UUID) *project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		p = &project{graph: schedule.NewGraph(), team: directory.New(nil)}
		s.projects[projectID] = p
	}
	return p
}

// Replace swaps in a freshly loaded schedule, creating the project if
// it does not exist yet. The team roster is kept.
func (s *Store) Replace(projectID uuid.UUID, g *schedule.Graph) {
	p := s.getOrCreate(projectID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graph = g
}

// SetTeam replaces the project's roster, creating the project if needed.
func (s *Store) SetTeam(projectID uuid.UUID, members []schedule.Resource) {
	p := s.getOrCreate(projectID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.team = directory.New(members)
}

// Mutate runs fn against the project's graph and roster under the
// project lock. The graph fn sees is the live one: engine operations
// already guarantee a failed mutation leaves it unchanged.
func (s *Store) Mutate(projectID uuid.UUID, fn func(g *schedule.Graph, team *directory.Directory) error) error {
	p, ok := s.get(projectID)
	if !ok {
		return ErrProjectNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.graph, p.team)
}

// View reads the project under its lock. Callers must not retain the
// graph past fn's return.
func (s *Store) View(projectID uuid.UUID, fn func(g *schedule.Graph, team *directory.Directory) error) error {
	return s.Mutate(projectID, fn)
}

// Snapshot deep-clones every loaded project for cross-project reads.
func (s *Store) Snapshot() []schedule.ProjectGraph {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	out := make([]schedule.ProjectGraph, 0, len(ids))
	for _, id := range ids {
		p, ok := s.get(id)
		if !ok {
			continue
		}
		p.mu.Lock()
		out = append(out, schedule.ProjectGraph{ProjectID: id, Graph: p.graph.Clone()})
		p.mu.Unlock()
	}
	return out
}

// Resolver returns a name resolver spanning every project's roster.
func (s *Store) Resolver() directory.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()

	multi := make(directory.Multi, 0, len(s.projects))
	for _, p := range s.projects {
		multi = append(multi, p.team)
	}
	return multi
}
