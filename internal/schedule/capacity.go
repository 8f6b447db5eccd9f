package schedule

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultCapacityWeeks is how far ahead the heatmap looks when the caller
// does not say otherwise.
const DefaultCapacityWeeks = 12

// LoadLevel classifies one resource-week for presentation. The thresholds
// are a consumer convention, fixed here so every surface renders the same
// colors: 0h idle, up to 30h light, up to 40h near capacity, above that
// overallocated.
type LoadLevel string

const (
	LoadIdle          LoadLevel = "idle"
	LoadLight         LoadLevel = "light"
	LoadNearCapacity  LoadLevel = "near_capacity"
	LoadOverallocated LoadLevel = "overallocated"
)

// ClassifyLoad maps weekly hours to a load level.
func ClassifyLoad(hours int) LoadLevel {
	switch {
	case hours <= 0:
		return LoadIdle
	case hours <= 30:
		return LoadLight
	case hours <= 40:
		return LoadNearCapacity
	default:
		return LoadOverallocated
	}
}

// NameResolver resolves a display name to a resource id. Supplied by the
// collaborator that owns the team directory; used only for the legacy
// single-owner fallback.
type NameResolver interface {
	Resolve(name string) (uuid.UUID, bool)
}

// CapacityReport is the heatmap: per resource, allocated hours for each
// reporting week. Hours rows are parallel to WeekStarts so callers can
// label columns.
type CapacityReport struct {
	WeekStarts []time.Time         `json:"week_starts"`
	Hours      map[uuid.UUID][]int `json:"hours"`
}

// CapacityAggregator computes allocated hours per resource per week
// across a set of graphs spanning all projects. It only reads the graphs,
// so independent aggregations may run concurrently as long as no mutation
// is in flight.
type CapacityAggregator struct {
	Weeks    int          // number of reporting weeks; DefaultCapacityWeeks when <= 0
	Resolver NameResolver // optional, enables the legacy owner fallback
}

// Aggregate computes the heatmap for the given resources over all graphs,
// anchored to the Monday on or before ref. Resources fan out across
// goroutines; each writes only its own row.
func (a *CapacityAggregator) Aggregate(ctx context.Context, graphs []*Graph, resourceIDs []uuid.UUID, ref time.Time) (*CapacityReport, error) {
	weeks := a.Weeks
	if weeks <= 0 {
		weeks = DefaultCapacityWeeks
	}

	anchor := MondayOnOrBefore(ref)
	weekStarts := make([]time.Time, weeks)
	for i := range weekStarts {
		weekStarts[i] = anchor.AddDate(0, 0, 7*i)
	}

	rows := make([][]int, len(resourceIDs))
	eg, _ := errgroup.WithContext(ctx)
	for i, rid := range resourceIDs {
		eg.Go(func() error {
			rows[i] = a.resourceRow(graphs, rid, weekStarts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &CapacityReport{
		WeekStarts: weekStarts,
		Hours:      make(map[uuid.UUID][]int, len(resourceIDs)),
	}
	for i, rid := range resourceIDs {
		report.Hours[rid] = rows[i]
	}
	return report, nil
}

func (a *CapacityAggregator) resourceRow(graphs []*Graph, rid uuid.UUID, weekStarts []time.Time) []int {
	// Sum exact hours per week, round once at the end.
	exact := make([]float64, len(weekStarts))
	for _, g := range graphs {
		for _, t := range g.tasks {
			if t.Kind == KindSummary {
				continue
			}
			if !a.taskBooksResource(t, rid) {
				continue
			}
			start := t.Start
			if start.IsZero() {
				continue
			}
			end, err := AddBusinessDays(start, t.DurationDays)
			if err != nil {
				continue
			}

			pct := t.AllocationPercent(rid)
			for w, weekStart := range weekStarts {
				// Reporting window is Mon..Fri; its exclusive end is
				// Saturday, weekStart+5.
				windowEnd := weekStart.AddDate(0, 0, 5)

				overlapStart := start
				if weekStart.After(overlapStart) {
					overlapStart = weekStart
				}
				overlapEnd := end
				if windowEnd.Before(overlapEnd) {
					overlapEnd = windowEnd
				}
				if !overlapStart.Before(overlapEnd) {
					continue
				}
				days := CountBusinessDays(overlapStart, overlapEnd)
				exact[w] += float64(days) * 8 * pct / 100
			}
		}
	}

	row := make([]int, len(exact))
	for i, h := range exact {
		row[i] = int(math.Round(h))
	}
	return row
}

// taskBooksResource matches the modern multi-resource assignment first and
// falls back to resolving the legacy single-owner name.
func (a *CapacityAggregator) taskBooksResource(t *Task, rid uuid.UUID) bool {
	if t.HasResource(rid) {
		return true
	}
	if t.Owner == "" || len(t.ResourceIDs) > 0 || a.Resolver == nil {
		return false
	}
	id, ok := a.Resolver.Resolve(t.Owner)
	return ok && id == rid
}
