package registry

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cascadefn/platform/cascade"
)

// InMemoryRegistry is a reference Registry backed by a map, grounded on
// the teacher's core.Registry register/resolve/list shape but without
// Redis: a real registry is an explicit external collaborator (§6), so
// no production-grade backing store belongs here.
type InMemoryRegistry struct {
	mu   sync.RWMutex
	byID map[string][]*cascade.Definition // versions appended in registration order
}

// NewInMemoryRegistry builds an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{byID: make(map[string][]*cascade.Definition)}
}

// Register appends def as the next version for its ID, returning the
// version string assigned (the definition's own Version field if set,
// else a monotonic sequence number).
func (r *InMemoryRegistry) Register(_ context.Context, def *cascade.Definition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("registry: definition must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	versions := r.byID[def.ID]
	version := def.Version.String()
	if version == "" || version == "0.0.0" {
		version = strconv.Itoa(len(versions) + 1)
	}

	r.byID[def.ID] = append(versions, def)
	return version, nil
}

// Resolve returns the latest registered version of id, or the one whose
// assigned version (as returned by Register) matches versionConstraint
// exactly when supplied.
func (r *InMemoryRegistry) Resolve(_ context.Context, id, versionConstraint string) (*cascade.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.byID[id]
	if !ok || len(versions) == 0 {
		return nil, ErrNotFound
	}

	if versionConstraint == "" {
		return versions[len(versions)-1], nil
	}

	for i := len(versions) - 1; i >= 0; i-- {
		assigned := versions[i].Version.String()
		if assigned == "" || assigned == "0.0.0" {
			assigned = strconv.Itoa(i + 1)
		}
		if assigned == versionConstraint {
			return versions[i], nil
		}
	}
	return nil, ErrNotFound
}

// List pages through every registered definition's latest version,
// optionally filtered by name prefix.
func (r *InMemoryRegistry) List(_ context.Context, filter Filter) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matched := make([]*cascade.Definition, 0, len(ids))
	for _, id := range ids {
		versions := r.byID[id]
		latest := versions[len(versions)-1]
		if filter.NamePrefix != "" && !strings.HasPrefix(latest.Name, filter.NamePrefix) {
			continue
		}
		matched = append(matched, latest)
	}

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	return Page{Definitions: matched[start:end], Total: total}, nil
}

var _ Registry = (*InMemoryRegistry)(nil)
