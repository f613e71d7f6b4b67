package role

import (
	"context"
	"sync"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Source loads role definitions for the registry
type Source interface {
	All(ctx context.Context) ([]Role, error)
}

// Registry caches the role name/ID mapping in process. Every request path
// resolves roles through the registry, so lookups must not hit the
// database more than once per TTL window.
type Registry struct {
	source Source
	ttl    time.Duration

	mu      sync.RWMutex
	byName  map[string]types.ID
	byID    map[types.ID]string
	expires time.Time
}

// NewRegistry creates a role registry backed by source
func NewRegistry(source Source, ttl time.Duration) *Registry {
	return &Registry{
		source: source,
		ttl:    ttl,
		byName: make(map[string]types.ID),
		byID:   make(map[types.ID]string),
	}
}

// RoleID resolves a role name to its ID. A name missing after a fresh
// load means seed data is broken, not caller error.
func (c *Registry) RoleID(ctx context.Context, name string) (types.ID, error) {
	id, ok, err := c.lookupID(ctx, name, false)
	if err != nil {
		return "", err
	}
	if !ok {
		// Retry once against the database before declaring the
		// deployment broken.
		id, ok, err = c.lookupID(ctx, name, true)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.Configuration("role " + name + " is not defined")
		}
	}
	return id, nil
}

// RoleName resolves a role ID to its name
func (c *Registry) RoleName(ctx context.Context, id types.ID) (string, error) {
	name, ok, err := c.lookupName(ctx, id, false)
	if err != nil {
		return "", err
	}
	if !ok {
		name, ok, err = c.lookupName(ctx, id, true)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.Configuration("role " + id.String() + " is not defined")
		}
	}
	return name, nil
}

// Invalidate drops the cached mapping. Called after any role mutation.
func (c *Registry) Invalidate() {
	c.mu.Lock()
	c.expires = time.Time{}
	c.mu.Unlock()
}

func (c *Registry) lookupID(ctx context.Context, name string, force bool) (types.ID, bool, error) {
	if err := c.ensureFresh(ctx, force); err != nil {
		return "", false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	return id, ok, nil
}

func (c *Registry) lookupName(ctx context.Context, id types.ID, force bool) (string, bool, error) {
	if err := c.ensureFresh(ctx, force); err != nil {
		return "", false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byID[id]
	return name, ok, nil
}

func (c *Registry) ensureFresh(ctx context.Context, force bool) error {
	c.mu.RLock()
	fresh := !force && time.Now().Before(c.expires)
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if !force && time.Now().Before(c.expires) {
		return nil
	}

	roles, err := c.source.All(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]types.ID, len(roles))
	byID := make(map[types.ID]string, len(roles))
	for _, r := range roles {
		byName[r.Name] = r.ID
		byID[r.ID] = r.Name
	}

	c.byName = byName
	c.byID = byID
	c.expires = time.Now().Add(c.ttl)
	return nil
}
