package store

import (
	"sync"
	"time"

	"ecagent-hq/ecagent/pkg/rules/ast"
)

// Registry holds the active rule set. Rule sets are immutable once
// published; Replace swaps the whole set atomically.
type Registry struct {
	mu       sync.RWMutex
	current  *ast.RuleSet
	loadTime time.Time
	reloads  int
}

// NewRegistry creates a registry seeded with rs.
func NewRegistry(rs *ast.RuleSet) *Registry {
	return &Registry{current: rs, loadTime: time.Now()}
}

// Current returns the active rule set.
func (r *Registry) Current() *ast.RuleSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Replace publishes rs as the active rule set. A nil set is ignored.
func (r *Registry) Replace(rs *ast.RuleSet) {
	if rs == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = rs
	r.loadTime = time.Now()
	r.reloads++
}

// Version returns the hash of the active rule set.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return ""
	}
	return r.current.Hash
}

// LoadTime returns when the active rule set was published.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadTime
}

// Reloads returns how many times Replace has swapped the set.
func (r *Registry) Reloads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reloads
}

// Reload loads path with l and publishes the result. On failure the
// previous rule set stays active and the error is returned.
func (r *Registry) Reload(l *Loader, path string) error {
	rs, err := l.Load(path)
	if err != nil {
		return err
	}
	r.Replace(rs)
	return nil
}
