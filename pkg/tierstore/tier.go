// Package tierstore presents a single get/set/clear API over an ordered list
// of token storage tiers, hiding which tiers happen to be reachable in the
// current execution context.
//
// Tiers differ in speed, durability, and reachability: an in-process map, a
// redis keyspace, a cookie pair bound to a live HTTP exchange. Reads walk the
// tiers in priority order and return the first hit; writes go through to
// every reachable tier so any one of them can serve a later read.
package tierstore

import (
	"context"
	"errors"
)

var (
	// ErrNoValue reports that no reachable tier held a value for the key.
	ErrNoValue = errors.New("tierstore: no value")

	// ErrNoTier reports that a write or clear reached no tier at all.
	ErrNoTier = errors.New("tierstore: no reachable tier")
)

// Tier is one named storage channel. Implementations must tolerate
// concurrent calls; the resolver adds no locking of its own.
type Tier interface {
	// Name identifies the tier for reachability checks and log lines.
	Name() string

	// Get returns the stored value, or ErrNoValue when the tier holds
	// nothing for the key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value, replacing any previous one.
	Set(ctx context.Context, key, value string) error

	// Clear removes the key. Clearing an absent key is not an error.
	Clear(ctx context.Context, key string) error
}

// ExecutionContext lists which tiers are reachable for a single call. It is
// supplied by the caller every time; the resolver never assumes a tier is
// reachable without being told. The zero value reaches nothing.
type ExecutionContext struct {
	reachable map[string]struct{}
}

// Reach builds an ExecutionContext from tier names.
func Reach(names ...string) ExecutionContext {
	ec := ExecutionContext{reachable: make(map[string]struct{}, len(names))}
	for _, n := range names {
		ec.reachable[n] = struct{}{}
	}
	return ec
}

// ReachAll builds an ExecutionContext in which every given tier is reachable.
func ReachAll(tiers ...Tier) ExecutionContext {
	names := make([]string, 0, len(tiers))
	for _, t := range tiers {
		names = append(names, t.Name())
	}
	return Reach(names...)
}

// Reaches reports whether the named tier is reachable in this context.
func (ec ExecutionContext) Reaches(name string) bool {
	_, ok := ec.reachable[name]
	return ok
}
