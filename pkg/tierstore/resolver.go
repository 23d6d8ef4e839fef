package tierstore

import (
	"context"
	"errors"
	"log/slog"
)

// Resolver is a stateless, idempotent facade over an ordered tier list.
// Priority order is the construction order: fastest / most authoritative
// first. The resolver holds no cache and no state of its own; the set of
// reachable tiers arrives with every call.
type Resolver struct {
	tiers []Tier
	log   *slog.Logger
}

// NewResolver builds a resolver over tiers in read-priority order.
func NewResolver(log *slog.Logger, tiers ...Tier) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{tiers: tiers, log: log}
}

// With returns a resolver extended by an additional, lowest-priority tier.
// Used to attach request-scoped tiers (e.g. a cookie tier) to a long-lived
// resolver without mutating it.
func (r *Resolver) With(t Tier) *Resolver {
	tiers := make([]Tier, 0, len(r.tiers)+1)
	tiers = append(tiers, r.tiers...)
	tiers = append(tiers, t)
	return &Resolver{tiers: tiers, log: r.log}
}

// Get walks the reachable tiers in priority order and returns the first
// non-empty value. A tier that is unreachable, errors, or holds nothing is
// treated as absent, never surfaced to the caller. ErrNoValue when nothing
// was found anywhere.
//
// Get does not backfill tiers it skipped over: writes are already
// write-through, so a tier only lacks a value when it was unreachable at
// write time. That read remains tier-local until the next write; an
// accepted limitation.
func (r *Resolver) Get(ctx context.Context, ec ExecutionContext, key string) (string, error) {
	for _, t := range r.tiers {
		if !ec.Reaches(t.Name()) {
			continue
		}
		value, err := t.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrNoValue) {
				r.log.Warn("tier read failed", "tier", t.Name(), "key", key, "err", err)
			}
			continue
		}
		if value != "" {
			return value, nil
		}
	}
	return "", ErrNoValue
}

// Set writes the value through to every reachable tier independently. A
// failing tier is logged and skipped; redundancy across tiers is the whole
// point, so partial success counts as success. ErrNoTier when not a single
// tier accepted the write.
func (r *Resolver) Set(ctx context.Context, ec ExecutionContext, key, value string) error {
	wrote := false
	for _, t := range r.tiers {
		if !ec.Reaches(t.Name()) {
			continue
		}
		if err := t.Set(ctx, key, value); err != nil {
			r.log.Warn("tier write failed", "tier", t.Name(), "key", key, "err", err)
			continue
		}
		wrote = true
	}
	if !wrote {
		return ErrNoTier
	}
	return nil
}

// Clear deletes the key from every reachable tier, with the same
// non-aborting policy as Set.
func (r *Resolver) Clear(ctx context.Context, ec ExecutionContext, key string) error {
	cleared := false
	for _, t := range r.tiers {
		if !ec.Reaches(t.Name()) {
			continue
		}
		if err := t.Clear(ctx, key); err != nil {
			r.log.Warn("tier clear failed", "tier", t.Name(), "key", key, "err", err)
			continue
		}
		cleared = true
	}
	if !cleared {
		return ErrNoTier
	}
	return nil
}

// Tiers returns the configured tier list in priority order.
func (r *Resolver) Tiers() []Tier { return r.tiers }
