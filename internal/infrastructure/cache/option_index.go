// Package cache provides caching of variant option labels.
// Computed reports are never cached; only the locale label lookups are.
package cache

import (
	"context"
	"sync"
	"time"

	"salesreports/internal/domain/reports"
	"salesreports/pkg/logger"
)

var _ reports.OptionIndex = (*OptionIndexCache)(nil)

type optionEntry struct {
	options   reports.VariantOptions
	expiresAt time.Time
}

// OptionIndexCache keeps the option labels of each locale in memory for ttl.
type OptionIndexCache struct {
	next reports.OptionIndex
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]optionEntry
}

// NewOptionIndexCache wraps next with an in-process cache.
func NewOptionIndexCache(next reports.OptionIndex, ttl time.Duration) *OptionIndexCache {
	return &OptionIndexCache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]optionEntry),
	}
}

// OptionsForLocale returns the cached labels of localeCode, loading them on miss or expiry.
func (c *OptionIndexCache) OptionsForLocale(ctx context.Context, localeCode string) (reports.VariantOptions, error) {
	c.mu.RLock()
	e, ok := c.entries[localeCode]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.options, nil
	}

	options, err := c.next.OptionsForLocale(ctx, localeCode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[localeCode] = optionEntry{options: options, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	logger.Debug(ctx, "option labels loaded", "locale", localeCode, "variants", len(options))
	return options, nil
}

// Invalidate drops localeCode, or every locale when localeCode is empty.
func (c *OptionIndexCache) Invalidate(_ context.Context, localeCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if localeCode == "" {
		c.entries = make(map[string]optionEntry)
		return nil
	}
	delete(c.entries, localeCode)
	return nil
}
