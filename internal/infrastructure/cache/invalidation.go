package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesreports/pkg/logger"
)

// OptionsChangedChannel is the NOTIFY channel catalog writers signal on.
// The payload is a locale code, or empty when every locale changed.
const OptionsChangedChannel = "product_options_changed"

// Invalidatable is a cache that can drop the labels of one locale.
type Invalidatable interface {
	Invalidate(ctx context.Context, localeCode string) error
}

// Invalidator drops cached option labels when PostgreSQL NOTIFYs a change.
type Invalidator struct {
	pool    *pgxpool.Pool
	targets []Invalidatable

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewInvalidator creates an invalidator for targets.
func NewInvalidator(pool *pgxpool.Pool, targets ...Invalidatable) *Invalidator {
	return &Invalidator{pool: pool, targets: targets}
}

// Start begins listening in the background.
func (i *Invalidator) Start(ctx context.Context) {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()
	if i.started {
		return
	}
	i.ctx, i.cancel = context.WithCancel(ctx)
	i.started = true

	i.wg.Add(1)
	go i.listenLoop()
	logger.Info(i.ctx, "option label invalidation started", "channel", OptionsChangedChannel)
}

// Stop ends the listener and waits for it.
func (i *Invalidator) Stop() {
	i.lifecycleMu.Lock()
	if !i.started {
		i.lifecycleMu.Unlock()
		return
	}
	cancel := i.cancel
	i.started = false
	i.cancel = nil
	i.lifecycleMu.Unlock()

	cancel()
	i.wg.Wait()
}

func (i *Invalidator) listenLoop() {
	defer i.wg.Done()

	for i.ctx.Err() == nil {
		conn, err := i.pool.Acquire(i.ctx)
		if err != nil {
			logger.Error(i.ctx, "acquire connection for LISTEN", "error", err)
			i.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(i.ctx, "LISTEN "+OptionsChangedChannel); err != nil {
			logger.Error(i.ctx, "LISTEN failed", "error", err)
			conn.Release()
			i.sleep(time.Second)
			continue
		}

		for i.ctx.Err() == nil {
			n, err := conn.Conn().WaitForNotification(i.ctx)
			if err != nil {
				if i.ctx.Err() == nil {
					logger.Warn(i.ctx, "notification wait failed, reconnecting", "error", err)
				}
				break
			}
			i.Handle(i.ctx, n.Payload)
		}
		conn.Release()
	}
}

func (i *Invalidator) sleep(d time.Duration) {
	select {
	case <-i.ctx.Done():
	case <-time.After(d):
	}
}

// Handle invalidates every target for the locale named by payload.
func (i *Invalidator) Handle(ctx context.Context, payload string) {
	locale := strings.TrimSpace(payload)
	for _, t := range i.targets {
		if err := t.Invalidate(ctx, locale); err != nil {
			logger.Error(ctx, "invalidate option labels", "locale", locale, "error", err)
		}
	}
	logger.Debug(ctx, "option labels invalidated", "locale", locale)
}
