// Package observability provides hooks for metrics and tracing.
//
// Consumers register hooks at startup to receive events about weave
// execution and cache operations, without the core packages depending on
// any particular metrics backend. The server registers Prometheus-backed
// hooks; the CLI leaves the no-op defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetWeaveHooks(&myWeaveHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Weave().OnWeaveStart(ctx, bundles, flows)
//	// ... weave ...
//	observability.Weave().OnWeaveComplete(ctx, nodes, links, unmatched, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// WeaveHooks receives events from the weave and render stages.
type WeaveHooks interface {
	OnWeaveStart(ctx context.Context, bundles, flows int)
	OnWeaveComplete(ctx context.Context, nodes, links, unmatched int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit for a key class ("weave", "artifact").
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopWeaveHooks is a no-op implementation of WeaveHooks.
type NoopWeaveHooks struct{}

func (NoopWeaveHooks) OnWeaveStart(context.Context, int, int)                              {}
func (NoopWeaveHooks) OnWeaveComplete(context.Context, int, int, int, time.Duration, error) {}
func (NoopWeaveHooks) OnRenderStart(context.Context, []string)                             {}
func (NoopWeaveHooks) OnRenderComplete(context.Context, []string, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	weaveHooks WeaveHooks = NoopWeaveHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetWeaveHooks registers custom weave hooks. Call once at application
// startup before any pipeline operations.
func SetWeaveHooks(h WeaveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		weaveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at application
// startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Weave returns the registered weave hooks.
func Weave() WeaveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return weaveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// Primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	weaveHooks = NoopWeaveHooks{}
	cacheHooks = NoopCacheHooks{}
}
