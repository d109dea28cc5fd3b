// Package lifecycle coordinates startup and shutdown of the long-lived
// systems behind the CLI and the HTTP server.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator runs startup hooks concurrently, tracks readiness, and on
// Shutdown cancels its context and waits for shutdown hooks.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	started  atomic.Bool

	mu      sync.Mutex
	tracked []tracked
}

type tracked struct {
	name    string
	checker ReadinessChecker
}

// New creates a Coordinator with a fresh cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn in its own goroutine and Shutdown waits for it to
// return. fn should block on Context().Done() before cleaning up.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Background runs fn with the coordinator context. fn must return soon
// after the context is cancelled; Shutdown waits for it.
func (c *Coordinator) Background(fn func(ctx context.Context)) {
	c.shutdown.Go(func() { fn(c.ctx) })
}

// Track adds a subsystem whose readiness is reported by Unready.
func (c *Coordinator) Track(name string, rc ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked = append(c.tracked, tracked{name: name, checker: rc})
}

// WaitForStartup blocks until every startup hook has returned.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.started.Store(true)
}

// Ready reports whether startup finished and every tracked system is ready.
func (c *Coordinator) Ready() bool {
	return len(c.Unready()) == 0
}

// Unready names what is not ready yet: "startup" while startup hooks are
// pending, then any tracked system whose checker reports false.
func (c *Coordinator) Unready() []string {
	if !c.started.Load() {
		return []string{"startup"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, t := range c.tracked {
		if !t.checker.Ready() {
			out = append(out, t.name)
		}
	}
	return out
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks
// and background loops. It is safe to call more than once.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
