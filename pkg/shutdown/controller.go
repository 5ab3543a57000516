// Package shutdown coordinates graceful process shutdown: it listens for
// SIGINT/SIGTERM and runs registered callbacks once, exactly the way the
// teacher's emergency.Controller drives a chaos run's cleanup — adapted
// here to drain HTTP serving and stop in-flight session workers instead of
// tearing down injected faults.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jihwankim/fault-recommender/pkg/reporting"
)

// Controller triggers a one-time shutdown sequence on SIGINT/SIGTERM or an
// explicit Stop call.
type Controller struct {
	mu        sync.Mutex
	stopped   bool
	stopCh    chan struct{}
	callbacks []func()
	logger    *reporting.Logger
}

// New creates a shutdown controller.
func New(logger *reporting.Logger) *Controller {
	return &Controller{
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// Listen starts watching for SIGINT/SIGTERM until ctx is done.
func (c *Controller) Listen(ctx context.Context) {
	go c.watchSignals(ctx)
}

func (c *Controller) watchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return
	case sig := <-sigCh:
		c.logger.Warn("shutdown signal received", "signal", sig.String())
		c.trigger()
	}
}

// Stop manually triggers the shutdown sequence.
func (c *Controller) Stop() {
	c.trigger()
}

func (c *Controller) trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)

	for i, cb := range c.callbacks {
		c.logger.Info("running shutdown callback", "index", i+1, "total", len(c.callbacks))
		cb()
	}
}

// OnStop registers a callback to run once, when shutdown is triggered.
func (c *Controller) OnStop(callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// Done returns a channel that closes when shutdown has been triggered.
func (c *Controller) Done() <-chan struct{} {
	return c.stopCh
}

// IsStopped reports whether shutdown has been triggered.
func (c *Controller) IsStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
