package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller refreshes the dashboard periodically.
type Poller struct {
	controller *Controller
	interval   time.Duration

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPoller creates a poller. A non-positive interval disables it.
func NewPoller(controller *Controller, interval time.Duration) *Poller {
	return &Poller{
		controller: controller,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. It does nothing once Stop was called.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		slog.Info("dashboard poller disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	slog.Info("starting dashboard poller", "interval", p.interval)

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop stops polling and waits for the refresh in progress, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()
	slog.Info("dashboard poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			// Failures are logged and shown by the controller.
			_, _ = p.controller.Refresh(ctx)
		}
	}
}
