package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RetryProcessorConfig holds configuration for the retry processor
type RetryProcessorConfig struct {
	// Interval is how often failed records are retried (default: 1m)
	Interval time.Duration
}

// DefaultRetryProcessorConfig returns sensible defaults
func DefaultRetryProcessorConfig() RetryProcessorConfig {
	return RetryProcessorConfig{Interval: time.Minute}
}

// Retrier is implemented by SyncService.
type Retrier interface {
	Summary() SyncSummary
	RetryFailed(ctx context.Context) RetryReport
}

// RetryProcessor periodically re-issues failed remote syncs.
type RetryProcessor struct {
	sync   Retrier
	config RetryProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRetryProcessor(r Retrier, config RetryProcessorConfig) *RetryProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRetryProcessorConfig().Interval
	}
	return &RetryProcessor{sync: r, config: config}
}

// Start begins the retry loop. Returns an error if already running.
func (p *RetryProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("retry processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Retry processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *RetryProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Retry processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Retry processor stop timed out")
		return ctx.Err()
	}
}

func (p *RetryProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RetryProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce retries failed records if there are any.
func (p *RetryProcessor) RunOnce(ctx context.Context) RetryReport {
	if p.sync.Summary().Failed == 0 {
		return RetryReport{}
	}
	return p.sync.RetryFailed(ctx)
}
