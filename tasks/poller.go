package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
)

// Poller waits for submitted tasks to be confirmed on chain.
type Poller struct {
	backend interfaces.TaskBackend
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewPoller(backend interfaces.TaskBackend, cfg Config, log *slog.Logger, m *metrics.Metrics) *Poller {
	return &Poller{backend: backend, cfg: cfg, log: log, metrics: m}
}

// AwaitConfirmation blocks until the task reaches ChainStatusConfirmed.
//
// The first status query must report the task as recorded; any other state,
// confirmed included, fails with interfaces.ErrUnexpectedChainStatus and is
// not retried. After
// that the status is re-queried every PollInterval until confirmation, until
// PollTimeout or MaxPolls is exhausted (interfaces.ErrTimeout), or until ctx
// is cancelled. A status lower than one already observed fails with
// interfaces.ErrStatusRegression.
func (p *Poller) AwaitConfirmation(ctx context.Context, handle *interfaces.TaskHandle) (*interfaces.TaskHandle, error) {
	if p.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.cfg.PollTimeout, interfaces.ErrTimeout)
		defer cancel()
	}

	current, err := p.backend.GetStatus(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w: status query for task %s: %w", interfaces.ErrChain, handle.ID.Hex(), err)
	}

	if current == nil || current.ChainStatus != interfaces.ChainStatusRecorded {
		p.metrics.PollRound("unexpected")
		status := interfaces.ChainStatusUnknown
		if current != nil {
			status = current.ChainStatus
		}
		return nil, fmt.Errorf("%w: task %s is %s", interfaces.ErrUnexpectedChainStatus, handle.ID.Hex(), status)
	}
	p.metrics.PollRound("pending")

	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			return nil, p.waitAborted(ctx, current, polls)
		case <-ticker.C:
		}

		polls++
		next, err := p.backend.GetStatus(ctx, current)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, p.waitAborted(ctx, current, polls)
			}
			p.metrics.PollRound("error")
			p.log.Warn("Task status query failed",
				slog.String("task", current.ID.Hex()),
				slog.Int("poll", polls),
				"err", err)

		case next == nil:
			p.metrics.PollRound("error")
			p.log.Warn("Task status query returned no handle",
				slog.String("task", current.ID.Hex()),
				slog.Int("poll", polls))

		case next.ChainStatus < current.ChainStatus:
			p.metrics.PollRound("regression")
			return nil, fmt.Errorf("%w: task %s went from %s to %s", interfaces.ErrStatusRegression, current.ID.Hex(), current.ChainStatus, next.ChainStatus)

		case next.ChainStatus == interfaces.ChainStatusConfirmed:
			p.metrics.PollRound("confirmed")
			p.log.Debug("Task confirmed",
				slog.String("task", next.ID.Hex()),
				slog.Int("polls", polls))
			return next, nil

		default:
			p.metrics.PollRound("pending")
			p.log.Debug("Waiting for task confirmation",
				slog.String("task", next.ID.Hex()),
				slog.String("status", next.ChainStatus.String()),
				slog.Int("poll", polls))
			current = next
		}

		if p.cfg.MaxPolls > 0 && polls >= p.cfg.MaxPolls {
			return nil, fmt.Errorf("%w: task %s still %s after %d polls", interfaces.ErrTimeout, current.ID.Hex(), current.ChainStatus, polls)
		}
	}
}

func (p *Poller) waitAborted(ctx context.Context, current *interfaces.TaskHandle, polls int) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, interfaces.ErrTimeout) || errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w: task %s still %s after %d polls", interfaces.ErrTimeout, current.ID.Hex(), current.ChainStatus, polls)
	}
	return fmt.Errorf("waiting for task %s: %w", current.ID.Hex(), cause)
}
