package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/logger"
)

// DefaultPollInterval is the door/reset polling cadence.
const DefaultPollInterval = 500 * time.Millisecond

var errInvalidInterval = errors.New("poll interval must be greater than zero")

// Poller calls a tick function at a fixed interval until its context is
// cancelled. A failing tick is logged and does not stop the Poller.
type Poller struct {
	interval time.Duration
	tick     func() error
	log      *zap.SugaredLogger
}

// NewPoller creates a Poller. The name is used for log output.
func NewPoller(ctx context.Context, name string, interval time.Duration, tick func() error) (*Poller, error) {
	if interval <= 0 {
		return nil, errInvalidInterval
	}
	return &Poller{
		interval: interval,
		tick:     tick,
		log:      logger.FromContext(ctx).Named(name),
	}, nil
}

// Interval returns the tick period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run ticks until ctx is cancelled. Cancelling ctx is the only way to stop it.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.loop(ctx, ticker.C)
}

func (p *Poller) loop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if err := p.tick(); err != nil {
				p.log.Warnw("tick failed", "error", err)
			}
		}
	}
}
