package connectivity

import (
	"context"
	"time"

	"github.com/storyshelf/storyshelf/internal/logging"
)

const probeTimeout = 3 * time.Second

// PingFunc checks reachability of the remote API.
type PingFunc func(ctx context.Context) error

// Prober turns periodic pings into monitor events.
type Prober struct {
	monitor  *Monitor
	ping     PingFunc
	interval time.Duration
	log      logging.Logger
}

func NewProber(m *Monitor, ping PingFunc, interval time.Duration, log logging.Logger) *Prober {
	return &Prober{monitor: m, ping: ping, interval: interval, log: logging.OrNop(log)}
}

// Probe pings once and feeds the result to the monitor.
// A probe cut short by ctx itself leaves the monitor untouched.
func (p *Prober) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := p.ping(pctx)
	if ctx.Err() != nil {
		return p.monitor.CheckOnlineStatus()
	}
	if err != nil {
		p.log.Debug(ctx, "ping failed", "error", err)
	}
	p.monitor.SetOnline(err == nil)
	return err == nil
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
