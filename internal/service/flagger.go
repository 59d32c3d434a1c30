package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/metrics"
	"github.com/dkeye/HelpWave/internal/protocol"
)

// Flagger periodically flags items that stayed open too long.
type Flagger struct {
	svc      *RoomService
	interval time.Duration
	after    time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewFlagger(svc *RoomService, interval, after time.Duration, m *metrics.Metrics) *Flagger {
	return &Flagger{svc: svc, interval: interval, after: after, metrics: m, now: time.Now}
}

// Run ticks until ctx is done. Failures are logged and retried next tick.
func (f *Flagger) Run(ctx context.Context) error {
	t := time.NewTicker(f.interval)
	defer t.Stop()
	log.Info().Str("module", "flagger").Dur("interval", f.interval).Dur("after", f.after).Msg("flagger started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "flagger").Msg("flagger stopped")
			return nil
		case <-t.C:
			if _, err := f.Tick(ctx); err != nil {
				log.Error().Err(err).Str("module", "flagger").Msg("flag pass failed")
			}
		}
	}
}

// Tick runs one pass and returns how many items it flagged.
func (f *Flagger) Tick(ctx context.Context) (int, error) {
	flagged, err := f.svc.store.FlagStale(ctx, f.now().Add(-f.after))
	if err != nil {
		return 0, err
	}
	for _, it := range flagged {
		f.svc.notify.Publish(it.RoomCode, protocol.ItemFlagged{ItemID: it.ItemID})
	}
	if len(flagged) > 0 {
		f.metrics.ItemsFlagged(len(flagged))
		log.Info().Str("module", "flagger").Int("count", len(flagged)).Msg("flagged stale items")
	}
	return len(flagged), nil
}
