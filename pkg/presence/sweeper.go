package presence

import (
	"context"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
)

// Sweeper periodically garbage-collects stale rooms, archiving each one
// before deletion when an archiver is configured.
type Sweeper struct {
	engine   *engine.Engine
	archiver engine.Archiver
	interval time.Duration
}

type NewSweeperOptions struct {
	Engine   *engine.Engine
	Archiver engine.Archiver
	// Interval defaults to the lastUpdated staleness threshold.
	Interval time.Duration
}

func NewSweeper(opts NewSweeperOptions) *Sweeper {
	interval := opts.Interval
	if interval <= 0 {
		interval = engine.StaleUpdatedThreshold
	}
	return &Sweeper{
		engine:   opts.Engine,
		archiver: opts.Archiver,
		interval: interval,
	}
}

// Start runs the sweep loop until the context is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SweepOnce(ctx); err != nil {
			log.Error("Stale room sweep failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single sweep over both staleness thresholds.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	deleted, err := s.engine.CleanupStaleRooms(ctx, engine.CleanupOptions{
		Threshold: engine.StaleUpdatedThreshold,
		Field:     rooms.PathLastUpdated,
		Archiver:  s.archiver,
	})
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Info("Sweep removed %d stale rooms", deleted)
	}
	return nil
}
