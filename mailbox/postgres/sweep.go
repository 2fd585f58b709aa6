package postgres

import (
	"context"
	"time"

	"github.com/sage-x-project/didmediator/internal/logger"
)

// RunSweep runs SweepExpired on interval until ctx is canceled,
// grounded on core/session/manager.go's cleanupTicker. Sweep failures
// are logged and swallowed (spec.md §7): they must never affect the
// inbound pipeline.
func (s *Store) RunSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	log := logger.GetDefaultLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept, err := s.SweepExpired(ctx)
			if err != nil {
				log.Warn("mailbox sweep failed", logger.Error(err))
				continue
			}
			if swept > 0 {
				log.Debug("mailbox sweep removed expired messages", logger.Int("count", int(swept)))
			}
		case <-ctx.Done():
			return
		}
	}
}
