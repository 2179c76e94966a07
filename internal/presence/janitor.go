package presence

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically removes stale typing rows.
type Janitor struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(service *Service, interval time.Duration) *Janitor {
	return &Janitor{service: service, interval: interval, logger: slog.With("component", "typing-janitor")}
}

// Run cleans up on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := j.service.Cleanup(ctx)
			if err != nil {
				j.logger.Warn("typing cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				j.logger.Debug("removed stale typing rows", "count", removed)
			}
		}
	}
}
