package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_INTERVAL = 15 * time.Second

// HealthChecker is implemented by classifier backends that live behind a
// network hop (the HF endpoint, the Valkey cached wrapper).
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// MonitorClassifierHealth probes checker once immediately and then on every
// tick, storing the result in healthy until ctx is cancelled.
func MonitorClassifierHealth(ctx context.Context, checker HealthChecker, interval time.Duration, healthy *atomic.Bool) {
	if interval <= 0 {
		interval = HEALTHCHECK_INTERVAL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe := func() {
		isHealthy := checker.HealthCheck(ctx)
		if healthy.Swap(isHealthy) != isHealthy {
			if isHealthy {
				slog.Info("[HealthCheck] Classifier is healthy again")
			} else {
				slog.Warn("[HealthCheck] Classifier is unhealthy")
			}
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
