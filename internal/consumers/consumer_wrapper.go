package consumers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTH_PAUSE = 5 * time.Second

// HealthGate holds consumption back while any tracked backend is unhealthy.
type HealthGate struct {
	health []*atomic.Bool
	pause  time.Duration
}

func NewHealthGate(health ...*atomic.Bool) HealthGate {
	return HealthGate{health: health, pause: HEALTH_PAUSE}
}

func (g HealthGate) WithHealthCheck(health *atomic.Bool) HealthGate {
	g.health = append(g.health, health)
	return g
}

func (g HealthGate) Healthy() bool {
	for _, h := range g.health {
		if h != nil && !h.Load() {
			return false
		}
	}
	return true
}

// Wait blocks until every backend is healthy. It returns false once ctx is done.
func (g HealthGate) Wait(ctx context.Context) bool {
	logged := false
	for !g.Healthy() {
		if !logged {
			slog.Warn("[HealthGate] Classifier unhealthy, pausing consumption")
			logged = true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(g.pause):
		}
	}
	if logged {
		slog.Info("[HealthGate] Classifier healthy, resuming consumption")
	}
	return ctx.Err() == nil
}
