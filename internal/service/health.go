package service

import (
	"context"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

// Dependency is one pinged backend. A failing critical dependency makes
// the service unhealthy; any other failure only degrades it.
type Dependency struct {
	Name     string
	Pinger   port.Pinger
	Critical bool
}

// HealthService pings the configured backends.
type HealthService struct {
	deps   []Dependency
	logger *zap.Logger
}

// NewHealthService creates a health checker over deps.
func NewHealthService(logger *zap.Logger, deps ...Dependency) *HealthService {
	return &HealthService{deps: deps, logger: logger}
}

// Check pings every dependency concurrently.
func (s *HealthService) Check(ctx context.Context) *domain.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	services := make([]domain.ServiceHealth, len(s.deps)+1)
	services[0] = domain.ServiceHealth{Name: "linkbio-api", Status: "healthy"}

	var g errgroup.Group
	for i, d := range s.deps {
		g.Go(func() error {
			start := time.Now()
			err := d.Pinger.Ping(ctx)
			h := domain.ServiceHealth{Name: d.Name, Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				h.Status = "degraded"
				if d.Critical {
					h.Status = "unhealthy"
				}
				s.logger.Warn("health check failed", zap.String("dependency", d.Name), zap.Error(err))
			}
			services[i+1] = h
			return nil
		})
	}
	_ = g.Wait()

	overall := "healthy"
	for _, h := range services {
		if h.Status == "unhealthy" {
			overall = "unhealthy"
			break
		}
		if h.Status == "degraded" {
			overall = "degraded"
		}
	}
	return &domain.HealthStatus{Status: overall, Services: services}
}

// Ready reports whether every critical dependency answers.
func (s *HealthService) Ready(ctx context.Context) bool {
	return s.Check(ctx).Status != "unhealthy"
}
