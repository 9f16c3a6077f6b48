package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/events"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var analyticsTracer = otel.Tracer("service/analytics")

const (
	defaultReportDays = 30
	maxReportDays     = 365
	maxLabelLength    = 200
)

// AnalyticsService records public interaction events and builds the
// per-profile report.
type AnalyticsService struct {
	clients   port.ClientStore
	profiles  port.ProfileStore
	showcases port.ShowcaseStore
	events    port.AnalyticsStore
	now       func() time.Time
	logger    *zap.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(clients port.ClientStore, profiles port.ProfileStore, showcases port.ShowcaseStore, store port.AnalyticsStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		clients:   clients,
		profiles:  profiles,
		showcases: showcases,
		events:    store,
		now:       time.Now,
		logger:    logger,
	}
}

// Track stores an event of a public page. Events of tenants without the
// analytics feature are accepted and dropped.
func (s *AnalyticsService) Track(ctx context.Context, slug string, req *domain.TrackEventRequest) error {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Track")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", req.Type))

	if !events.ValidType(req.Type) {
		return &domain.ErrValidation{Field: "type", Message: "tipo de evento desconhecido"}
	}
	prof, client, err := publicProfile(ctx, s.clients, s.profiles, slug)
	if err != nil {
		return err
	}
	if !plans.CanAccessFeature(client.Plan, plans.FeatureAnalytics) {
		return nil
	}

	ev := &domain.AnalyticsEvent{
		ProfileID: prof.ID,
		Type:      req.Type,
		ButtonID:  strings.TrimSpace(req.ButtonID),
		ItemID:    strings.TrimSpace(req.ItemID),
		Label:     truncate(strings.TrimSpace(req.Label), maxLabelLength),
		URL:       strings.TrimSpace(req.URL),
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Report returns the events of the last days with their labels resolved
// against the current content of the profile.
func (s *AnalyticsService) Report(ctx context.Context, p domain.Principal, profileID string, days int) (*domain.AnalyticsReport, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Report")
	defer span.End()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}
	if err := plans.Require(o.client.Plan, plans.FeatureAnalytics); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultReportDays
	}
	if days > maxReportDays {
		days = maxReportDays
	}
	since := s.now().AddDate(0, 0, -days)

	evs, err := s.events.ListEvents(ctx, profileID, since)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	agg, err := s.profiles.GetAggregate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	var items []domain.ShowcaseItem
	sc, err := s.showcases.GetShowcaseByProfile(ctx, profileID)
	switch {
	case err == nil:
		items, err = s.showcases.ListItems(ctx, sc.ID)
		if err != nil {
			return nil, fmt.Errorf("list showcase items: %w", err)
		}
	case !isNotFound(err):
		return nil, fmt.Errorf("get showcase: %w", err)
	}

	report := events.Report(profileID, evs, agg, items)
	span.SetAttributes(attribute.Int("events.total", report.Total))
	return report, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
