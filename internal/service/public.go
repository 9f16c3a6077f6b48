package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/render"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var publicTracer = otel.Tracer("service/public")

// PublicService renders the public pages of a profile, in HTML and JSON,
// through the page cache.
type PublicService struct {
	clients   port.ClientStore
	profiles  port.ProfileStore
	showcases port.ShowcaseStore
	pages     port.PageCache
	html      *render.HTML
	metrics   *observability.Metrics
	baseURL   string
	logger    *zap.Logger
}

// NewPublicService creates a new public page service.
func NewPublicService(clients port.ClientStore, profiles port.ProfileStore, showcases port.ShowcaseStore, pages port.PageCache, html *render.HTML, metrics *observability.Metrics, baseURL string, logger *zap.Logger) *PublicService {
	return &PublicService{
		clients:   clients,
		profiles:  profiles,
		showcases: showcases,
		pages:     pages,
		html:      html,
		metrics:   metrics,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Page returns one rendered variant (see cache.Variant*) of a slug. Pages of
// disabled tenants are not found.
func (s *PublicService) Page(ctx context.Context, slug, variant string) ([]byte, error) {
	ctx, span := publicTracer.Start(ctx, "PublicService.Page")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.slug", slug),
		attribute.String("page.variant", variant),
	)

	key := cache.PageKey(slug, variant)
	if body, ok := s.pages.Get(ctx, key); ok {
		s.metrics.IncrCacheHit("page")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return body, nil
	}
	s.metrics.IncrCacheMiss("page")

	body, err := s.build(ctx, slug, variant)
	if err != nil {
		return nil, err
	}
	s.pages.Set(ctx, key, body)
	return body, nil
}

func (s *PublicService) build(ctx context.Context, slug, variant string) ([]byte, error) {
	prof, client, err := publicProfile(ctx, s.clients, s.profiles, slug)
	if err != nil {
		return nil, err
	}
	agg, err := s.profiles.GetAggregate(ctx, prof.ID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	sc, err := s.showcaseView(ctx, client.Plan, prof.ID)
	if err != nil {
		return nil, err
	}
	opts := render.Options{Plan: client.Plan, BaseURL: s.baseURL}

	var buf bytes.Buffer
	switch variant {
	case cache.VariantHTML:
		err = s.html.Profile(&buf, render.RenderProfile(agg, sc, opts))
	case cache.VariantJSON:
		err = json.NewEncoder(&buf).Encode(render.RenderProfile(agg, sc, opts))
	case cache.VariantShowcaseHTML, cache.VariantShowcaseJSON:
		if sc == nil {
			return nil, &domain.ErrNotFound{Resource: "showcase", ID: slug}
		}
		page := render.RenderShowcase(agg, sc, opts)
		if variant == cache.VariantShowcaseHTML {
			err = s.html.Showcase(&buf, page)
		} else {
			err = json.NewEncoder(&buf).Encode(page)
		}
	default:
		return nil, &domain.ErrValidation{Field: "variant", Message: "unknown page variant"}
	}
	if err != nil {
		s.logger.Error("page render failed",
			zap.String("slug", slug),
			zap.String("variant", variant),
			zap.Error(err),
		)
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// showcaseView loads the vitrine of a profile when the plan includes it.
// A missing showcase is reported as nil.
func (s *PublicService) showcaseView(ctx context.Context, plan domain.PlanType, profileID string) (*domain.ShowcaseView, error) {
	if !plans.CanAccessFeature(plan, plans.FeatureShowcase) {
		return nil, nil
	}
	sc, err := s.showcases.GetShowcaseByProfile(ctx, profileID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get showcase: %w", err)
	}
	items, err := s.showcases.ListItems(ctx, sc.ID)
	if err != nil {
		return nil, fmt.Errorf("list showcase items: %w", err)
	}
	return &domain.ShowcaseView{Showcase: *sc, Items: items}, nil
}
