package service

import (
	"context"
	"image"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/resilience"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/qr"
	"github.com/boddenberg/linkbio-api-go/internal/render"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var qrTracer = otel.Tracer("service/qr")

// LogoFetcher downloads the image placed in the centre of a QR code.
type LogoFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// QRRequest selects what a QR code points at and how it looks.
type QRRequest struct {
	Size     int
	WithLogo bool
	Showcase bool
}

// QRService renders QR codes of public profile addresses.
type QRService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	fetcher  LogoFetcher
	bulkhead *resilience.Bulkhead
	baseURL  string
	logger   *zap.Logger
}

// NewQRService creates a new QR service.
func NewQRService(clients port.ClientStore, profiles port.ProfileStore, fetcher LogoFetcher, bulkhead *resilience.Bulkhead, baseURL string, logger *zap.Logger) *QRService {
	return &QRService{
		clients:  clients,
		profiles: profiles,
		fetcher:  fetcher,
		bulkhead: bulkhead,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Generate returns the PNG of the profile (or vitrine) URL. With a logo the
// avatar is embedded; a logo that cannot be fetched yields
// ErrLogoUnavailable.
func (s *QRService) Generate(ctx context.Context, p domain.Principal, profileID string, req QRRequest) ([]byte, error) {
	ctx, span := qrTracer.Start(ctx, "QRService.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.id", profileID),
		attribute.Bool("qr.logo", req.WithLogo),
	)

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}

	url := render.PublicURL(s.baseURL, o.profile.Slug)
	if req.Showcase {
		if err := plans.Require(o.client.Plan, plans.FeatureShowcase); err != nil {
			return nil, err
		}
		url = render.ShowcaseURL(s.baseURL, o.profile.Slug)
	}

	var logo image.Image
	if req.WithLogo {
		if err := plans.Require(o.client.Plan, plans.FeatureQRLogo); err != nil {
			return nil, err
		}
		logo, err = s.fetcher.Fetch(ctx, o.profile.AvatarURL)
		if err != nil {
			s.logger.Warn("qr logo unavailable",
				zap.String("profile_id", profileID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	var png []byte
	err = s.bulkhead.Run(ctx, func() error {
		var err error
		png, err = qr.Render(url, req.Size, logo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return png, nil
}
