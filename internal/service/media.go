package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/resilience"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var mediaTracer = otel.Tracer("service/media")

// Media kinds accepted by Upload.
const (
	MediaAvatar   = "avatar"
	MediaCover    = "cover"
	MediaShowcase = "showcase"
)

const jpegQuality = 85

// UploadResult is returned after a successful upload.
type UploadResult struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// MediaService resizes uploaded images and stores them in the public bucket.
type MediaService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	storage  port.MediaStorage
	bulkhead *resilience.Bulkhead
	logger   *zap.Logger
}

// NewMediaService creates a new media service. storage may be nil when no
// bucket is configured; uploads then fail with ErrExternalService.
func NewMediaService(clients port.ClientStore, profiles port.ProfileStore, storage port.MediaStorage, bulkhead *resilience.Bulkhead, logger *zap.Logger) *MediaService {
	return &MediaService{
		clients:  clients,
		profiles: profiles,
		storage:  storage,
		bulkhead: bulkhead,
		logger:   logger,
	}
}

// Upload decodes an image, resizes it for kind, encodes it as JPEG and
// stores it under {clientId}/{profileId}/{kind}-{uuid}.jpg.
func (s *MediaService) Upload(ctx context.Context, p domain.Principal, profileID, kind string, body io.Reader) (*UploadResult, error) {
	ctx, span := mediaTracer.Start(ctx, "MediaService.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.id", profileID),
		attribute.String("media.kind", kind),
	)

	switch kind {
	case MediaAvatar, MediaCover, MediaShowcase:
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "use avatar, cover ou showcase"}
	}
	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}
	if kind == MediaShowcase {
		if err := plans.Require(o.client.Plan, plans.FeatureShowcase); err != nil {
			return nil, err
		}
	}
	if s.storage == nil {
		return nil, &domain.ErrExternalService{Service: "storage", Err: errors.New("storage bucket not configured")}
	}

	var encoded []byte
	err = s.bulkhead.Run(ctx, func() error {
		img, err := imaging.Decode(body, imaging.AutoOrientation(true))
		if err != nil {
			return &domain.ErrValidation{Field: "file", Message: "imagem inválida ou formato não suportado"}
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resizeFor(kind, img), imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
		encoded = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s-%s.jpg", o.client.ID, profileID, kind, uuid.NewString())
	url, err := s.storage.Upload(ctx, key, "image/jpeg", encoded)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	s.logger.Info("media uploaded",
		zap.String("profile_id", profileID),
		zap.String("kind", kind),
		zap.Int("bytes", len(encoded)),
	)
	return &UploadResult{URL: url, Kind: kind}, nil
}

func resizeFor(kind string, img image.Image) image.Image {
	switch kind {
	case MediaAvatar:
		return imaging.Fill(img, 400, 400, imaging.Center, imaging.Lanczos)
	case MediaCover:
		return imaging.Fit(img, 1500, 500, imaging.Lanczos)
	default:
		return imaging.Fit(img, 1080, 1080, imaging.Lanczos)
	}
}
