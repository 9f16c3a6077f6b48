package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/render"
	"github.com/boddenberg/linkbio-api-go/internal/slug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profiles")

// ProfileService manages the lifecycle of profiles: listing, creation
// within the tenant's quota, deletion and the public community listing.
// Editing goes through DraftService.
type ProfileService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	pages    port.PageCache
	logger   *zap.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(clients port.ClientStore, profiles port.ProfileStore, pages port.PageCache, logger *zap.Logger) *ProfileService {
	return &ProfileService{clients: clients, profiles: profiles, pages: pages, logger: logger}
}

// List returns the caller's profiles.
func (s *ProfileService) List(ctx context.Context, p domain.Principal) ([]domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.List")
	defer span.End()

	clientID, err := requireClient(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListProfilesByClient(ctx, clientID)
}

// Create adds a profile for the caller. The slug defaults to one derived
// from the display name.
func (s *ProfileService) Create(ctx context.Context, p domain.Principal, req *domain.CreateProfileRequest) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Create")
	defer span.End()

	clientID, err := requireClient(p)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "displayName", Message: "nome de exibição é obrigatório"}
	}
	handle := strings.TrimSpace(req.Slug)
	if handle == "" {
		handle = slug.Generate(name)
	}
	if !slug.Valid(handle) {
		return nil, &domain.ErrValidation{Field: "slug", Message: "use apenas letras minúsculas, números e hífens"}
	}
	kind := req.ProfileType
	if kind == "" {
		kind = domain.ProfilePersonal
	}
	if kind != domain.ProfilePersonal && kind != domain.ProfileBusiness {
		return nil, &domain.ErrValidation{Field: "profileType", Message: "tipo de perfil inválido"}
	}

	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	existing, err := s.profiles.ListProfilesByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if len(existing) >= client.MaxProfiles {
		return nil, &domain.ErrLimitExceeded{LimitType: "profiles", Limit: client.MaxProfiles, Current: len(existing)}
	}
	if err := ensureProfileSlugFree(ctx, s.profiles, handle, ""); err != nil {
		return nil, err
	}

	created, err := s.profiles.CreateProfile(ctx, &domain.Profile{
		ClientID:       clientID,
		Slug:           handle,
		ProfileType:    kind,
		DisplayName:    name,
		Theme:          domain.DefaultTheme(),
		LayoutTemplate: render.DefaultLayout,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	span.SetAttributes(attribute.String("profile.id", created.ID))
	s.logger.Info("profile created",
		zap.String("client_id", clientID),
		zap.String("profile_id", created.ID),
		zap.String("slug", created.Slug),
	)
	return created, nil
}

// Delete removes a profile and its children.
func (s *ProfileService) Delete(ctx context.Context, p domain.Principal, profileID string) error {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Delete")
	defer span.End()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return err
	}
	if err := s.profiles.DeleteProfile(ctx, profileID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug)

	s.logger.Info("profile deleted",
		zap.String("client_id", o.client.ID),
		zap.String("profile_id", profileID),
	)
	return nil
}

// Community lists the profiles opted into the community directory whose
// tenant is active and still entitled to the feature.
func (s *ProfileService) Community(ctx context.Context, segment, city string) ([]domain.CommunityListing, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Community")
	defer span.End()

	profiles, err := s.profiles.ListCommunity(ctx, strings.TrimSpace(segment), strings.TrimSpace(city))
	if err != nil {
		return nil, fmt.Errorf("list community: %w", err)
	}

	eligible := map[string]bool{}
	out := make([]domain.CommunityListing, 0, len(profiles))
	for _, p := range profiles {
		ok, seen := eligible[p.ClientID]
		if !seen {
			client, err := s.clients.GetClient(ctx, p.ClientID)
			switch {
			case err == nil:
				ok = client.IsActive && plans.CanAccessFeature(client.Plan, plans.FeatureCommunity)
			case isNotFound(err):
				ok = false
			default:
				return nil, fmt.Errorf("get client: %w", err)
			}
			eligible[p.ClientID] = ok
		}
		if !ok {
			continue
		}
		out = append(out, domain.CommunityListing{
			Slug:        p.Slug,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Segment:     p.Segment,
			City:        p.City,
			State:       p.State,
			Punchline:   p.Punchline,
			Promotion:   p.Promotion,
		})
	}
	span.SetAttributes(attribute.Int("community.count", len(out)))
	return out, nil
}
