package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/port"

	"go.uber.org/zap"
)

// owned is a profile together with the tenant that owns it.
type owned struct {
	profile *domain.Profile
	client  *domain.Client
}

// loadOwned fetches a profile and its client and checks that p may act on
// it. Admins may act on any profile.
func loadOwned(ctx context.Context, clients port.ClientStore, profiles port.ProfileStore, p domain.Principal, profileID string) (*owned, error) {
	prof, err := profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !p.IsAdmin() && prof.ClientID != p.ClientID {
		return nil, &domain.ErrForbidden{Action: "acessar este perfil"}
	}
	client, err := clients.GetClient(ctx, prof.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &owned{profile: prof, client: client}, nil
}

// requireClient returns the tenant id of a client principal.
func requireClient(p domain.Principal) (string, error) {
	if p.ClientID == "" {
		return "", &domain.ErrForbidden{Action: "operação exclusiva de clientes"}
	}
	return p.ClientID, nil
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}

// ensureClientSlugFree fails with ErrConflict when another client owns slug.
func ensureClientSlugFree(ctx context.Context, clients port.ClientStore, slug, selfID string) error {
	other, err := clients.GetClientBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("check client slug: %w", err)
	}
	if other.ID != selfID {
		return &domain.ErrConflict{Message: "Slug já está em uso"}
	}
	return nil
}

// ensureProfileSlugFree fails with ErrConflict when another profile owns slug.
func ensureProfileSlugFree(ctx context.Context, profiles port.ProfileStore, slug, selfID string) error {
	other, err := profiles.GetProfileBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("check profile slug: %w", err)
	}
	if other.ID != selfID {
		return &domain.ErrConflict{Message: "Slug já está em uso"}
	}
	return nil
}

// invalidatePages drops every cached rendering of the given slugs.
func invalidatePages(ctx context.Context, pages port.PageCache, logger *zap.Logger, slugs ...string) {
	if pages == nil {
		return
	}
	var keys []string
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		keys = append(keys, cache.SlugKeys(s)...)
	}
	if len(keys) == 0 {
		return
	}
	pages.Delete(ctx, keys...)
	logger.Debug("page cache invalidated", zap.Strings("slugs", slugs))
}

// publicProfile resolves a slug to a profile of an active tenant. Profiles
// of disabled tenants are reported as not found.
func publicProfile(ctx context.Context, clients port.ClientStore, profiles port.ProfileStore, slug string) (*domain.Profile, *domain.Client, error) {
	prof, err := profiles.GetProfileBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	client, err := clients.GetClient(ctx, prof.ClientID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, &domain.ErrNotFound{Resource: "profile", ID: slug}
		}
		return nil, nil, err
	}
	if !client.IsActive {
		return nil, nil, &domain.ErrNotFound{Resource: "profile", ID: slug}
	}
	return prof, client, nil
}
