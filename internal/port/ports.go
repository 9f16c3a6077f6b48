// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

// PageCache stores rendered public pages, keyed by slug and variant.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
}

// MediaStorage uploads objects to the public bucket.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (publicURL string, err error)
	Delete(ctx context.Context, key string) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientStore persists tenant accounts. Writes follow a write-then-confirm
// contract: the returned record is always re-read after the write.
type ClientStore interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	GetClientBySlug(ctx context.Context, slug string) (*domain.Client, error)
	CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error)
	UpdateClient(ctx context.Context, id string, fields map[string]any) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// ProfileStore persists profiles and their child collections. Each Sync
// call upserts the given rows and deletes rows of the profile whose ids are
// no longer present.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	ListProfilesByClient(ctx context.Context, clientID string) ([]domain.Profile, error)
	ListCommunity(ctx context.Context, segment, city string) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	GetProfileBySlug(ctx context.Context, slug string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	GetAggregate(ctx context.Context, id string) (*domain.ProfileAggregate, error)
	SyncButtons(ctx context.Context, profileID string, rows []domain.ProfileButton) error
	SyncCatalog(ctx context.Context, profileID string, rows []domain.CatalogItem) error
	SyncPortfolio(ctx context.Context, profileID string, rows []domain.PortfolioItem) error
	SyncVideos(ctx context.Context, profileID string, rows []domain.YoutubeVideoItem) error
	SyncScheduling(ctx context.Context, profileID string, rows []domain.SchedulingSlot) error
}

// ShowcaseStore persists showcases and their items.
type ShowcaseStore interface {
	GetShowcaseByProfile(ctx context.Context, profileID string) (*domain.Showcase, error)
	CreateShowcase(ctx context.Context, s *domain.Showcase) (*domain.Showcase, error)
	UpdateSettings(ctx context.Context, showcaseID string, s domain.ShowcaseSettings) error

	ListItems(ctx context.Context, showcaseID string) ([]domain.ShowcaseItem, error)
	GetItem(ctx context.Context, itemID string) (*domain.ShowcaseItem, error)
	CreateItem(ctx context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error)
	SaveItem(ctx context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	ReorderItems(ctx context.Context, items []domain.ShowcaseItem) error
}

// LeadStore persists leads and NPS answers.
type LeadStore interface {
	CreateLead(ctx context.Context, l *domain.Lead) (*domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	ListLeads(ctx context.Context, clientID, profileID, kind string) ([]domain.Lead, error)
	UpdateLeadStatus(ctx context.Context, l *domain.Lead) (*domain.Lead, error)
}

// AnalyticsStore persists interaction events.
type AnalyticsStore interface {
	InsertEvent(ctx context.Context, ev *domain.AnalyticsEvent) error
	ListEvents(ctx context.Context, profileID string, since time.Time) ([]domain.AnalyticsEvent, error)
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	CreateIdentity(ctx context.Context, id *domain.AuthIdentity) (*domain.AuthIdentity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error)
	GetIdentityByID(ctx context.Context, id string) (*domain.AuthIdentity, error)

	StoreRefreshToken(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, identityID string) error
}
