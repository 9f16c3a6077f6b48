package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/render"
)

// --- Mocks ---

// memStore is an in-memory implementation of every store port. failSync
// makes the named collection sync (buttons, catalog, ...) fail.
type memStore struct {
	mu sync.Mutex
	n  int

	clients    map[string]domain.Client
	profiles   map[string]domain.Profile
	buttons    map[string][]domain.ProfileButton
	catalog    map[string][]domain.CatalogItem
	portfolio  map[string][]domain.PortfolioItem
	videos     map[string][]domain.YoutubeVideoItem
	scheduling map[string][]domain.SchedulingSlot

	showcases map[string]domain.Showcase
	items     map[string]domain.ShowcaseItem
	settings  []domain.ShowcaseSettings

	leads      map[string]domain.Lead
	events     []domain.AnalyticsEvent
	identities map[string]domain.AuthIdentity
	tokens     map[string]domain.AuthRefreshToken

	failSync map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		clients:    map[string]domain.Client{},
		profiles:   map[string]domain.Profile{},
		buttons:    map[string][]domain.ProfileButton{},
		catalog:    map[string][]domain.CatalogItem{},
		portfolio:  map[string][]domain.PortfolioItem{},
		videos:     map[string][]domain.YoutubeVideoItem{},
		scheduling: map[string][]domain.SchedulingSlot{},
		showcases:  map[string]domain.Showcase{},
		items:      map[string]domain.ShowcaseItem{},
		leads:      map[string]domain.Lead{},
		identities: map[string]domain.AuthIdentity{},
		tokens:     map[string]domain.AuthRefreshToken{},
		failSync:   map[string]error{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.n++
	return fmt.Sprintf("%s-%d", prefix, m.n)
}

// seedClient stores a tenant with one profile and returns both.
func (m *memStore) seedClient(plan domain.PlanType, slug string) (domain.Client, domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Client{
		ID:          m.nextID("client"),
		Name:        "Cliente " + slug,
		Slug:        slug,
		Email:       slug + "@example.com",
		Plan:        plan,
		MaxProfiles: plans.GetPlanLimits(plan).MaxProfiles,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.clients[c.ID] = c
	p := domain.Profile{
		ID:             m.nextID("profile"),
		ClientID:       c.ID,
		Slug:           slug,
		ProfileType:    domain.ProfilePersonal,
		DisplayName:    "Perfil " + slug,
		Theme:          domain.DefaultTheme(),
		LayoutTemplate: render.DefaultLayout,
	}
	m.profiles[p.ID] = p
	return c, p
}

func notFound(resource, id string) error {
	return &domain.ErrNotFound{Resource: resource, ID: id}
}

// --- ClientStore ---

func (m *memStore) ListClients(_ context.Context) ([]domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetClient(_ context.Context, id string) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, notFound("client", id)
	}
	return &c, nil
}

func (m *memStore) GetClientBySlug(_ context.Context, slug string) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, notFound("client", slug)
}

func (m *memStore) CreateClient(_ context.Context, c *domain.Client) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *c
	out.ID = m.nextID("client")
	out.CreatedAt = time.Now()
	m.clients[out.ID] = out
	return &out, nil
}

func (m *memStore) UpdateClient(_ context.Context, id string, fields map[string]any) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, notFound("client", id)
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "email":
			c.Email = v.(string)
		case "slug":
			c.Slug = v.(string)
		case "plan":
			c.Plan = domain.PlanType(fmt.Sprint(v))
		case "max_profiles":
			c.MaxProfiles = v.(int)
		case "is_active":
			c.IsActive = v.(bool)
		}
	}
	m.clients[id] = c
	return &c, nil
}

func (m *memStore) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, id)
	for pid, p := range m.profiles {
		if p.ClientID == id {
			delete(m.profiles, pid)
		}
	}
	return nil
}

// --- ProfileStore ---

func (m *memStore) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProfiles(func(domain.Profile) bool { return true }), nil
}

func (m *memStore) ListProfilesByClient(_ context.Context, clientID string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProfiles(func(p domain.Profile) bool { return p.ClientID == clientID }), nil
}

func (m *memStore) ListCommunity(_ context.Context, segment, city string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProfiles(func(p domain.Profile) bool {
		return p.CommunityEnabled &&
			(segment == "" || p.Segment == segment) &&
			(city == "" || p.City == city)
	}), nil
}

func (m *memStore) filterProfiles(keep func(domain.Profile) bool) []domain.Profile {
	out := []domain.Profile{}
	for _, p := range m.profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	return &p, nil
}

func (m *memStore) GetProfileBySlug(_ context.Context, slug string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, notFound("profile", slug)
}

func (m *memStore) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *p
	out.ID = m.nextID("profile")
	m.profiles[out.ID] = out
	return &out, nil
}

func (m *memStore) UpsertProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = *p
	out := *p
	return &out, nil
}

func (m *memStore) DeleteProfile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *memStore) GetAggregate(_ context.Context, id string) (*domain.ProfileAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	return &domain.ProfileAggregate{
		Profile:         p,
		Buttons:         append([]domain.ProfileButton{}, m.buttons[id]...),
		CatalogItems:    append([]domain.CatalogItem{}, m.catalog[id]...),
		PortfolioItems:  append([]domain.PortfolioItem{}, m.portfolio[id]...),
		YoutubeVideos:   append([]domain.YoutubeVideoItem{}, m.videos[id]...),
		SchedulingSlots: append([]domain.SchedulingSlot{}, m.scheduling[id]...),
	}, nil
}

func (m *memStore) sync(name string, store func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSync[name]; err != nil {
		return err
	}
	store()
	return nil
}

func (m *memStore) SyncButtons(_ context.Context, id string, rows []domain.ProfileButton) error {
	return m.sync("buttons", func() { m.buttons[id] = rows })
}

func (m *memStore) SyncCatalog(_ context.Context, id string, rows []domain.CatalogItem) error {
	return m.sync("catalog", func() { m.catalog[id] = rows })
}

func (m *memStore) SyncPortfolio(_ context.Context, id string, rows []domain.PortfolioItem) error {
	return m.sync("portfolio", func() { m.portfolio[id] = rows })
}

func (m *memStore) SyncVideos(_ context.Context, id string, rows []domain.YoutubeVideoItem) error {
	return m.sync("videos", func() { m.videos[id] = rows })
}

func (m *memStore) SyncScheduling(_ context.Context, id string, rows []domain.SchedulingSlot) error {
	return m.sync("scheduling", func() { m.scheduling[id] = rows })
}

// --- ShowcaseStore ---

func (m *memStore) GetShowcaseByProfile(_ context.Context, profileID string) (*domain.Showcase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.showcases {
		if s.ProfileID == profileID {
			return &s, nil
		}
	}
	return nil, notFound("showcase", profileID)
}

func (m *memStore) CreateShowcase(_ context.Context, s *domain.Showcase) (*domain.Showcase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *s
	out.ID = m.nextID("showcase")
	m.showcases[out.ID] = out
	return &out, nil
}

func (m *memStore) UpdateSettings(_ context.Context, showcaseID string, st domain.ShowcaseSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.showcases[showcaseID]
	if !ok {
		return notFound("showcase", showcaseID)
	}
	s.ApplySettings(st)
	m.showcases[showcaseID] = s
	m.settings = append(m.settings, st)
	return nil
}

func (m *memStore) ListItems(_ context.Context, showcaseID string) ([]domain.ShowcaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ShowcaseItem{}
	for _, it := range m.items {
		if it.ShowcaseID == showcaseID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *memStore) GetItem(_ context.Context, itemID string) (*domain.ShowcaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, notFound("showcase item", itemID)
	}
	return it.Clone(), nil
}

func (m *memStore) CreateItem(_ context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *item.Clone()
	if out.ID == "" {
		out.ID = m.nextID("item")
	}
	m.items[out.ID] = out
	return out.Clone(), nil
}

func (m *memStore) SaveItem(_ context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = *item.Clone()
	return item.Clone(), nil
}

func (m *memStore) DeleteItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, itemID)
	return nil
}

func (m *memStore) ReorderItems(_ context.Context, items []domain.ShowcaseItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		stored := m.items[it.ID]
		stored.SortOrder = it.SortOrder
		m.items[it.ID] = stored
	}
	return nil
}

// --- LeadStore ---

func (m *memStore) CreateLead(_ context.Context, l *domain.Lead) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *l
	if out.ID == "" {
		out.ID = m.nextID("lead")
	}
	m.leads[out.ID] = out
	return &out, nil
}

func (m *memStore) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, notFound("lead", id)
	}
	return &l, nil
}

func (m *memStore) ListLeads(_ context.Context, clientID, profileID, kind string) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Lead{}
	for _, l := range m.leads {
		if l.ClientID != clientID ||
			(profileID != "" && l.ProfileID != profileID) ||
			(kind != "" && l.Kind != kind) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateLeadStatus(_ context.Context, l *domain.Lead) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[l.ID] = *l
	out := *l
	return &out, nil
}

// --- AnalyticsStore ---

func (m *memStore) InsertEvent(_ context.Context, ev *domain.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *memStore) ListEvents(_ context.Context, profileID string, since time.Time) ([]domain.AnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AnalyticsEvent{}
	for _, ev := range m.events {
		if ev.ProfileID == profileID && !ev.CreatedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// --- AuthStore ---

func (m *memStore) CreateIdentity(_ context.Context, id *domain.AuthIdentity) (*domain.AuthIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *id
	out.ID = m.nextID("identity")
	m.identities[out.ID] = out
	return &out, nil
}

func (m *memStore) GetIdentityByEmail(_ context.Context, email string) (*domain.AuthIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.Email == email {
			return &id, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetIdentityByID(_ context.Context, id string) (*domain.AuthIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[id]
	if !ok {
		return nil, nil
	}
	return &ident, nil
}

func (m *memStore) StoreRefreshToken(_ context.Context, identityID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = domain.AuthRefreshToken{ID: m.nextID("token"), IdentityID: identityID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

// GetRefreshToken only returns tokens that were not revoked.
func (m *memStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		now := time.Now()
		t.RevokedAt = &now
		m.tokens[tokenHash] = t
	}
	return nil
}

func (m *memStore) RevokeAllRefreshTokens(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for h, t := range m.tokens {
		if t.IdentityID == identityID && t.RevokedAt == nil {
			t.RevokedAt = &now
			m.tokens[h] = t
		}
	}
	return nil
}

// --- Sessions ---

type sessionSpy struct{ cleared []string }

func (s *sessionSpy) Clear(userID string) { s.cleared = append(s.cleared, userID) }

func principalFor(c domain.Client) domain.Principal {
	return domain.Principal{IdentityID: "identity-" + c.ID, Role: domain.RoleClient, ClientID: c.ID}
}
