package supabase

import (
	"context"
	"net/url"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// ProfileStore: profile roots and their child collections
// ============================================================

func (c *Client) listProfiles(ctx context.Context, filter url.Values) ([]domain.Profile, error) {
	if filter == nil {
		filter = url.Values{}
	}
	filter.Set("select", "*")
	if filter.Get("order") == "" {
		filter.Set("order", "created_at.asc")
	}

	var rows []profileRow
	if err := c.get(ctx, "profiles", query("profiles", filter), &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfiles")
	defer span.End()

	return c.listProfiles(ctx, nil)
}

func (c *Client) ListProfilesByClient(ctx context.Context, clientID string) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfilesByClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	return c.listProfiles(ctx, url.Values{"client_id": {eq(clientID)}})
}

// ListCommunity returns profiles opted into the community listing, optionally
// narrowed by segment and a case-insensitive city match.
func (c *Client) ListCommunity(ctx context.Context, segment, city string) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCommunity")
	defer span.End()

	filter := url.Values{
		"community_enabled": {"eq.true"},
		"order":             {"updated_at.desc"},
	}
	if segment != "" {
		filter.Set("segment", eq(segment))
	}
	if city = strings.TrimSpace(city); city != "" {
		filter.Set("city", "ilike.*"+city+"*")
	}
	return c.listProfiles(ctx, filter)
}

func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	return c.oneProfile(ctx, url.Values{"id": {eq(id)}}, id)
}

func (c *Client) GetProfileBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("profile.slug", slug))

	return c.oneProfile(ctx, url.Values{"slug": {eq(slug)}}, slug)
}

func (c *Client) oneProfile(ctx context.Context, filter url.Values, key string) (*domain.Profile, error) {
	filter.Set("limit", "1")
	ps, err := c.listProfiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: key}
	}
	return &ps[0], nil
}

func (c *Client) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	if err := c.insert(ctx, "profiles", "profiles", profileToRow(p), nil); err != nil {
		return nil, err
	}
	return c.GetProfile(ctx, p.ID)
}

// UpsertProfile writes the root record and returns it as re-read from the
// database.
func (c *Client) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", p.ID))

	if err := c.upsert(ctx, "profiles", "profiles", []profileRow{profileToRow(p)}); err != nil {
		return nil, err
	}
	return c.GetProfile(ctx, p.ID)
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	return c.remove(ctx, "profiles", query("profiles", url.Values{"id": {eq(id)}}))
}

// GetAggregate loads the root and every child collection, ordered by
// sort_order. The collections are fetched concurrently.
func (c *Client) GetAggregate(ctx context.Context, id string) (*domain.ProfileAggregate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAggregate")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	p, err := c.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	agg := &domain.ProfileAggregate{Profile: *p}

	var (
		buttons   []buttonRow
		catalog   []catalogRow
		portfolio []portfolioRow
		videos    []videoRow
		slots     []slotRow
	)
	children := url.Values{"profile_id": {eq(id)}, "order": {"sort_order.asc"}}
	path := func(table string) string { return query(table, children) }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "profile_buttons", path("profile_buttons"), &buttons) })
	g.Go(func() error { return c.get(gctx, "catalog_items", path("catalog_items"), &catalog) })
	g.Go(func() error { return c.get(gctx, "portfolio_items", path("portfolio_items"), &portfolio) })
	g.Go(func() error { return c.get(gctx, "youtube_videos", path("youtube_videos"), &videos) })
	g.Go(func() error { return c.get(gctx, "scheduling_slots", path("scheduling_slots"), &slots) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg.Buttons = mapRows(buttons, buttonRow.toDomain)
	agg.CatalogItems = mapRows(catalog, catalogRow.toDomain)
	agg.PortfolioItems = mapRows(portfolio, portfolioRow.toDomain)
	agg.YoutubeVideos = mapRows(videos, videoRow.toDomain)
	agg.SchedulingSlots = mapRows(slots, slotRow.toDomain)
	return agg, nil
}

func mapRows[R, D any](rows []R, fn func(R) D) []D {
	out := make([]D, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}

func (c *Client) SyncButtons(ctx context.Context, profileID string, rows []domain.ProfileButton) error {
	return syncCollection(ctx, c, "profile_buttons", profileID, rows,
		func(b domain.ProfileButton) string { return b.ID },
		func(b domain.ProfileButton) any { return buttonToRow(profileID, b) })
}

func (c *Client) SyncCatalog(ctx context.Context, profileID string, rows []domain.CatalogItem) error {
	return syncCollection(ctx, c, "catalog_items", profileID, rows,
		func(i domain.CatalogItem) string { return i.ID },
		func(i domain.CatalogItem) any { return catalogToRow(profileID, i) })
}

func (c *Client) SyncPortfolio(ctx context.Context, profileID string, rows []domain.PortfolioItem) error {
	return syncCollection(ctx, c, "portfolio_items", profileID, rows,
		func(i domain.PortfolioItem) string { return i.ID },
		func(i domain.PortfolioItem) any { return portfolioToRow(profileID, i) })
}

func (c *Client) SyncVideos(ctx context.Context, profileID string, rows []domain.YoutubeVideoItem) error {
	return syncCollection(ctx, c, "youtube_videos", profileID, rows,
		func(v domain.YoutubeVideoItem) string { return v.ID },
		func(v domain.YoutubeVideoItem) any { return videoToRow(profileID, v) })
}

func (c *Client) SyncScheduling(ctx context.Context, profileID string, rows []domain.SchedulingSlot) error {
	return syncCollection(ctx, c, "scheduling_slots", profileID, rows,
		func(s domain.SchedulingSlot) string { return s.ID },
		func(s domain.SchedulingSlot) any { return slotToRow(profileID, s) })
}

// syncCollection makes the table's rows for profileID equal to items: upsert
// by id, then delete every row of the profile whose id is no longer present.
func syncCollection[T any](ctx context.Context, c *Client, table, profileID string, items []T, id func(T) string, toRow func(T) any) error {
	ctx, span := tracer.Start(ctx, "Supabase.Sync."+table)
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.id", profileID),
		attribute.Int("rows", len(items)),
	)

	ids := make([]string, 0, len(items))
	rows := make([]any, 0, len(items))
	for _, it := range items {
		ids = append(ids, id(it))
		rows = append(rows, toRow(it))
	}

	if len(rows) > 0 {
		if err := c.upsert(ctx, table, table, rows); err != nil {
			return err
		}
	}

	tombstones := url.Values{"profile_id": {eq(profileID)}}
	if len(ids) > 0 {
		tombstones.Set("id", "not.in."+inList(ids))
	}
	return c.remove(ctx, table, query(table, tombstones))
}
