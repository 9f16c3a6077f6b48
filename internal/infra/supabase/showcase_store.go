package supabase

import (
	"context"
	"net/url"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// ShowcaseStore: vitrine settings and items
// ============================================================

func (c *Client) GetShowcaseByProfile(ctx context.Context, profileID string) (*domain.Showcase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetShowcaseByProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	var rows []showcaseRow
	path := query("showcases", url.Values{"profile_id": {eq(profileID)}, "limit": {"1"}})
	if err := c.get(ctx, "showcases", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "showcase", ID: profileID}
	}
	s := rows[0].toDomain()
	return &s, nil
}

func (c *Client) CreateShowcase(ctx context.Context, s *domain.Showcase) (*domain.Showcase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateShowcase")
	defer span.End()

	ids := s.HeaderButtonIDs
	if ids == nil {
		ids = []string{}
	}
	row := showcaseRow{
		ID:              s.ID,
		ProfileID:       s.ProfileID,
		ButtonColor:     s.ButtonColor,
		GradientEnabled: s.GradientEnabled,
		SecondaryColor:  s.SecondaryColor,
		ItemTemplate:    s.ItemTemplate,
		HeaderTemplate:  s.HeaderTemplate,
		HeaderButtonIDs: ids,
	}
	if err := c.insert(ctx, "showcases", "showcases", row, nil); err != nil {
		return nil, err
	}
	return c.GetShowcaseByProfile(ctx, s.ProfileID)
}

// UpdateSettings writes the autosaved settings of a showcase.
func (c *Client) UpdateSettings(ctx context.Context, showcaseID string, s domain.ShowcaseSettings) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateShowcaseSettings")
	defer span.End()
	span.SetAttributes(attribute.String("showcase.id", showcaseID))

	ids := s.HeaderButtonIDs
	if ids == nil {
		ids = []string{}
	}
	row := settingsRow{
		ButtonColor:     s.ButtonColor,
		GradientEnabled: s.GradientEnabled,
		SecondaryColor:  s.SecondaryColor,
		ItemTemplate:    s.ItemTemplate,
		HeaderTemplate:  s.HeaderTemplate,
		HeaderButtonIDs: ids,
		UpdatedAt:       time.Now().UTC(),
	}
	return c.patch(ctx, "showcases", query("showcases", url.Values{"id": {eq(showcaseID)}}), row)
}

// ListItems returns the items of a showcase with their images, options and
// testimonials attached, ordered by sort_order.
func (c *Client) ListItems(ctx context.Context, showcaseID string) ([]domain.ShowcaseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListShowcaseItems")
	defer span.End()
	span.SetAttributes(attribute.String("showcase.id", showcaseID))

	var rows []itemRow
	path := query("showcase_items", url.Values{"showcase_id": {eq(showcaseID)}, "order": {"sort_order.asc"}})
	if err := c.get(ctx, "showcase_items", path, &rows); err != nil {
		return nil, err
	}
	return c.attachChildren(ctx, rows)
}

func (c *Client) GetItem(ctx context.Context, itemID string) (*domain.ShowcaseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetShowcaseItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	var rows []itemRow
	path := query("showcase_items", url.Values{"id": {eq(itemID)}, "limit": {"1"}})
	if err := c.get(ctx, "showcase_items", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "showcase item", ID: itemID}
	}
	items, err := c.attachChildren(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (c *Client) attachChildren(ctx context.Context, rows []itemRow) ([]domain.ShowcaseItem, error) {
	items := make([]domain.ShowcaseItem, len(rows))
	if len(rows) == 0 {
		return items, nil
	}
	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		items[i] = r.toDomain()
		index[r.ID] = i
		ids[i] = r.ID
	}

	var (
		images       []imageRow
		options      []optionRow
		testimonials []testimonialRow
	)
	filter := url.Values{"item_id": {"in." + inList(ids)}, "order": {"sort_order.asc"}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "showcase_item_images", query("showcase_item_images", filter), &images)
	})
	g.Go(func() error {
		return c.get(gctx, "showcase_item_options", query("showcase_item_options", filter), &options)
	})
	g.Go(func() error {
		return c.get(gctx, "showcase_item_testimonials", query("showcase_item_testimonials", filter), &testimonials)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range images {
		if i, ok := index[r.ItemID]; ok {
			items[i].Images = append(items[i].Images, domain.ShowcaseImage{ID: r.ID, ItemID: r.ItemID, URL: r.URL, SortOrder: r.SortOrder})
		}
	}
	for _, r := range options {
		if i, ok := index[r.ItemID]; ok {
			items[i].Options = append(items[i].Options, domain.ShowcaseOption{
				ID: r.ID, ItemID: r.ItemID, Label: r.Label, Price: r.Price, LinkURL: r.LinkURL, SortOrder: r.SortOrder,
			})
		}
	}
	for _, r := range testimonials {
		if i, ok := index[r.ItemID]; ok {
			items[i].Testimonials = append(items[i].Testimonials, domain.ShowcaseTestimonial{
				ID: r.ID, ItemID: r.ItemID, Name: r.Name, Text: r.Text, AvatarURL: r.AvatarURL,
				ImageURL: r.ImageURL, VideoURL: r.VideoURL, SortOrder: r.SortOrder,
			})
		}
	}
	return items, nil
}

func (c *Client) CreateItem(ctx context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateShowcaseItem")
	defer span.End()
	span.SetAttributes(attribute.String("showcase.id", item.ShowcaseID))

	if err := c.insert(ctx, "showcase_items", "showcase_items", itemToRow(item), nil); err != nil {
		return nil, err
	}
	if err := c.replaceChildren(ctx, item); err != nil {
		return nil, err
	}
	return c.GetItem(ctx, item.ID)
}

// SaveItem writes the item root and fully replaces its images, options and
// testimonials, then returns the re-read item.
func (c *Client) SaveItem(ctx context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveShowcaseItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", item.ID))

	if err := c.upsert(ctx, "showcase_items", "showcase_items", []itemRow{itemToRow(item)}); err != nil {
		return nil, err
	}
	if err := c.replaceChildren(ctx, item); err != nil {
		return nil, err
	}
	return c.GetItem(ctx, item.ID)
}

func (c *Client) replaceChildren(ctx context.Context, item *domain.ShowcaseItem) error {
	byItem := query("", url.Values{"item_id": {eq(item.ID)}})

	images := make([]imageRow, len(item.Images))
	for i, im := range item.Images {
		images[i] = imageRow{ID: im.ID, ItemID: item.ID, URL: im.URL, SortOrder: im.SortOrder}
	}
	options := make([]optionRow, len(item.Options))
	for i, o := range item.Options {
		options[i] = optionRow{ID: o.ID, ItemID: item.ID, Label: o.Label, Price: o.Price, LinkURL: o.LinkURL, SortOrder: o.SortOrder}
	}
	testimonials := make([]testimonialRow, len(item.Testimonials))
	for i, t := range item.Testimonials {
		testimonials[i] = testimonialRow{
			ID: t.ID, ItemID: item.ID, Name: t.Name, Text: t.Text, AvatarURL: t.AvatarURL,
			ImageURL: t.ImageURL, VideoURL: t.VideoURL, SortOrder: t.SortOrder,
		}
	}

	steps := []struct {
		table string
		rows  any
		n     int
	}{
		{"showcase_item_images", images, len(images)},
		{"showcase_item_options", options, len(options)},
		{"showcase_item_testimonials", testimonials, len(testimonials)},
	}
	for _, s := range steps {
		if err := c.remove(ctx, s.table, s.table+byItem); err != nil {
			return err
		}
		if s.n == 0 {
			continue
		}
		if err := c.insert(ctx, s.table, s.table, s.rows, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteShowcaseItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	return c.remove(ctx, "showcase_items", query("showcase_items", url.Values{"id": {eq(itemID)}}))
}

// ReorderItems persists the sort_order of each item.
func (c *Client) ReorderItems(ctx context.Context, items []domain.ShowcaseItem) error {
	ctx, span := tracer.Start(ctx, "Supabase.ReorderShowcaseItems")
	defer span.End()

	for _, it := range items {
		path := query("showcase_items", url.Values{"id": {eq(it.ID)}})
		if err := c.patch(ctx, "showcase_items", path, map[string]any{"sort_order": it.SortOrder}); err != nil {
			return err
		}
	}
	return nil
}
