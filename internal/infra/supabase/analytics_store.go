package supabase

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// AnalyticsStore: interaction events recorded by public pages
// ============================================================

// maxEvents bounds a single analytics read.
const maxEvents = 5000

func (c *Client) InsertEvent(ctx context.Context, ev *domain.AnalyticsEvent) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.id", ev.ProfileID),
		attribute.String("event.type", ev.Type),
	)

	row := eventRow{
		ID:        ev.ID,
		ProfileID: ev.ProfileID,
		Type:      ev.Type,
		ButtonID:  ev.ButtonID,
		ItemID:    ev.ItemID,
		Label:     ev.Label,
		URL:       ev.URL,
		CreatedAt: ev.CreatedAt.UTC(),
	}
	return c.insert(ctx, "analytics_events", "analytics_events", row, nil)
}

// ListEvents returns the profile's events since the given instant, newest
// first.
func (c *Client) ListEvents(ctx context.Context, profileID string, since time.Time) ([]domain.AnalyticsEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEvents")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	filter := url.Values{
		"profile_id": {eq(profileID)},
		"order":      {"created_at.desc"},
		"limit":      {strconv.Itoa(maxEvents)},
	}
	if !since.IsZero() {
		filter.Set("created_at", "gte."+since.UTC().Format(time.RFC3339))
	}

	var rows []eventRow
	if err := c.get(ctx, "analytics_events", query("analytics_events", filter), &rows); err != nil {
		return nil, err
	}
	out := make([]domain.AnalyticsEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AnalyticsEvent{
			ID:        r.ID,
			ProfileID: r.ProfileID,
			Type:      r.Type,
			ButtonID:  r.ButtonID,
			ItemID:    r.ItemID,
			Label:     r.Label,
			URL:       r.URL,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
