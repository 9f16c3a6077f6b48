package supabase

import (
	"context"
	"net/url"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// LeadStore: leads and NPS answers
// ============================================================

func (c *Client) CreateLead(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLead")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", l.ProfileID), attribute.String("lead.kind", l.Kind))

	if err := c.insert(ctx, "leads", "leads", leadToRow(l), nil); err != nil {
		return nil, err
	}
	return c.GetLead(ctx, l.ID)
}

func (c *Client) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	var rows []leadRow
	if err := c.get(ctx, "leads", query("leads", url.Values{"id": {eq(id)}, "limit": {"1"}}), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}
	l := rows[0].toDomain()
	return &l, nil
}

// ListLeads returns the client's leads, newest first. Empty profileID or
// kind means no filter.
func (c *Client) ListLeads(ctx context.Context, clientID, profileID, kind string) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	filter := url.Values{"client_id": {eq(clientID)}, "order": {"created_at.desc"}}
	if profileID != "" {
		filter.Set("profile_id", eq(profileID))
	}
	if kind != "" {
		filter.Set("kind", eq(kind))
	}

	var rows []leadRow
	if err := c.get(ctx, "leads", query("leads", filter), &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// UpdateLeadStatus writes status and history, then re-reads the lead.
func (c *Client) UpdateLeadStatus(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLeadStatus")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", l.ID))

	row := leadToRow(l)
	fields := map[string]any{"status": row.Status, "history": row.History}
	if err := c.patch(ctx, "leads", query("leads", url.Values{"id": {eq(l.ID)}}), fields); err != nil {
		return nil, err
	}
	return c.GetLead(ctx, l.ID)
}
