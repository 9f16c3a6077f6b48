package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ClientStore: tenant accounts
// ============================================================

const clientColumns = "id,name,slug,email,plan,max_profiles,is_active,created_at"

func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClients")
	defer span.End()

	var rows []clientRow
	path := query("clients", url.Values{"select": {clientColumns}, "order": {"created_at.desc"}})
	if err := c.get(ctx, "clients", path, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	return c.oneClient(ctx, url.Values{"id": {eq(id)}}, id)
}

func (c *Client) GetClientBySlug(ctx context.Context, slug string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClientBySlug")
	defer span.End()

	return c.oneClient(ctx, url.Values{"slug": {eq(slug)}}, slug)
}

func (c *Client) oneClient(ctx context.Context, filter url.Values, key string) (*domain.Client, error) {
	filter.Set("select", clientColumns)
	filter.Set("limit", "1")

	var rows []clientRow
	if err := c.get(ctx, "clients", query("clients", filter), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "client", ID: key}
	}
	cl := rows[0].toDomain()
	return &cl, nil
}

func (c *Client) CreateClient(ctx context.Context, cl *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateClient")
	defer span.End()

	if err := c.insert(ctx, "clients", "clients", clientToRow(cl), nil); err != nil {
		return nil, err
	}
	return c.GetClient(ctx, cl.ID)
}

// UpdateClient patches the given columns and returns the re-read row.
func (c *Client) UpdateClient(ctx context.Context, id string, fields map[string]any) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	if len(fields) > 0 {
		if err := c.patch(ctx, "clients", query("clients", url.Values{"id": {eq(id)}}), fields); err != nil {
			return nil, err
		}
	}
	return c.GetClient(ctx, id)
}

// DeleteClient removes the tenant. Profiles and their children cascade.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	if _, err := c.GetClient(ctx, id); err != nil {
		return err
	}
	_, err := c.write(ctx, "clients", http.MethodDelete, query("clients", url.Values{"id": {eq(id)}}), nil, "")
	return err
}
