package supabase

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// AuthStore implementation: identities and refresh tokens
// ============================================================

// --- Identities ---

func (c *Client) CreateIdentity(ctx context.Context, id *domain.AuthIdentity) (*domain.AuthIdentity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateIdentity")
	defer span.End()

	row := identityRow{
		ID:           id.ID,
		Email:        strings.ToLower(id.Email),
		PasswordHash: id.PasswordHash,
		Role:         id.Role,
		TOTPSecret:   id.TOTPSecret,
	}
	if id.ClientID != "" {
		row.ClientID = &id.ClientID
	}
	if err := c.insert(ctx, "auth_identities", "auth_identities", row, nil); err != nil {
		return nil, err
	}
	return c.GetIdentityByID(ctx, id.ID)
}

// GetIdentityByEmail returns nil, nil when no identity uses the email.
func (c *Client) GetIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetIdentityByEmail")
	defer span.End()

	return c.oneIdentity(ctx, url.Values{"email": {eq(strings.ToLower(email))}})
}

// GetIdentityByID returns nil, nil when the identity does not exist.
func (c *Client) GetIdentityByID(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetIdentityByID")
	defer span.End()

	return c.oneIdentity(ctx, url.Values{"id": {eq(id)}})
}

func (c *Client) oneIdentity(ctx context.Context, filter url.Values) (*domain.AuthIdentity, error) {
	filter.Set("limit", "1")
	var rows []identityRow
	if err := c.get(ctx, "auth_identities", query("auth_identities", filter), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil // not found is not an error for auth lookup
	}
	id := rows[0].toDomain()
	return &id, nil
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	row := refreshTokenRow{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt.UTC(),
	}
	return c.insert(ctx, "auth_refresh_tokens", "auth_refresh_tokens", row, nil)
}

// GetRefreshToken returns the unrevoked token with the given hash, or nil.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	var rows []refreshTokenRow
	path := query("auth_refresh_tokens", url.Values{
		"token_hash": {eq(tokenHash)},
		"revoked_at": {"is.null"},
		"limit":      {"1"},
	})
	if err := c.get(ctx, "auth_refresh_tokens", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &domain.AuthRefreshToken{
		ID:         r.ID,
		IdentityID: r.IdentityID,
		TokenHash:  r.TokenHash,
		ExpiresAt:  r.ExpiresAt,
		RevokedAt:  r.RevokedAt,
	}, nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := query("auth_refresh_tokens", url.Values{"token_hash": {eq(tokenHash)}})
	return c.patch(ctx, "auth_refresh_tokens", path, map[string]any{"revoked_at": time.Now().UTC()})
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, identityID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := query("auth_refresh_tokens", url.Values{
		"identity_id": {eq(identityID)},
		"revoked_at":  {"is.null"},
	})
	return c.patch(ctx, "auth_refresh_tokens", path, map[string]any{"revoked_at": time.Now().UTC()})
}
