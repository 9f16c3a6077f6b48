package domain

import "time"

// ============================================================
// Auth: identities, tokens and request/response bodies
// ============================================================

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// AuthIdentity is the login record behind a tenant or an admin.
type AuthIdentity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ClientID     string    `json:"clientId,omitempty"`
	TOTPSecret   string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthRefreshToken is a stored (hashed) refresh token.
type AuthRefreshToken struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identityId"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
}

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	IdentityID string
	Role       string
	ClientID   string
}

// IsAdmin reports whether the principal may use the admin console.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// SignupRequest is the body for POST /v1/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Slug     string `json:"slug"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode,omitempty"`
}

// LoginResponse is returned by signup, login and refresh.
type LoginResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	Role         string  `json:"role"`
	Client       *Client `json:"client,omitempty"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
