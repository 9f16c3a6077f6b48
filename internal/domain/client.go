package domain

import "time"

// ============================================================
// Tenant accounts (clients)
// ============================================================

// PlanType is one of the four commercial tiers.
type PlanType string

const (
	PlanStarter    PlanType = "starter"
	PlanPro        PlanType = "pro"
	PlanBusiness   PlanType = "business"
	PlanEnterprise PlanType = "enterprise"
)

// Client is a tenant account that owns one or more profiles.
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Email       string    `json:"email"`
	Plan        PlanType  `json:"plan"`
	MaxProfiles int       `json:"maxProfiles"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClientUpdate is a partial admin edit. Nil fields are left untouched.
type ClientUpdate struct {
	Name     *string   `json:"name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Slug     *string   `json:"slug,omitempty"`
	Plan     *PlanType `json:"plan,omitempty"`
	IsActive *bool     `json:"isActive,omitempty"`
}

// BonusGrantRequest is the body for POST /v1/admin/clients/{id}/bonus.
type BonusGrantRequest struct {
	Slots int `json:"slots"`
}

// ClientRow is one line of the admin directory.
type ClientRow struct {
	Client
	ProfileCount int `json:"profileCount"`
}

// DirectoryQuery carries the admin directory filter/sort/paging options.
type DirectoryQuery struct {
	Search   string
	Plan     PlanType
	Status   string // "", "active", "inactive"
	SortBy   string // name, plan, status, createdAt
	Desc     bool
	Page     int
	PageSize int
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}
