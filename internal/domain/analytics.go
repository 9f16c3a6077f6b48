package domain

import "time"

// ============================================================
// Analytics events
// ============================================================

// Event types recorded by the public pages.
const (
	EventProfileView  = "profile_view"
	EventShowcaseView = "showcase_view"
	EventButtonClick  = "button_click"
	EventItemClick    = "item_click"
	EventShare        = "share"
)

// AnalyticsEvent is a loosely-typed interaction record. ButtonID, ItemID,
// Label and URL are best-effort and may reference content that no longer
// exists.
type AnalyticsEvent struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	Type      string    `json:"type"`
	ButtonID  string    `json:"buttonId,omitempty"`
	ItemID    string    `json:"itemId,omitempty"`
	Label     string    `json:"label,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrackEventRequest is the public body for POST /v1/public/profiles/{slug}/events.
type TrackEventRequest struct {
	Type     string `json:"type"`
	ButtonID string `json:"buttonId"`
	ItemID   string `json:"itemId"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// LabeledEvent is an event with its human-readable label resolved.
type LabeledEvent struct {
	AnalyticsEvent
	DisplayLabel string `json:"displayLabel"`
}

// LabelCount aggregates events by display label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AnalyticsReport is returned by GET /v1/profiles/{id}/analytics.
type AnalyticsReport struct {
	ProfileID string         `json:"profileId"`
	Total     int            `json:"total"`
	ByLabel   []LabelCount   `json:"byLabel"`
	Events    []LabeledEvent `json:"events"`
}
