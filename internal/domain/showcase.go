package domain

import "time"

// ============================================================
// Showcase ("vitrine"): secondary catalog, 1:1 with a profile
// ============================================================

// MaxHeaderButtons bounds Showcase.HeaderButtonIDs.
const MaxHeaderButtons = 5

// Showcase holds the global style of a profile's vitrine.
type Showcase struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profileId"`
	ButtonColor     string    `json:"buttonColor"`
	GradientEnabled bool      `json:"gradientEnabled"`
	SecondaryColor  string    `json:"secondaryColor"`
	ItemTemplate    string    `json:"itemTemplate"`
	HeaderTemplate  string    `json:"headerTemplate"`
	HeaderButtonIDs []string  `json:"headerButtonIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ShowcaseSettings is the autosaved subset of a Showcase.
type ShowcaseSettings struct {
	ButtonColor     string   `json:"buttonColor"`
	GradientEnabled bool     `json:"gradientEnabled"`
	SecondaryColor  string   `json:"secondaryColor"`
	ItemTemplate    string   `json:"itemTemplate"`
	HeaderTemplate  string   `json:"headerTemplate"`
	HeaderButtonIDs []string `json:"headerButtonIds"`
}

// Settings extracts the autosaved fields.
func (s *Showcase) Settings() ShowcaseSettings {
	return ShowcaseSettings{
		ButtonColor:     s.ButtonColor,
		GradientEnabled: s.GradientEnabled,
		SecondaryColor:  s.SecondaryColor,
		ItemTemplate:    s.ItemTemplate,
		HeaderTemplate:  s.HeaderTemplate,
		HeaderButtonIDs: append([]string(nil), s.HeaderButtonIDs...),
	}
}

// ApplySettings overwrites the autosaved fields.
func (s *Showcase) ApplySettings(st ShowcaseSettings) {
	s.ButtonColor = st.ButtonColor
	s.GradientEnabled = st.GradientEnabled
	s.SecondaryColor = st.SecondaryColor
	s.ItemTemplate = st.ItemTemplate
	s.HeaderTemplate = st.HeaderTemplate
	s.HeaderButtonIDs = append([]string(nil), st.HeaderButtonIDs...)
}

// ShowcaseSettingsPatch is a partial settings update; nil fields are kept.
type ShowcaseSettingsPatch struct {
	ButtonColor     *string   `json:"buttonColor,omitempty"`
	GradientEnabled *bool     `json:"gradientEnabled,omitempty"`
	SecondaryColor  *string   `json:"secondaryColor,omitempty"`
	ItemTemplate    *string   `json:"itemTemplate,omitempty"`
	HeaderTemplate  *string   `json:"headerTemplate,omitempty"`
	HeaderButtonIDs *[]string `json:"headerButtonIds,omitempty"`
}

// Merge applies the patch over s and returns the result.
func (p ShowcaseSettingsPatch) Merge(s ShowcaseSettings) ShowcaseSettings {
	if p.ButtonColor != nil {
		s.ButtonColor = *p.ButtonColor
	}
	if p.GradientEnabled != nil {
		s.GradientEnabled = *p.GradientEnabled
	}
	if p.SecondaryColor != nil {
		s.SecondaryColor = *p.SecondaryColor
	}
	if p.ItemTemplate != nil {
		s.ItemTemplate = *p.ItemTemplate
	}
	if p.HeaderTemplate != nil {
		s.HeaderTemplate = *p.HeaderTemplate
	}
	if p.HeaderButtonIDs != nil {
		s.HeaderButtonIDs = append([]string(nil), (*p.HeaderButtonIDs)...)
	}
	return s
}

// Item kinds and CTA types.
const (
	ItemPhysical = "physical"
	ItemDigital  = "digital"

	CTAWhatsApp = "whatsapp"
	CTALink     = "link"
)

// ShowcaseItem is one product of the vitrine with its owned collections.
type ShowcaseItem struct {
	ID            string                `json:"id"`
	ShowcaseID    string                `json:"showcaseId"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Kind          string                `json:"kind"`
	BasePrice     float64               `json:"basePrice"`
	OriginalPrice float64               `json:"originalPrice"`
	Tag           string                `json:"tag"`
	CTAType       string                `json:"ctaType"`
	CTAValue      string                `json:"ctaValue"`
	MainImageURL  string                `json:"mainImageUrl"`
	SortOrder     int                   `json:"sortOrder"`
	IsActive      bool                  `json:"isActive"`
	Images        []ShowcaseImage       `json:"images"`
	Options       []ShowcaseOption      `json:"options"`
	Testimonials  []ShowcaseTestimonial `json:"testimonials"`
}

// Clone deep-copies the item and its collections.
func (i *ShowcaseItem) Clone() *ShowcaseItem {
	if i == nil {
		return nil
	}
	c := *i
	c.Images = append([]ShowcaseImage(nil), i.Images...)
	c.Options = append([]ShowcaseOption(nil), i.Options...)
	c.Testimonials = append([]ShowcaseTestimonial(nil), i.Testimonials...)
	return &c
}

// ShowcaseImage is a gallery image of an item.
type ShowcaseImage struct {
	ID        string `json:"id"`
	ItemID    string `json:"itemId"`
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

// ShowcaseOption is a priced variant with an optional distinct link.
type ShowcaseOption struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"itemId"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
	LinkURL   string  `json:"linkUrl,omitempty"`
	SortOrder int     `json:"sortOrder"`
}

// ShowcaseTestimonial is a customer quote attached to an item.
type ShowcaseTestimonial struct {
	ID        string `json:"id"`
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
	SortOrder int    `json:"sortOrder"`
}

// ShowcaseView is a showcase with its items, as returned by the editor API.
type ShowcaseView struct {
	Showcase
	Items []ShowcaseItem `json:"items"`
}

// OpenItemRequest is the body for POST /v1/profiles/{id}/showcase/editing.
type OpenItemRequest struct {
	ItemID  string `json:"itemId"`
	Discard bool   `json:"discard"`
}

// ItemSessionView reports the item currently open for edit.
type ItemSessionView struct {
	EditingItemID string        `json:"editingItemId"`
	Draft         *ShowcaseItem `json:"draft"`
	Dirty         bool          `json:"dirty"`
}
