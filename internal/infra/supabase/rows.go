package supabase

import (
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
)

// ============================================================
// Table rows. Columns are snake_case; theme, fonts, promotion and
// lead history are jsonb.
// ============================================================

type clientRow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Email       string     `json:"email"`
	Plan        string     `json:"plan"`
	MaxProfiles int        `json:"max_profiles"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func (r clientRow) toDomain() domain.Client {
	return domain.Client{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Email:       r.Email,
		Plan:        plans.ParsePlan(r.Plan),
		MaxProfiles: r.MaxProfiles,
		IsActive:    r.IsActive,
		CreatedAt:   derefTime(r.CreatedAt),
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func clientToRow(c *domain.Client) clientRow {
	return clientRow{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Email:       c.Email,
		Plan:        string(c.Plan),
		MaxProfiles: c.MaxProfiles,
		IsActive:    c.IsActive,
	}
}

type profileRow struct {
	ID                string           `json:"id"`
	ClientID          string           `json:"client_id"`
	Slug              string           `json:"slug"`
	ProfileType       string           `json:"profile_type"`
	DisplayName       string           `json:"display_name"`
	Headline          string           `json:"headline"`
	BioShort          string           `json:"bio_short"`
	AvatarURL         string           `json:"avatar_url"`
	CoverURL          string           `json:"cover_url"`
	Theme             domain.Theme     `json:"theme"`
	Fonts             domain.Fonts     `json:"fonts"`
	LayoutTemplate    string           `json:"layout_template"`
	PixKey            string           `json:"pix_key"`
	CommunityEnabled  bool             `json:"community_enabled"`
	Segment           string           `json:"segment"`
	City              string           `json:"city"`
	State             string           `json:"state"`
	Punchline         string           `json:"punchline"`
	Promotion         domain.Promotion `json:"promotion"`
	EnableLeadCapture bool             `json:"enable_lead_capture"`
	EnableNps         bool             `json:"enable_nps"`
	HideBranding      bool             `json:"hide_branding"`
	CreatedAt         *time.Time       `json:"created_at,omitempty"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`
}

func (r profileRow) toDomain() domain.Profile {
	p := domain.Profile{
		ID:                r.ID,
		ClientID:          r.ClientID,
		Slug:              r.Slug,
		ProfileType:       domain.ProfileType(r.ProfileType),
		DisplayName:       r.DisplayName,
		Headline:          r.Headline,
		BioShort:          r.BioShort,
		AvatarURL:         r.AvatarURL,
		CoverURL:          r.CoverURL,
		Theme:             r.Theme,
		Fonts:             r.Fonts,
		LayoutTemplate:    r.LayoutTemplate,
		PixKey:            r.PixKey,
		CommunityEnabled:  r.CommunityEnabled,
		Segment:           r.Segment,
		City:              r.City,
		State:             r.State,
		Punchline:         r.Punchline,
		Promotion:         r.Promotion,
		EnableLeadCapture: r.EnableLeadCapture,
		EnableNps:         r.EnableNps,
		HideBranding:      r.HideBranding,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		p.UpdatedAt = *r.UpdatedAt
	}
	return p
}

func profileToRow(p *domain.Profile) profileRow {
	now := time.Now().UTC()
	return profileRow{
		ID:                p.ID,
		ClientID:          p.ClientID,
		Slug:              p.Slug,
		ProfileType:       string(p.ProfileType),
		DisplayName:       p.DisplayName,
		Headline:          p.Headline,
		BioShort:          p.BioShort,
		AvatarURL:         p.AvatarURL,
		CoverURL:          p.CoverURL,
		Theme:             p.Theme,
		Fonts:             p.Fonts,
		LayoutTemplate:    p.LayoutTemplate,
		PixKey:            p.PixKey,
		CommunityEnabled:  p.CommunityEnabled,
		Segment:           p.Segment,
		City:              p.City,
		State:             p.State,
		Punchline:         p.Punchline,
		Promotion:         p.Promotion,
		EnableLeadCapture: p.EnableLeadCapture,
		EnableNps:         p.EnableNps,
		HideBranding:      p.HideBranding,
		UpdatedAt:         &now,
	}
}

type buttonRow struct {
	ID         string `json:"id"`
	ProfileID  string `json:"profile_id"`
	Type       string `json:"type"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	Enabled    bool   `json:"enabled"`
	Visibility string `json:"visibility"`
	Pinned     bool   `json:"pinned"`
	SortOrder  int    `json:"sort_order"`
}

type catalogRow struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	LinkURL     string  `json:"link_url"`
	IsActive    bool    `json:"is_active"`
	SortOrder   int     `json:"sort_order"`
}

type portfolioRow struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

type videoRow struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

type slotRow struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

func buttonToRow(profileID string, b domain.ProfileButton) buttonRow {
	return buttonRow{b.ID, profileID, string(b.Type), b.Label, b.Value, b.Enabled, b.Visibility, b.Pinned, b.SortOrder}
}

func (r buttonRow) toDomain() domain.ProfileButton {
	return domain.ProfileButton{
		ID: r.ID, ProfileID: r.ProfileID, Type: domain.ButtonType(r.Type), Label: r.Label, Value: r.Value,
		Enabled: r.Enabled, Visibility: r.Visibility, Pinned: r.Pinned, SortOrder: r.SortOrder,
	}
}

func catalogToRow(profileID string, c domain.CatalogItem) catalogRow {
	return catalogRow{c.ID, profileID, c.Title, c.Description, c.Price, c.ImageURL, c.LinkURL, c.IsActive, c.SortOrder}
}

func (r catalogRow) toDomain() domain.CatalogItem {
	return domain.CatalogItem{
		ID: r.ID, ProfileID: r.ProfileID, Title: r.Title, Description: r.Description, Price: r.Price,
		ImageURL: r.ImageURL, LinkURL: r.LinkURL, IsActive: r.IsActive, SortOrder: r.SortOrder,
	}
}

func portfolioToRow(profileID string, p domain.PortfolioItem) portfolioRow {
	return portfolioRow{p.ID, profileID, p.Title, p.ImageURL, p.IsActive, p.SortOrder}
}

func (r portfolioRow) toDomain() domain.PortfolioItem {
	return domain.PortfolioItem{ID: r.ID, ProfileID: r.ProfileID, Title: r.Title, ImageURL: r.ImageURL, IsActive: r.IsActive, SortOrder: r.SortOrder}
}

func videoToRow(profileID string, v domain.YoutubeVideoItem) videoRow {
	return videoRow{v.ID, profileID, v.Title, v.URL, v.IsActive, v.SortOrder}
}

func (r videoRow) toDomain() domain.YoutubeVideoItem {
	return domain.YoutubeVideoItem{ID: r.ID, ProfileID: r.ProfileID, Title: r.Title, URL: r.URL, IsActive: r.IsActive, SortOrder: r.SortOrder}
}

func slotToRow(profileID string, s domain.SchedulingSlot) slotRow {
	return slotRow{s.ID, profileID, s.Weekday, s.Start, s.End, s.IsActive, s.SortOrder}
}

func (r slotRow) toDomain() domain.SchedulingSlot {
	return domain.SchedulingSlot{
		ID: r.ID, ProfileID: r.ProfileID, Weekday: r.Weekday, Start: r.StartTime, End: r.EndTime,
		IsActive: r.IsActive, SortOrder: r.SortOrder,
	}
}

type showcaseRow struct {
	ID              string     `json:"id"`
	ProfileID       string     `json:"profile_id"`
	ButtonColor     string     `json:"button_color"`
	GradientEnabled bool       `json:"gradient_enabled"`
	SecondaryColor  string     `json:"secondary_color"`
	ItemTemplate    string     `json:"item_template"`
	HeaderTemplate  string     `json:"header_template"`
	HeaderButtonIDs []string   `json:"header_button_ids"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func (r showcaseRow) toDomain() domain.Showcase {
	s := domain.Showcase{
		ID:              r.ID,
		ProfileID:       r.ProfileID,
		ButtonColor:     r.ButtonColor,
		GradientEnabled: r.GradientEnabled,
		SecondaryColor:  r.SecondaryColor,
		ItemTemplate:    r.ItemTemplate,
		HeaderTemplate:  r.HeaderTemplate,
		HeaderButtonIDs: r.HeaderButtonIDs,
	}
	if s.HeaderButtonIDs == nil {
		s.HeaderButtonIDs = []string{}
	}
	if r.CreatedAt != nil {
		s.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		s.UpdatedAt = *r.UpdatedAt
	}
	return s
}

// settingsRow is the PATCH body of an autosave write.
type settingsRow struct {
	ButtonColor     string    `json:"button_color"`
	GradientEnabled bool      `json:"gradient_enabled"`
	SecondaryColor  string    `json:"secondary_color"`
	ItemTemplate    string    `json:"item_template"`
	HeaderTemplate  string    `json:"header_template"`
	HeaderButtonIDs []string  `json:"header_button_ids"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type itemRow struct {
	ID            string  `json:"id"`
	ShowcaseID    string  `json:"showcase_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Kind          string  `json:"kind"`
	BasePrice     float64 `json:"base_price"`
	OriginalPrice float64 `json:"original_price"`
	Tag           string  `json:"tag"`
	CTAType       string  `json:"cta_type"`
	CTAValue      string  `json:"cta_value"`
	MainImageURL  string  `json:"main_image_url"`
	SortOrder     int     `json:"sort_order"`
	IsActive      bool    `json:"is_active"`
}

func itemToRow(i *domain.ShowcaseItem) itemRow {
	return itemRow{
		ID: i.ID, ShowcaseID: i.ShowcaseID, Title: i.Title, Description: i.Description, Kind: i.Kind,
		BasePrice: i.BasePrice, OriginalPrice: i.OriginalPrice, Tag: i.Tag, CTAType: i.CTAType,
		CTAValue: i.CTAValue, MainImageURL: i.MainImageURL, SortOrder: i.SortOrder, IsActive: i.IsActive,
	}
}

func (r itemRow) toDomain() domain.ShowcaseItem {
	return domain.ShowcaseItem{
		ID: r.ID, ShowcaseID: r.ShowcaseID, Title: r.Title, Description: r.Description, Kind: r.Kind,
		BasePrice: r.BasePrice, OriginalPrice: r.OriginalPrice, Tag: r.Tag, CTAType: r.CTAType,
		CTAValue: r.CTAValue, MainImageURL: r.MainImageURL, SortOrder: r.SortOrder, IsActive: r.IsActive,
		Images: []domain.ShowcaseImage{}, Options: []domain.ShowcaseOption{}, Testimonials: []domain.ShowcaseTestimonial{},
	}
}

type imageRow struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
}

type optionRow struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"item_id"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
	LinkURL   string  `json:"link_url"`
	SortOrder int     `json:"sort_order"`
}

type testimonialRow struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	AvatarURL string `json:"avatar_url"`
	ImageURL  string `json:"image_url"`
	VideoURL  string `json:"video_url"`
	SortOrder int    `json:"sort_order"`
}

type leadRow struct {
	ID        string                    `json:"id"`
	ClientID  string                    `json:"client_id"`
	ProfileID string                    `json:"profile_id"`
	Kind      string                    `json:"kind"`
	Name      string                    `json:"name"`
	Contact   string                    `json:"contact"`
	Message   string                    `json:"message"`
	Score     *int                      `json:"score"`
	Origin    string                    `json:"origin"`
	Status    string                    `json:"status"`
	History   []domain.LeadHistoryEntry `json:"history"`
	CreatedAt time.Time                 `json:"created_at"`
}

func leadToRow(l *domain.Lead) leadRow {
	h := l.History
	if h == nil {
		h = []domain.LeadHistoryEntry{}
	}
	return leadRow{
		ID: l.ID, ClientID: l.ClientID, ProfileID: l.ProfileID, Kind: l.Kind, Name: l.Name,
		Contact: l.Contact, Message: l.Message, Score: l.Score, Origin: l.Origin,
		Status: string(l.Status), History: h, CreatedAt: l.CreatedAt,
	}
}

func (r leadRow) toDomain() domain.Lead {
	h := r.History
	if h == nil {
		h = []domain.LeadHistoryEntry{}
	}
	return domain.Lead{
		ID: r.ID, ClientID: r.ClientID, ProfileID: r.ProfileID, Kind: r.Kind, Name: r.Name,
		Contact: r.Contact, Message: r.Message, Score: r.Score, Origin: r.Origin,
		Status: domain.LeadStatus(r.Status), History: h, CreatedAt: r.CreatedAt,
	}
}

type eventRow struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Type      string    `json:"type"`
	ButtonID  string    `json:"button_id"`
	ItemID    string    `json:"item_id"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type identityRow struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         string     `json:"role"`
	ClientID     *string    `json:"client_id"`
	TOTPSecret   string     `json:"totp_secret"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

func (r identityRow) toDomain() domain.AuthIdentity {
	id := domain.AuthIdentity{
		ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, Role: r.Role, TOTPSecret: r.TOTPSecret,
	}
	if r.ClientID != nil {
		id.ClientID = *r.ClientID
	}
	if r.CreatedAt != nil {
		id.CreatedAt = *r.CreatedAt
	}
	return id
}

type refreshTokenRow struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identity_id"`
	TokenHash  string     `json:"token_hash"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}
