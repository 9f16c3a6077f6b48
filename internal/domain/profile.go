package domain

import "time"

// ============================================================
// Profiles: one public link-in-bio page per record
// ============================================================

// ProfileType distinguishes personal pages from business pages.
type ProfileType string

const (
	ProfilePersonal ProfileType = "personal"
	ProfileBusiness ProfileType = "business"
)

// Theme is a pure value object, always replaced as a whole.
type Theme struct {
	PrimaryColor      string `json:"primaryColor"`
	TextColor         string `json:"textColor"`
	BorderColor       string `json:"borderColor"`
	BackgroundType    string `json:"backgroundType"` // solid, gradient, image
	BackgroundValue   string `json:"backgroundValue"`
	BackgroundValue2  string `json:"backgroundValue2,omitempty"`
	GradientDirection string `json:"gradientDirection,omitempty"`
	ButtonStyle       string `json:"buttonStyle"` // solid, outline, glass
	IconStyle         string `json:"iconStyle"`   // mono, brand, real
	Radius            int    `json:"radius"`
	BorderWidth       int    `json:"borderWidth"`
}

const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"

	ButtonStyleSolid   = "solid"
	ButtonStyleOutline = "outline"
	ButtonStyleGlass   = "glass"

	IconStyleMono  = "mono"
	IconStyleBrand = "brand"
	IconStyleReal  = "real"
)

// DefaultTheme is applied to newly created profiles.
func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:    "#111827",
		TextColor:       "#111827",
		BorderColor:     "#E5E7EB",
		BackgroundType:  BackgroundSolid,
		BackgroundValue: "#FFFFFF",
		ButtonStyle:     ButtonStyleSolid,
		IconStyle:       IconStyleBrand,
		Radius:          12,
		BorderWidth:     1,
	}
}

// Fonts holds the heading/body font families.
type Fonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Promotion is the optional highlight shown in the community listing.
type Promotion struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Code        string `json:"code,omitempty"`
	ValidUntil  string `json:"validUntil,omitempty"`
}

// Profile is the root record of a public page.
type Profile struct {
	ID             string      `json:"id"`
	ClientID       string      `json:"clientId"`
	Slug           string      `json:"slug"`
	ProfileType    ProfileType `json:"profileType"`
	DisplayName    string      `json:"displayName"`
	Headline       string      `json:"headline"`
	BioShort       string      `json:"bioShort"`
	AvatarURL      string      `json:"avatarUrl"`
	CoverURL       string      `json:"coverUrl"`
	Theme          Theme       `json:"theme"`
	Fonts          Fonts       `json:"fonts"`
	LayoutTemplate string      `json:"layoutTemplate"`
	PixKey         string      `json:"pixKey"`

	// Community listing
	CommunityEnabled bool      `json:"communityEnabled"`
	Segment          string    `json:"segment"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	Punchline        string    `json:"punchline"`
	Promotion        Promotion `json:"promotion"`

	// Feature toggles
	EnableLeadCapture bool `json:"enableLeadCapture"`
	EnableNps         bool `json:"enableNps"`
	HideBranding      bool `json:"hideBranding"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ButtonType keys icon, brand colour and URL formatting of a button.
type ButtonType string

const (
	ButtonWhatsApp  ButtonType = "whatsapp"
	ButtonPhone     ButtonType = "phone"
	ButtonEmail     ButtonType = "email"
	ButtonInstagram ButtonType = "instagram"
	ButtonFacebook  ButtonType = "facebook"
	ButtonTikTok    ButtonType = "tiktok"
	ButtonYouTube   ButtonType = "youtube"
	ButtonLinkedIn  ButtonType = "linkedin"
	ButtonTwitter   ButtonType = "twitter"
	ButtonTelegram  ButtonType = "telegram"
	ButtonThreads   ButtonType = "threads"
	ButtonPinterest ButtonType = "pinterest"
	ButtonSpotify   ButtonType = "spotify"
	ButtonGitHub    ButtonType = "github"
	ButtonMaps      ButtonType = "maps"
	ButtonWebsite   ButtonType = "website"
)

// AllButtonTypes lists every supported button type in picker order.
var AllButtonTypes = []ButtonType{
	ButtonWhatsApp, ButtonPhone, ButtonEmail, ButtonInstagram, ButtonFacebook, ButtonTikTok,
	ButtonYouTube, ButtonLinkedIn, ButtonTwitter, ButtonTelegram, ButtonThreads, ButtonPinterest,
	ButtonSpotify, ButtonGitHub, ButtonMaps, ButtonWebsite,
}

const (
	VisibilityPublic = "public"
	VisibilityHidden = "hidden"
)

// ProfileButton is one link button on a profile.
type ProfileButton struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profileId"`
	Type       ButtonType `json:"type"`
	Label      string     `json:"label"`
	Value      string     `json:"value"`
	Enabled    bool       `json:"enabled"`
	Visibility string     `json:"visibility"`
	Pinned     bool       `json:"pinned"`
	SortOrder  int        `json:"sortOrder"`
}

// CatalogItem is a product/service card on the profile.
type CatalogItem struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profileId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	LinkURL     string  `json:"linkUrl"`
	IsActive    bool    `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

// PortfolioItem is an image in the profile's portfolio.
type PortfolioItem struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// YoutubeVideoItem is an embedded video.
type YoutubeVideoItem struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// SchedulingSlot is a weekly availability window.
type SchedulingSlot struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Weekday   int    `json:"weekday"` // 0 = Sunday
	Start     string `json:"start"`   // HH:MM
	End       string `json:"end"`     // HH:MM
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// ProfileAggregate is a profile root plus every child collection the editor
// manages.
type ProfileAggregate struct {
	Profile
	Buttons         []ProfileButton    `json:"buttons"`
	CatalogItems    []CatalogItem      `json:"catalogItems"`
	PortfolioItems  []PortfolioItem    `json:"portfolioItems"`
	YoutubeVideos   []YoutubeVideoItem `json:"youtubeVideos"`
	SchedulingSlots []SchedulingSlot   `json:"schedulingSlots"`
}

// Clone returns a deep copy so drafts never alias persisted slices.
func (a *ProfileAggregate) Clone() *ProfileAggregate {
	if a == nil {
		return nil
	}
	c := *a
	c.Buttons = append([]ProfileButton(nil), a.Buttons...)
	c.CatalogItems = append([]CatalogItem(nil), a.CatalogItems...)
	c.PortfolioItems = append([]PortfolioItem(nil), a.PortfolioItems...)
	c.YoutubeVideos = append([]YoutubeVideoItem(nil), a.YoutubeVideos...)
	c.SchedulingSlots = append([]SchedulingSlot(nil), a.SchedulingSlots...)
	return &c
}

// CreateProfileRequest is the body for POST /v1/profiles.
type CreateProfileRequest struct {
	Slug        string      `json:"slug"`
	DisplayName string      `json:"displayName"`
	ProfileType ProfileType `json:"profileType"`
}

// SaveResult reports which collections a profile save committed.
type SaveResult struct {
	Profile   *ProfileAggregate `json:"profile"`
	Committed []string          `json:"committed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// CommunityListing is one public entry of the community directory.
type CommunityListing struct {
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	Segment     string    `json:"segment"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Punchline   string    `json:"punchline"`
	Promotion   Promotion `json:"promotion"`
}
