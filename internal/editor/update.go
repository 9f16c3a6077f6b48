// Package editor holds the profile draft and the typed update commands the
// editor tabs send. Applying an update never touches storage; persistence
// happens on an explicit save in the service layer.
package editor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/links"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/render"
	"github.com/boddenberg/linkbio-api-go/internal/slug"
)

// Kind tags an update command on the wire.
type Kind string

const (
	KindIdentity     Kind = "identity"
	KindTheme        Kind = "theme"
	KindFonts        Kind = "fonts"
	KindLayout       Kind = "layout"
	KindButtons      Kind = "buttons"
	KindButtonRemove Kind = "button_remove"
	KindButtonMove   Kind = "button_move"
	KindCatalog      Kind = "catalog"
	KindPortfolio    Kind = "portfolio"
	KindVideos       Kind = "videos"
	KindScheduling   Kind = "scheduling"
	KindCommunity    Kind = "community"
	KindFeatures     Kind = "features"
	KindPix          Kind = "pix"
)

// Update is one editor command. The set of implementations is closed.
type Update interface {
	Kind() Kind
	// requires lists the features the command needs on the current plan.
	requires() []plans.Feature
	apply(agg *domain.ProfileAggregate) error
}

// IdentityUpdate edits the header fields. Nil fields are kept.
type IdentityUpdate struct {
	Slug        *string             `json:"slug,omitempty"`
	ProfileType *domain.ProfileType `json:"profileType,omitempty"`
	DisplayName *string             `json:"displayName,omitempty"`
	Headline    *string             `json:"headline,omitempty"`
	BioShort    *string             `json:"bioShort,omitempty"`
	AvatarURL   *string             `json:"avatarUrl,omitempty"`
	CoverURL    *string             `json:"coverUrl,omitempty"`
}

// ThemeUpdate replaces the theme as a whole.
type ThemeUpdate struct {
	Theme domain.Theme `json:"theme"`
}

// FontsUpdate replaces the font pair.
type FontsUpdate struct {
	Fonts domain.Fonts `json:"fonts"`
}

// LayoutUpdate picks a layout template from the registry.
type LayoutUpdate struct {
	LayoutTemplate string `json:"layoutTemplate"`
}

// ButtonUpsert adds a button (empty ID) or replaces the one with the same ID.
type ButtonUpsert struct {
	Button domain.ProfileButton `json:"button"`
}

// ButtonRemove deletes a button by ID.
type ButtonRemove struct {
	ID string `json:"id"`
}

// ButtonMove moves a button to a new position.
type ButtonMove struct {
	ID string `json:"id"`
	To int    `json:"to"`
}

// CatalogUpdate replaces the catalog, in display order.
type CatalogUpdate struct {
	Items []domain.CatalogItem `json:"items"`
}

// PortfolioUpdate replaces the portfolio, in display order.
type PortfolioUpdate struct {
	Items []domain.PortfolioItem `json:"items"`
}

// VideosUpdate replaces the video list, in display order.
type VideosUpdate struct {
	Items []domain.YoutubeVideoItem `json:"items"`
}

// SchedulingUpdate replaces the weekly availability slots.
type SchedulingUpdate struct {
	Slots []domain.SchedulingSlot `json:"slots"`
}

// CommunityUpdate edits the community listing.
type CommunityUpdate struct {
	Enabled   bool             `json:"communityEnabled"`
	Segment   string           `json:"segment"`
	City      string           `json:"city"`
	State     string           `json:"state"`
	Punchline string           `json:"punchline"`
	Promotion domain.Promotion `json:"promotion"`
}

// FeaturesUpdate flips the page toggles. Nil fields are kept.
type FeaturesUpdate struct {
	EnableLeadCapture *bool `json:"enableLeadCapture,omitempty"`
	EnableNps         *bool `json:"enableNps,omitempty"`
	HideBranding      *bool `json:"hideBranding,omitempty"`
}

// PixUpdate sets the Pix key shown on the page.
type PixUpdate struct {
	PixKey string `json:"pixKey"`
}

func (IdentityUpdate) Kind() Kind   { return KindIdentity }
func (ThemeUpdate) Kind() Kind      { return KindTheme }
func (FontsUpdate) Kind() Kind      { return KindFonts }
func (LayoutUpdate) Kind() Kind     { return KindLayout }
func (ButtonUpsert) Kind() Kind     { return KindButtons }
func (ButtonRemove) Kind() Kind     { return KindButtonRemove }
func (ButtonMove) Kind() Kind       { return KindButtonMove }
func (CatalogUpdate) Kind() Kind    { return KindCatalog }
func (PortfolioUpdate) Kind() Kind  { return KindPortfolio }
func (VideosUpdate) Kind() Kind     { return KindVideos }
func (SchedulingUpdate) Kind() Kind { return KindScheduling }
func (CommunityUpdate) Kind() Kind  { return KindCommunity }
func (FeaturesUpdate) Kind() Kind   { return KindFeatures }
func (PixUpdate) Kind() Kind        { return KindPix }

// ============================================================
// Gating
// ============================================================

func (IdentityUpdate) requires() []plans.Feature { return nil }
func (ThemeUpdate) requires() []plans.Feature    { return nil }
func (LayoutUpdate) requires() []plans.Feature   { return nil }
func (PixUpdate) requires() []plans.Feature      { return nil }

func (FontsUpdate) requires() []plans.Feature {
	return []plans.Feature{plans.FeatureCustomFonts}
}

func (ButtonUpsert) requires() []plans.Feature {
	return []plans.Feature{plans.FeatureButtons}
}

func (ButtonRemove) requires() []plans.Feature { return nil }
func (ButtonMove) requires() []plans.Feature   { return nil }

// Collection replacements are gated only when they leave items behind, so a
// downgraded tenant can still clear a locked tab.
func (u CatalogUpdate) requires() []plans.Feature {
	return gateNonEmpty(len(u.Items), plans.FeatureCatalog)
}

func (u PortfolioUpdate) requires() []plans.Feature {
	return gateNonEmpty(len(u.Items), plans.FeaturePortfolio)
}

func (u VideosUpdate) requires() []plans.Feature {
	return gateNonEmpty(len(u.Items), plans.FeatureVideos)
}

func (u SchedulingUpdate) requires() []plans.Feature {
	return gateNonEmpty(len(u.Slots), plans.FeatureScheduling)
}

func (u CommunityUpdate) requires() []plans.Feature {
	if !u.Enabled {
		return nil
	}
	return []plans.Feature{plans.FeatureCommunity}
}

// Turning a toggle off is always allowed.
func (u FeaturesUpdate) requires() []plans.Feature {
	var fs []plans.Feature
	if u.EnableLeadCapture != nil && *u.EnableLeadCapture {
		fs = append(fs, plans.FeatureLeads)
	}
	if u.EnableNps != nil && *u.EnableNps {
		fs = append(fs, plans.FeatureNPS)
	}
	if u.HideBranding != nil && *u.HideBranding {
		fs = append(fs, plans.FeatureWhiteLabel)
	}
	return fs
}

func gateNonEmpty(n int, f plans.Feature) []plans.Feature {
	if n == 0 {
		return nil
	}
	return []plans.Feature{f}
}

// ============================================================
// Merge
// ============================================================

func (u IdentityUpdate) apply(agg *domain.ProfileAggregate) error {
	if u.Slug != nil {
		s := strings.ToLower(strings.TrimSpace(*u.Slug))
		if !slug.Valid(s) {
			return &domain.ErrValidation{Field: "slug", Message: "use letras minúsculas, números e hífens"}
		}
		agg.Slug = s
	}
	if u.ProfileType != nil {
		if *u.ProfileType != domain.ProfilePersonal && *u.ProfileType != domain.ProfileBusiness {
			return &domain.ErrValidation{Field: "profileType", Message: "must be personal or business"}
		}
		agg.ProfileType = *u.ProfileType
	}
	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if name == "" {
			return &domain.ErrValidation{Field: "displayName", Message: "is required"}
		}
		agg.DisplayName = name
	}
	if u.Headline != nil {
		agg.Headline = strings.TrimSpace(*u.Headline)
	}
	if u.BioShort != nil {
		if len([]rune(*u.BioShort)) > 280 {
			return &domain.ErrValidation{Field: "bioShort", Message: "must be at most 280 characters"}
		}
		agg.BioShort = *u.BioShort
	}
	if u.AvatarURL != nil {
		agg.AvatarURL = strings.TrimSpace(*u.AvatarURL)
	}
	if u.CoverURL != nil {
		agg.CoverURL = strings.TrimSpace(*u.CoverURL)
	}
	return nil
}

func (u ThemeUpdate) apply(agg *domain.ProfileAggregate) error {
	if err := ValidateTheme(u.Theme); err != nil {
		return err
	}
	agg.Theme = u.Theme
	return nil
}

func (u FontsUpdate) apply(agg *domain.ProfileAggregate) error {
	agg.Fonts = domain.Fonts{Heading: strings.TrimSpace(u.Fonts.Heading), Body: strings.TrimSpace(u.Fonts.Body)}
	return nil
}

func (u LayoutUpdate) apply(agg *domain.ProfileAggregate) error {
	if !render.IsLayout(u.LayoutTemplate) {
		return &domain.ErrValidation{Field: "layoutTemplate", Message: fmt.Sprintf("unknown template %q", u.LayoutTemplate)}
	}
	agg.LayoutTemplate = u.LayoutTemplate
	return nil
}

func (u ButtonUpsert) apply(agg *domain.ProfileAggregate) error {
	b := u.Button
	if !links.IsKnown(b.Type) {
		return &domain.ErrValidation{Field: "type", Message: fmt.Sprintf("unknown button type %q", b.Type)}
	}
	if strings.TrimSpace(b.Value) == "" {
		return &domain.ErrValidation{Field: "value", Message: "is required"}
	}
	if b.Visibility == "" {
		b.Visibility = domain.VisibilityPublic
	}
	if b.Visibility != domain.VisibilityPublic && b.Visibility != domain.VisibilityHidden {
		return &domain.ErrValidation{Field: "visibility", Message: "must be public or hidden"}
	}
	b.ProfileID = agg.ID

	if b.ID == "" {
		b.ID = uuid.NewString()
		agg.Buttons = append(agg.Buttons, b)
	} else {
		i := indexOfButton(agg.Buttons, b.ID)
		if i < 0 {
			return &domain.ErrNotFound{Resource: "button", ID: b.ID}
		}
		agg.Buttons[i] = b
	}
	agg.Buttons = Reindex(agg.Buttons, func(b *domain.ProfileButton, i int) { b.SortOrder = i })
	return nil
}

func (u ButtonRemove) apply(agg *domain.ProfileAggregate) error {
	i := indexOfButton(agg.Buttons, u.ID)
	if i < 0 {
		return &domain.ErrNotFound{Resource: "button", ID: u.ID}
	}
	agg.Buttons = RemoveAt(agg.Buttons, i, func(b *domain.ProfileButton, i int) { b.SortOrder = i })
	return nil
}

func (u ButtonMove) apply(agg *domain.ProfileAggregate) error {
	i := indexOfButton(agg.Buttons, u.ID)
	if i < 0 {
		return &domain.ErrNotFound{Resource: "button", ID: u.ID}
	}
	agg.Buttons = Move(agg.Buttons, i, u.To, func(b *domain.ProfileButton, i int) { b.SortOrder = i })
	return nil
}

func (u CatalogUpdate) apply(agg *domain.ProfileAggregate) error {
	items := append([]domain.CatalogItem(nil), u.Items...)
	owned := ownedIDs(agg.CatalogItems, func(c domain.CatalogItem) string { return c.ID })
	for i := range items {
		if strings.TrimSpace(items[i].Title) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].title", i), Message: "is required"}
		}
		if items[i].Price < 0 {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].price", i), Message: "must not be negative"}
		}
		items[i].ID = owned.claim(items[i].ID)
		items[i].ProfileID = agg.ID
	}
	agg.CatalogItems = Reindex(items, func(c *domain.CatalogItem, i int) { c.SortOrder = i })
	return nil
}

func (u PortfolioUpdate) apply(agg *domain.ProfileAggregate) error {
	items := append([]domain.PortfolioItem(nil), u.Items...)
	owned := ownedIDs(agg.PortfolioItems, func(p domain.PortfolioItem) string { return p.ID })
	for i := range items {
		if strings.TrimSpace(items[i].ImageURL) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].imageUrl", i), Message: "is required"}
		}
		items[i].ID = owned.claim(items[i].ID)
		items[i].ProfileID = agg.ID
	}
	agg.PortfolioItems = Reindex(items, func(p *domain.PortfolioItem, i int) { p.SortOrder = i })
	return nil
}

func (u VideosUpdate) apply(agg *domain.ProfileAggregate) error {
	items := append([]domain.YoutubeVideoItem(nil), u.Items...)
	owned := ownedIDs(agg.YoutubeVideos, func(v domain.YoutubeVideoItem) string { return v.ID })
	for i := range items {
		if links.DetectLinkType(items[i].URL) != domain.ButtonYouTube {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].url", i), Message: "must be a YouTube link"}
		}
		items[i].ID = owned.claim(items[i].ID)
		items[i].ProfileID = agg.ID
	}
	agg.YoutubeVideos = Reindex(items, func(v *domain.YoutubeVideoItem, i int) { v.SortOrder = i })
	return nil
}

var clock = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (u SchedulingUpdate) apply(agg *domain.ProfileAggregate) error {
	slots := append([]domain.SchedulingSlot(nil), u.Slots...)
	owned := ownedIDs(agg.SchedulingSlots, func(s domain.SchedulingSlot) string { return s.ID })
	for i, s := range slots {
		field := fmt.Sprintf("slots[%d]", i)
		if s.Weekday < 0 || s.Weekday > 6 {
			return &domain.ErrValidation{Field: field + ".weekday", Message: "must be between 0 and 6"}
		}
		if !clock.MatchString(s.Start) || !clock.MatchString(s.End) {
			return &domain.ErrValidation{Field: field, Message: "start and end must be HH:MM"}
		}
		if s.Start >= s.End {
			return &domain.ErrValidation{Field: field, Message: "start must be before end"}
		}
		slots[i].ID = owned.claim(s.ID)
		slots[i].ProfileID = agg.ID
	}
	agg.SchedulingSlots = Reindex(slots, func(s *domain.SchedulingSlot, i int) { s.SortOrder = i })
	return nil
}

func (u CommunityUpdate) apply(agg *domain.ProfileAggregate) error {
	if u.Enabled && strings.TrimSpace(u.Segment) == "" {
		return &domain.ErrValidation{Field: "segment", Message: "is required to join the community"}
	}
	if len(u.State) > 2 {
		return &domain.ErrValidation{Field: "state", Message: "use the two-letter UF"}
	}
	agg.CommunityEnabled = u.Enabled
	agg.Segment = strings.TrimSpace(u.Segment)
	agg.City = strings.TrimSpace(u.City)
	agg.State = strings.ToUpper(strings.TrimSpace(u.State))
	agg.Punchline = strings.TrimSpace(u.Punchline)
	agg.Promotion = u.Promotion
	return nil
}

func (u FeaturesUpdate) apply(agg *domain.ProfileAggregate) error {
	if u.EnableLeadCapture != nil {
		agg.EnableLeadCapture = *u.EnableLeadCapture
	}
	if u.EnableNps != nil {
		agg.EnableNps = *u.EnableNps
	}
	if u.HideBranding != nil {
		agg.HideBranding = *u.HideBranding
	}
	return nil
}

func (u PixUpdate) apply(agg *domain.ProfileAggregate) error {
	agg.PixKey = strings.TrimSpace(u.PixKey)
	return nil
}

// ValidateTheme checks the enums and colours of a theme.
func ValidateTheme(t domain.Theme) error {
	switch t.BackgroundType {
	case domain.BackgroundSolid, domain.BackgroundGradient, domain.BackgroundImage:
	default:
		return &domain.ErrValidation{Field: "theme.backgroundType", Message: "must be solid, gradient or image"}
	}
	switch t.ButtonStyle {
	case domain.ButtonStyleSolid, domain.ButtonStyleOutline, domain.ButtonStyleGlass:
	default:
		return &domain.ErrValidation{Field: "theme.buttonStyle", Message: "must be solid, outline or glass"}
	}
	switch t.IconStyle {
	case domain.IconStyleMono, domain.IconStyleBrand, domain.IconStyleReal:
	default:
		return &domain.ErrValidation{Field: "theme.iconStyle", Message: "must be mono, brand or real"}
	}
	colours := []struct{ field, value string }{
		{"primaryColor", t.PrimaryColor}, {"textColor", t.TextColor}, {"borderColor", t.BorderColor},
	}
	for _, c := range colours {
		if !render.IsColor(c.value) {
			return &domain.ErrValidation{Field: "theme." + c.field, Message: "must be a hex colour"}
		}
	}
	if t.BackgroundType != domain.BackgroundImage && !render.IsColor(t.BackgroundValue) {
		return &domain.ErrValidation{Field: "theme.backgroundValue", Message: "must be a hex colour"}
	}
	if t.BackgroundType == domain.BackgroundImage && !render.IsImageURL(t.BackgroundValue) {
		return &domain.ErrValidation{Field: "theme.backgroundValue", Message: "must be an http(s) image URL"}
	}
	if t.Radius < 0 || t.Radius > 64 || t.BorderWidth < 0 || t.BorderWidth > 8 {
		return &domain.ErrValidation{Field: "theme", Message: "radius or borderWidth out of range"}
	}
	return nil
}

func indexOfButton(btns []domain.ProfileButton, id string) int {
	for i := range btns {
		if btns[i].ID == id {
			return i
		}
	}
	return -1
}

// idSet holds the row ids a collection of the draft already owns.
type idSet map[string]bool

func ownedIDs[T any](items []T, id func(T) string) idSet {
	set := make(idSet, len(items))
	for _, it := range items {
		set[id(it)] = true
	}
	return set
}

// claim keeps id when the collection owns it and has not handed it out yet
// in this update. Any other id, including one from another profile, is
// replaced with a fresh one so rows are only upserted under owned ids.
func (s idSet) claim(id string) string {
	if id != "" && s[id] {
		delete(s, id)
		return id
	}
	return uuid.NewString()
}

// ============================================================
// Wire decoding
// ============================================================

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeUpdate parses a {"kind": ..., "payload": ...} command.
func DecodeUpdate(data []byte) (Update, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	var u Update
	switch env.Kind {
	case KindIdentity:
		u = decodeInto[IdentityUpdate](env.Payload)
	case KindTheme:
		u = decodeInto[ThemeUpdate](env.Payload)
	case KindFonts:
		u = decodeInto[FontsUpdate](env.Payload)
	case KindLayout:
		u = decodeInto[LayoutUpdate](env.Payload)
	case KindButtons:
		u = decodeInto[ButtonUpsert](env.Payload)
	case KindButtonRemove:
		u = decodeInto[ButtonRemove](env.Payload)
	case KindButtonMove:
		u = decodeInto[ButtonMove](env.Payload)
	case KindCatalog:
		u = decodeInto[CatalogUpdate](env.Payload)
	case KindPortfolio:
		u = decodeInto[PortfolioUpdate](env.Payload)
	case KindVideos:
		u = decodeInto[VideosUpdate](env.Payload)
	case KindScheduling:
		u = decodeInto[SchedulingUpdate](env.Payload)
	case KindCommunity:
		u = decodeInto[CommunityUpdate](env.Payload)
	case KindFeatures:
		u = decodeInto[FeaturesUpdate](env.Payload)
	case KindPix:
		u = decodeInto[PixUpdate](env.Payload)
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown update kind %q", env.Kind)}
	}
	if u == nil {
		return nil, &domain.ErrValidation{Field: "payload", Message: fmt.Sprintf("invalid payload for %q", env.Kind)}
	}
	return u, nil
}

func decodeInto[T Update](raw json.RawMessage) Update {
	var v T
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
