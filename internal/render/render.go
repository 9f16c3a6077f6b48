// Package render maps persisted profile and showcase records to the view
// trees served on the public pages. Everything here is a pure function of
// its inputs; unknown template ids fall back to the registry defaults.
package render

import (
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/links"
	"github.com/boddenberg/linkbio-api-go/internal/plans"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// brl formats numbers with Brazilian grouping and decimal separators.
var brl = message.NewPrinter(language.BrazilianPortuguese)

const (
	lightText = "#FFFFFF"
	darkText  = "#111827"
)

// Options carries the context a page needs beyond the records themselves.
type Options struct {
	Plan    domain.PlanType
	BaseURL string
}

// ButtonView is a resolved, clickable button.
type ButtonView struct {
	ID         string            `json:"id"`
	Type       domain.ButtonType `json:"type"`
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Icon       string            `json:"icon"`
	BrandColor string            `json:"brandColor"`
	Pinned     bool              `json:"pinned"`
}

// CatalogView is an active catalog card.
type CatalogView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	PriceLabel  string  `json:"priceLabel"`
	ImageURL    string  `json:"imageUrl"`
	Href        string  `json:"href"`
}

// MediaView is a portfolio image or an embedded video.
type MediaView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Style is the resolved visual theme of a page.
type Style struct {
	Background      template.CSS `json:"background"`
	TextColor       string       `json:"textColor"`
	PrimaryColor    string       `json:"primaryColor"`
	ButtonTextColor string       `json:"buttonTextColor"`
	BorderColor     string       `json:"borderColor"`
	ButtonStyle     string       `json:"buttonStyle"`
	IconStyle       string       `json:"iconStyle"`
	Radius          int          `json:"radius"`
	BorderWidth     int          `json:"borderWidth"`
	HeadingFont     string       `json:"headingFont"`
	BodyFont        string       `json:"bodyFont"`
}

// PublicPage is the view tree of /u/{slug}.
type PublicPage struct {
	Slug         string        `json:"slug"`
	URL          string        `json:"url"`
	DisplayName  string        `json:"displayName"`
	Headline     string        `json:"headline"`
	Bio          string        `json:"bio"`
	AvatarURL    string        `json:"avatarUrl"`
	CoverURL     string        `json:"coverUrl"`
	Layout       Template      `json:"layout"`
	Style        Style         `json:"style"`
	Buttons      []ButtonView  `json:"buttons"`
	Catalog      []CatalogView `json:"catalog"`
	Portfolio    []MediaView   `json:"portfolio"`
	Videos       []MediaView   `json:"videos"`
	PixKey       string        `json:"pixKey,omitempty"`
	ShowcaseURL  string        `json:"showcaseUrl,omitempty"`
	LeadCapture  bool          `json:"leadCapture"`
	NPS          bool          `json:"nps"`
	ShowBranding bool          `json:"showBranding"`
}

// RenderProfile builds the public page of a profile. sc may be nil.
func RenderProfile(agg *domain.ProfileAggregate, sc *domain.ShowcaseView, opts Options) *PublicPage {
	p := agg.Profile
	page := &PublicPage{
		Slug:         p.Slug,
		URL:          PublicURL(opts.BaseURL, p.Slug),
		DisplayName:  p.DisplayName,
		Headline:     p.Headline,
		Bio:          p.BioShort,
		AvatarURL:    p.AvatarURL,
		CoverURL:     p.CoverURL,
		Layout:       LookupLayout(p.LayoutTemplate),
		Style:        resolveStyle(p.Theme, p.Fonts),
		Buttons:      visibleButtons(agg.Buttons),
		PixKey:       p.PixKey,
		LeadCapture:  p.EnableLeadCapture && plans.CanAccessFeature(opts.Plan, plans.FeatureLeads),
		NPS:          p.EnableNps && plans.CanAccessFeature(opts.Plan, plans.FeatureNPS),
		ShowBranding: ShowBranding(p, opts.Plan),
	}

	catalogItems := append([]domain.CatalogItem(nil), agg.CatalogItems...)
	sort.SliceStable(catalogItems, func(i, j int) bool { return catalogItems[i].SortOrder < catalogItems[j].SortOrder })
	for _, c := range catalogItems {
		if !c.IsActive {
			continue
		}
		page.Catalog = append(page.Catalog, CatalogView{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Price:       c.Price,
			PriceLabel:  FormatPrice(c.Price),
			ImageURL:    c.ImageURL,
			Href:        linkOrEmpty(c.LinkURL),
		})
	}

	portfolio := append([]domain.PortfolioItem(nil), agg.PortfolioItems...)
	sort.SliceStable(portfolio, func(i, j int) bool { return portfolio[i].SortOrder < portfolio[j].SortOrder })
	for _, it := range portfolio {
		if it.IsActive {
			page.Portfolio = append(page.Portfolio, MediaView{ID: it.ID, Title: it.Title, URL: it.ImageURL})
		}
	}

	videos := append([]domain.YoutubeVideoItem(nil), agg.YoutubeVideos...)
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].SortOrder < videos[j].SortOrder })
	for _, v := range videos {
		if v.IsActive {
			page.Videos = append(page.Videos, MediaView{ID: v.ID, Title: v.Title, URL: YouTubeEmbedURL(v.URL)})
		}
	}

	if sc != nil && plans.CanAccessFeature(opts.Plan, plans.FeatureShowcase) && hasActiveItem(sc.Items) {
		page.ShowcaseURL = ShowcaseURL(opts.BaseURL, p.Slug)
	}
	return page
}

// ShowBranding reports whether the "made with" footer is shown. hideBranding
// is honoured only when the plan includes white-label.
func ShowBranding(p domain.Profile, plan domain.PlanType) bool {
	if !p.HideBranding {
		return true
	}
	return !plans.GetPlanLimits(plan).HasWhiteLabel
}

// PublicURL is the address of a profile page.
func PublicURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/u/" + slug
}

// ShowcaseURL is the address of a profile's vitrine.
func ShowcaseURL(base, slug string) string {
	return PublicURL(base, slug) + "/vitrine"
}

// FormatPrice renders a BRL amount, e.g. 1234.5 → "R$ 1.234,50".
func FormatPrice(v float64) string {
	if v <= 0 {
		return ""
	}
	return brl.Sprintf("R$ %.2f", v)
}

// YouTubeEmbedURL converts watch/share URLs into the embed form. Other
// values are returned unchanged.
func YouTubeEmbedURL(raw string) string {
	v := strings.TrimSpace(raw)
	for _, prefix := range []string{
		"https://www.youtube.com/watch?v=", "https://youtube.com/watch?v=", "https://m.youtube.com/watch?v=",
		"https://youtu.be/", "https://www.youtube.com/shorts/", "https://youtube.com/shorts/",
	} {
		if strings.HasPrefix(v, prefix) {
			id := strings.TrimPrefix(v, prefix)
			if i := strings.IndexAny(id, "&?#/"); i >= 0 {
				id = id[:i]
			}
			return "https://www.youtube.com/embed/" + id
		}
	}
	return v
}

func resolveStyle(t domain.Theme, f domain.Fonts) Style {
	primary := colorOr(t.PrimaryColor, darkText)
	base := backgroundBase(t)
	text := t.TextColor
	if !IsColor(text) {
		text = PickReadableOn(base, lightText, darkText)
	}
	buttonText := PickReadableOn(primary, lightText, darkText)
	if t.ButtonStyle == domain.ButtonStyleOutline || t.ButtonStyle == domain.ButtonStyleGlass {
		buttonText = text
	}
	return Style{
		Background:      BackgroundCSS(t),
		TextColor:       text,
		PrimaryColor:    primary,
		ButtonTextColor: buttonText,
		BorderColor:     colorOr(t.BorderColor, primary),
		ButtonStyle:     orDefault(t.ButtonStyle, domain.ButtonStyleSolid),
		IconStyle:       orDefault(t.IconStyle, domain.IconStyleBrand),
		Radius:          t.Radius,
		BorderWidth:     t.BorderWidth,
		HeadingFont:     fontOr(f.Heading),
		BodyFont:        fontOr(f.Body),
	}
}

// backgroundBase is the colour text is measured against. Image backgrounds
// are rendered under a dark overlay.
func backgroundBase(t domain.Theme) string {
	switch t.BackgroundType {
	case domain.BackgroundImage:
		return "#000000"
	default:
		return colorOr(t.BackgroundValue, "#FFFFFF")
	}
}

var gradientDirections = map[string]bool{
	"to right": true, "to left": true, "to bottom": true, "to top": true,
	"to bottom right": true, "to bottom left": true, "to top right": true, "to top left": true,
	"45deg": true, "90deg": true, "135deg": true, "180deg": true,
}

// BackgroundCSS returns the CSS background value of a theme. Inputs are
// validated so the result is safe to inline.
func BackgroundCSS(t domain.Theme) template.CSS {
	switch t.BackgroundType {
	case domain.BackgroundGradient:
		dir := t.GradientDirection
		if !gradientDirections[dir] {
			dir = "to bottom"
		}
		from := colorOr(t.BackgroundValue, "#FFFFFF")
		to := colorOr(t.BackgroundValue2, from)
		return template.CSS(fmt.Sprintf("linear-gradient(%s, %s, %s)", dir, from, to))
	case domain.BackgroundImage:
		u := cssURL(t.BackgroundValue)
		if u == "" {
			return template.CSS("#111827")
		}
		return template.CSS(fmt.Sprintf("linear-gradient(rgba(0,0,0,.45), rgba(0,0,0,.45)), url('%s') center / cover no-repeat", u))
	default:
		return template.CSS(colorOr(t.BackgroundValue, "#FFFFFF"))
	}
}

func visibleButtons(in []domain.ProfileButton) []ButtonView {
	btns := append([]domain.ProfileButton(nil), in...)
	sort.SliceStable(btns, func(i, j int) bool {
		if btns[i].Pinned != btns[j].Pinned {
			return btns[i].Pinned
		}
		return btns[i].SortOrder < btns[j].SortOrder
	})
	out := make([]ButtonView, 0, len(btns))
	for _, b := range btns {
		if !b.Enabled || b.Visibility == domain.VisibilityHidden {
			continue
		}
		out = append(out, buttonView(b))
	}
	return out
}

func buttonView(b domain.ProfileButton) ButtonView {
	meta := links.MetaFor(b.Type)
	label := b.Label
	if strings.TrimSpace(label) == "" {
		label = meta.Label
	}
	return ButtonView{
		ID:         b.ID,
		Type:       meta.Type,
		Label:      label,
		Href:       links.FormatLink(b.Type, b.Value),
		Icon:       meta.Icon,
		BrandColor: meta.BrandColor,
		Pinned:     b.Pinned,
	}
}

func hasActiveItem(items []domain.ShowcaseItem) bool {
	for _, it := range items {
		if it.IsActive {
			return true
		}
	}
	return false
}

func linkOrEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return links.FormatLink(links.DetectLinkType(v), v)
}

func colorOr(s, fallback string) string {
	if IsColor(s) {
		return strings.TrimSpace(s)
	}
	return fallback
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

func fontOr(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', ';', '{', '}', '<', '>', '(', ')', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "Inter"
	}
	return s
}

// IsImageURL reports whether raw is an absolute http(s) URL with a host.
func IsImageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// cssURL returns raw ready to sit inside url('...'). Every byte outside the
// URL-safe set is percent-encoded, so quotes, parentheses and angle
// brackets can never close the string or the style element.
func cssURL(raw string) string {
	v := strings.TrimSpace(raw)
	if !IsImageURL(v) {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if urlSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func urlSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~:/?#[]@!$&*+,;=%", c) >= 0
}
