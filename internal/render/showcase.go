package render

import (
	"html/template"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/links"
)

// ShowcasePage is the view tree of /u/{slug}/vitrine.
type ShowcasePage struct {
	Slug            string       `json:"slug"`
	URL             string       `json:"url"`
	ProfileURL      string       `json:"profileUrl"`
	DisplayName     string       `json:"displayName"`
	Headline        string       `json:"headline"`
	AvatarURL       string       `json:"avatarUrl"`
	CoverURL        string       `json:"coverUrl"`
	Header          Template     `json:"header"`
	ItemTemplate    Template     `json:"itemTemplate"`
	Style           Style        `json:"style"`
	ButtonColor     string       `json:"buttonColor"`
	ButtonTextColor string       `json:"buttonTextColor"`
	ButtonFill      template.CSS `json:"buttonFill"`
	HeaderButtons   []ButtonView `json:"headerButtons"`
	Items           []ItemView   `json:"items"`
	ShowBranding    bool         `json:"showBranding"`
}

// ItemView is an active showcase item ready for display.
type ItemView struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	DescriptionHTML template.HTML     `json:"descriptionHtml"`
	Kind            string            `json:"kind"`
	Price           string            `json:"price"`
	OriginalPrice   string            `json:"originalPrice,omitempty"`
	DiscountPercent int               `json:"discountPercent,omitempty"`
	Tag             string            `json:"tag,omitempty"`
	CTAHref         string            `json:"ctaHref"`
	CTALabel        string            `json:"ctaLabel"`
	MainImageURL    string            `json:"mainImageUrl"`
	Images          []string          `json:"images"`
	Options         []OptionView      `json:"options"`
	Testimonials    []TestimonialView `json:"testimonials"`
}

// OptionView is a priced variant.
type OptionView struct {
	Label string `json:"label"`
	Price string `json:"price"`
	Href  string `json:"href"`
}

// TestimonialView is a customer quote.
type TestimonialView struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
}

// RenderShowcase builds the vitrine page of a profile.
func RenderShowcase(agg *domain.ProfileAggregate, sc *domain.ShowcaseView, opts Options) *ShowcasePage {
	p := agg.Profile
	buttonColor := colorOr(sc.ButtonColor, colorOr(p.Theme.PrimaryColor, darkText))
	page := &ShowcasePage{
		Slug:            p.Slug,
		URL:             ShowcaseURL(opts.BaseURL, p.Slug),
		ProfileURL:      PublicURL(opts.BaseURL, p.Slug),
		DisplayName:     p.DisplayName,
		Headline:        p.Headline,
		AvatarURL:       p.AvatarURL,
		CoverURL:        p.CoverURL,
		Header:          LookupHeader(sc.HeaderTemplate),
		ItemTemplate:    LookupItem(sc.ItemTemplate),
		Style:           resolveStyle(p.Theme, p.Fonts),
		ButtonColor:     buttonColor,
		ButtonTextColor: PickReadableOn(buttonColor, lightText, darkText),
		ButtonFill:      buttonFill(buttonColor, sc.GradientEnabled, sc.SecondaryColor),
		HeaderButtons:   headerButtons(agg.Buttons, sc.HeaderButtonIDs),
		ShowBranding:    ShowBranding(p, opts.Plan),
	}

	items := append([]domain.ShowcaseItem(nil), sc.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	for _, it := range items {
		if !it.IsActive {
			continue
		}
		page.Items = append(page.Items, itemView(it))
	}
	return page
}

func buttonFill(primary string, gradient bool, secondary string) template.CSS {
	if gradient && IsColor(secondary) {
		return template.CSS("linear-gradient(135deg, " + primary + ", " + strings.TrimSpace(secondary) + ")")
	}
	return template.CSS(primary)
}

// headerButtons resolves ids in their configured order, skipping ids whose
// button was deleted or hidden.
func headerButtons(btns []domain.ProfileButton, ids []string) []ButtonView {
	byID := make(map[string]domain.ProfileButton, len(btns))
	for _, b := range btns {
		byID[b.ID] = b
	}
	var out []ButtonView
	for _, id := range ids {
		b, ok := byID[id]
		if !ok || !b.Enabled || b.Visibility == domain.VisibilityHidden {
			continue
		}
		out = append(out, buttonView(b))
		if len(out) == domain.MaxHeaderButtons {
			break
		}
	}
	return out
}

func itemView(it domain.ShowcaseItem) ItemView {
	v := ItemView{
		ID:              it.ID,
		Title:           it.Title,
		DescriptionHTML: Markdown(it.Description),
		Kind:            it.Kind,
		Price:           FormatPrice(it.BasePrice),
		Tag:             it.Tag,
		MainImageURL:    it.MainImageURL,
	}
	if it.OriginalPrice > it.BasePrice && it.BasePrice > 0 {
		v.OriginalPrice = FormatPrice(it.OriginalPrice)
		v.DiscountPercent = int(math.Round((1 - it.BasePrice/it.OriginalPrice) * 100))
	}
	v.CTAHref, v.CTALabel = ctaLink(it.CTAType, it.CTAValue, it.Title)

	images := append([]domain.ShowcaseImage(nil), it.Images...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].SortOrder < images[j].SortOrder })
	if it.MainImageURL != "" {
		v.Images = append(v.Images, it.MainImageURL)
	}
	for _, img := range images {
		if img.URL != "" && img.URL != it.MainImageURL {
			v.Images = append(v.Images, img.URL)
		}
	}

	opts := append([]domain.ShowcaseOption(nil), it.Options...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].SortOrder < opts[j].SortOrder })
	for _, o := range opts {
		href := v.CTAHref
		if o.LinkURL != "" {
			href = linkOrEmpty(o.LinkURL)
		} else if it.CTAType == domain.CTAWhatsApp {
			href, _ = ctaLink(it.CTAType, it.CTAValue, it.Title+" - "+o.Label)
		}
		v.Options = append(v.Options, OptionView{Label: o.Label, Price: FormatPrice(o.Price), Href: href})
	}

	tms := append([]domain.ShowcaseTestimonial(nil), it.Testimonials...)
	sort.SliceStable(tms, func(i, j int) bool { return tms[i].SortOrder < tms[j].SortOrder })
	for _, t := range tms {
		v.Testimonials = append(v.Testimonials, TestimonialView{
			Name: t.Name, Text: t.Text, AvatarURL: t.AvatarURL, ImageURL: t.ImageURL, VideoURL: t.VideoURL,
		})
	}
	return v
}

// ctaLink builds the call-to-action of an item. WhatsApp CTAs carry a
// prefilled message naming the item.
func ctaLink(ctaType, value, title string) (href, label string) {
	if strings.TrimSpace(value) == "" {
		return "", ""
	}
	if ctaType == domain.CTAWhatsApp {
		base := links.FormatLink(domain.ButtonWhatsApp, value)
		msg := "Olá! Tenho interesse em: " + title
		return base + "?text=" + url.QueryEscape(msg), "Comprar pelo WhatsApp"
	}
	return linkOrEmpty(value), "Comprar agora"
}
