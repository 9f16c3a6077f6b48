package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

func TestLookup_FallsBackToDefaults(t *testing.T) {
	if got := LookupLayout("retired-template").ID; got != DefaultLayout {
		t.Errorf("LookupLayout fallback = %q", got)
	}
	if got := LookupLayout("").Name; got != "Minimal Card" {
		t.Errorf("LookupLayout(\"\").Name = %q", got)
	}
	if got := LookupHeader("nope").ID; got != "standard" {
		t.Errorf("LookupHeader fallback = %q", got)
	}
	if got := LookupItem("nope").ID; got != "modern" {
		t.Errorf("LookupItem fallback = %q", got)
	}
	if got := LookupLayout("neon").ID; got != "neon" {
		t.Errorf("LookupLayout(neon) = %q", got)
	}
	if !IsHeader("banner") || IsItem("banner") {
		t.Error("registry membership mismatch")
	}
}

func TestTemplates_ReturnsCopy(t *testing.T) {
	c := Templates()
	c.Layouts[0].ID = "mutated"
	if LookupLayout("minimal-card").ID != "minimal-card" {
		t.Error("Templates must not expose the registry")
	}
}

func sampleAggregate() *domain.ProfileAggregate {
	return &domain.ProfileAggregate{
		Profile: domain.Profile{
			ID:             "p1",
			Slug:           "studio",
			DisplayName:    "Studio",
			LayoutTemplate: "gone",
			Theme:          domain.DefaultTheme(),
			HideBranding:   true,
		},
		Buttons: []domain.ProfileButton{
			{ID: "b2", Type: domain.ButtonPhone, Value: "+55 11 3333-4444", Enabled: true, Visibility: domain.VisibilityPublic, SortOrder: 1},
			{ID: "b1", Type: domain.ButtonWhatsApp, Value: "(11) 99999-9999", Enabled: true, Visibility: domain.VisibilityPublic, SortOrder: 0},
			{ID: "b3", Type: domain.ButtonEmail, Value: "a@b.co", Enabled: false, SortOrder: 2},
			{ID: "b4", Type: domain.ButtonInstagram, Value: "@x", Enabled: true, Visibility: domain.VisibilityHidden, SortOrder: 3},
			{ID: "b5", Type: "myspace", Label: "Old", Value: "old.example.com", Enabled: true, Pinned: true, SortOrder: 4},
		},
		CatalogItems: []domain.CatalogItem{
			{ID: "c1", Title: "On", Price: 1234.5, IsActive: true},
			{ID: "c2", Title: "Off", IsActive: false},
		},
		YoutubeVideos: []domain.YoutubeVideoItem{
			{ID: "v1", URL: "https://youtu.be/abc123?t=4", IsActive: true},
		},
	}
}

func TestRenderProfile(t *testing.T) {
	page := RenderProfile(sampleAggregate(), nil, Options{Plan: domain.PlanPro, BaseURL: "https://lb.example/"})

	if page.Layout.ID != DefaultLayout {
		t.Errorf("layout = %q, want fallback", page.Layout.ID)
	}
	if page.URL != "https://lb.example/u/studio" {
		t.Errorf("URL = %q", page.URL)
	}
	var ids []string
	for _, b := range page.Buttons {
		ids = append(ids, b.ID)
	}
	if got := strings.Join(ids, ","); got != "b5,b1,b2" {
		t.Fatalf("buttons = %s, want b5,b1,b2", got)
	}
	if page.Buttons[0].Type != domain.ButtonWebsite || page.Buttons[0].Href != "https://old.example.com" {
		t.Errorf("unknown type not treated as website: %+v", page.Buttons[0])
	}
	if page.Buttons[1].Href != "https://wa.me/11999999999" {
		t.Errorf("whatsapp href = %q", page.Buttons[1].Href)
	}
	if len(page.Catalog) != 1 || page.Catalog[0].PriceLabel != "R$ 1.234,50" {
		t.Errorf("catalog = %+v", page.Catalog)
	}
	if len(page.Videos) != 1 || page.Videos[0].URL != "https://www.youtube.com/embed/abc123" {
		t.Errorf("videos = %+v", page.Videos)
	}
	// pro has no white-label, so hideBranding is ignored.
	if !page.ShowBranding {
		t.Error("branding hidden on a plan without white-label")
	}
	if page.Style.ButtonTextColor != lightText {
		t.Errorf("button text on dark primary = %q", page.Style.ButtonTextColor)
	}
}

func TestRenderProfile_WhiteLabelAndShowcaseLink(t *testing.T) {
	sc := &domain.ShowcaseView{Items: []domain.ShowcaseItem{{ID: "i1", IsActive: true}}}
	page := RenderProfile(sampleAggregate(), sc, Options{Plan: domain.PlanBusiness, BaseURL: "https://lb.example"})
	if page.ShowBranding {
		t.Error("business plan should honour hideBranding")
	}
	if page.ShowcaseURL != "https://lb.example/u/studio/vitrine" {
		t.Errorf("ShowcaseURL = %q", page.ShowcaseURL)
	}

	page = RenderProfile(sampleAggregate(), sc, Options{Plan: domain.PlanPro})
	if page.ShowcaseURL != "" {
		t.Error("showcase link rendered for a plan without showcase")
	}
}

func TestBackgroundCSS(t *testing.T) {
	th := domain.Theme{BackgroundType: domain.BackgroundGradient, BackgroundValue: "#000", BackgroundValue2: "#fff", GradientDirection: "to right"}
	if got := string(BackgroundCSS(th)); got != "linear-gradient(to right, #000, #fff)" {
		t.Errorf("gradient = %q", got)
	}
	th.GradientDirection = "); evil"
	if got := string(BackgroundCSS(th)); !strings.HasPrefix(got, "linear-gradient(to bottom,") {
		t.Errorf("invalid direction not replaced: %q", got)
	}
	img := domain.Theme{BackgroundType: domain.BackgroundImage, BackgroundValue: "https://cdn.example/a b'.jpg"}
	if got := string(BackgroundCSS(img)); !strings.Contains(got, "url('https://cdn.example/a%20b%27.jpg')") {
		t.Errorf("image = %q", got)
	}
	img.BackgroundValue = "javascript:alert(1)"
	if got := string(BackgroundCSS(img)); got != "#111827" {
		t.Errorf("non-http image = %q", got)
	}
	if got := string(BackgroundCSS(domain.Theme{BackgroundValue: "red;}"})); got != "#FFFFFF" {
		t.Errorf("invalid solid colour = %q", got)
	}
}

func TestRenderShowcase(t *testing.T) {
	agg := sampleAggregate()
	sc := &domain.ShowcaseView{
		Showcase: domain.Showcase{
			ButtonColor:     "#FFFFFF",
			HeaderTemplate:  "banner",
			ItemTemplate:    "removed",
			HeaderButtonIDs: []string{"b2", "deleted", "b4", "b1"},
		},
		Items: []domain.ShowcaseItem{
			{ID: "i2", Title: "Second", IsActive: true, SortOrder: 1, BasePrice: 80, OriginalPrice: 100,
				CTAType: domain.CTALink, CTAValue: "loja.example.com/p"},
			{ID: "i1", Title: "Kit", Description: "**novo**", IsActive: true, SortOrder: 0, BasePrice: 50,
				CTAType: domain.CTAWhatsApp, CTAValue: "11 98888-7777",
				Options: []domain.ShowcaseOption{{Label: "G", Price: 60}, {Label: "Link", LinkURL: "https://x.example/g"}}},
			{ID: "i3", Title: "Hidden", IsActive: false},
		},
	}
	page := RenderShowcase(agg, sc, Options{Plan: domain.PlanBusiness, BaseURL: "https://lb.example"})

	if page.Header.ID != "banner" || page.ItemTemplate.ID != DefaultItem {
		t.Errorf("templates = %s/%s", page.Header.ID, page.ItemTemplate.ID)
	}
	if page.ButtonTextColor != darkText {
		t.Errorf("text on white button = %q", page.ButtonTextColor)
	}
	if len(page.HeaderButtons) != 2 || page.HeaderButtons[0].ID != "b2" || page.HeaderButtons[1].ID != "b1" {
		t.Errorf("header buttons = %+v", page.HeaderButtons)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "i1" {
		t.Fatalf("items = %+v", page.Items)
	}
	kit := page.Items[0]
	if !strings.Contains(string(kit.DescriptionHTML), "<strong>novo</strong>") {
		t.Errorf("description = %q", kit.DescriptionHTML)
	}
	if !strings.HasPrefix(kit.CTAHref, "https://wa.me/11988887777?text=") {
		t.Errorf("cta = %q", kit.CTAHref)
	}
	if kit.Options[1].Href != "https://x.example/g" {
		t.Errorf("option link = %q", kit.Options[1].Href)
	}
	if page.Items[1].DiscountPercent != 20 || page.Items[1].OriginalPrice != "R$ 100,00" {
		t.Errorf("discount = %+v", page.Items[1])
	}
	if page.Items[1].CTAHref != "https://loja.example.com/p" {
		t.Errorf("link cta = %q", page.Items[1].CTAHref)
	}
}

func TestMarkdown_DropsRawHTML(t *testing.T) {
	out := string(Markdown("<script>alert(1)</script>\n\n[x](javascript:alert(1))"))
	if strings.Contains(out, "<script>") || strings.Contains(out, "javascript:") {
		t.Errorf("unsafe markdown output: %q", out)
	}
}

func TestHTML_Render(t *testing.T) {
	h, err := NewHTML()
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	var buf bytes.Buffer
	page := RenderProfile(sampleAggregate(), nil, Options{Plan: domain.PlanStarter, BaseURL: "https://lb.example"})
	if err := h.Profile(&buf, page); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	body := buf.String()
	for _, want := range []string{`href="tel:+551133334444"`, `href="https://wa.me/11999999999"`, "Feito com LinkBio", "layout-minimal-card"} {
		if !strings.Contains(body, want) {
			t.Errorf("profile HTML missing %q", want)
		}
	}

	buf.Reset()
	sc := &domain.ShowcaseView{Items: []domain.ShowcaseItem{{ID: "i1", Title: "Kit", IsActive: true, CTAType: domain.CTALink, CTAValue: "https://x.example"}}}
	if err := h.Showcase(&buf, RenderShowcase(sampleAggregate(), sc, Options{Plan: domain.PlanBusiness})); err != nil {
		t.Fatalf("Showcase: %v", err)
	}
	if !strings.Contains(buf.String(), `id="item-i1"`) {
		t.Error("showcase HTML missing item")
	}
}

func TestHTML_ImageBackgroundCannotEscapeStyle(t *testing.T) {
	h, err := NewHTML()
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	agg := sampleAggregate()
	agg.Theme.BackgroundType = domain.BackgroundImage
	agg.Theme.BackgroundValue = "https://x.example/</style><script>alert`1`</script>"

	var buf bytes.Buffer
	if err := h.Profile(&buf, RenderProfile(agg, nil, Options{Plan: domain.PlanPro})); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	body := buf.String()
	if strings.Contains(body, "<script>") || strings.Count(body, "</style>") != 1 {
		t.Fatalf("background escaped the style element:\n%s", body)
	}
	if !strings.Contains(body, "url('https://x.example/%3C/style%3E%3Cscript%3Ealert%601%60%3C/script%3E')") {
		t.Errorf("expected the encoded image url in the page")
	}
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://cdn.example/a.jpg", true},
		{"http://cdn.example/a.jpg", true},
		{"//cdn.example/a.jpg", false},
		{"javascript:alert(1)", false},
		{"https:///a.jpg", false},
		{"https://cdn.example/a\nb.jpg", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsImageURL(tt.in); got != tt.want {
			t.Errorf("IsImageURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, ""},
		{-3, ""},
		{9.9, "R$ 9,90"},
		{1234.5, "R$ 1.234,50"},
		{1234567.891, "R$ 1.234.567,89"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
