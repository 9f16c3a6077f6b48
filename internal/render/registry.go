package render

// Template is one entry of the shared template registry, consumed both by
// the editor's picker (GET /v1/templates) and by the renderer.
type Template struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Icon             string `json:"icon"`
	PreviewThumbnail string `json:"previewThumbnail"`
	Component        string `json:"component"`
}

// Default template ids. Unknown or removed ids always fall back to these so
// records created under a retired template keep rendering.
const (
	DefaultLayout = "minimal-card"
	DefaultHeader = "standard"
	DefaultItem   = "modern"
)

var layoutTemplates = []Template{
	{ID: "minimal-card", Name: "Minimal Card", Icon: "square", PreviewThumbnail: "/static/templates/layout-minimal-card.png", Component: "layout-minimal-card"},
	{ID: "glass", Name: "Glass", Icon: "sparkles", PreviewThumbnail: "/static/templates/layout-glass.png", Component: "layout-glass"},
	{ID: "neon", Name: "Neon", Icon: "zap", PreviewThumbnail: "/static/templates/layout-neon.png", Component: "layout-neon"},
	{ID: "elegant", Name: "Elegant", Icon: "feather", PreviewThumbnail: "/static/templates/layout-elegant.png", Component: "layout-elegant"},
	{ID: "bold", Name: "Bold", Icon: "bold", PreviewThumbnail: "/static/templates/layout-bold.png", Component: "layout-bold"},
	{ID: "photo-cover", Name: "Photo Cover", Icon: "image", PreviewThumbnail: "/static/templates/layout-photo-cover.png", Component: "layout-photo-cover"},
}

var headerTemplates = []Template{
	{ID: "standard", Name: "Padrão", Icon: "layout", PreviewThumbnail: "/static/templates/header-standard.png", Component: "header-standard"},
	{ID: "banner", Name: "Banner", Icon: "panorama", PreviewThumbnail: "/static/templates/header-banner.png", Component: "header-banner"},
	{ID: "centered", Name: "Centralizado", Icon: "align-center", PreviewThumbnail: "/static/templates/header-centered.png", Component: "header-centered"},
	{ID: "compact", Name: "Compacto", Icon: "minimize", PreviewThumbnail: "/static/templates/header-compact.png", Component: "header-compact"},
}

var itemTemplates = []Template{
	{ID: "modern", Name: "Moderno", Icon: "layout-grid", PreviewThumbnail: "/static/templates/item-modern.png", Component: "item-modern"},
	{ID: "classic", Name: "Clássico", Icon: "book", PreviewThumbnail: "/static/templates/item-classic.png", Component: "item-classic"},
	{ID: "grid", Name: "Grade", Icon: "grid", PreviewThumbnail: "/static/templates/item-grid.png", Component: "item-grid"},
	{ID: "list", Name: "Lista", Icon: "list", PreviewThumbnail: "/static/templates/item-list.png", Component: "item-list"},
}

// Catalog groups the registry for the picker UI.
type Catalog struct {
	Layouts []Template `json:"layouts"`
	Headers []Template `json:"headers"`
	Items   []Template `json:"items"`
}

// Templates returns a copy of the full registry.
func Templates() Catalog {
	return Catalog{
		Layouts: append([]Template(nil), layoutTemplates...),
		Headers: append([]Template(nil), headerTemplates...),
		Items:   append([]Template(nil), itemTemplates...),
	}
}

// LookupLayout resolves a profile layout id, falling back to Minimal Card.
func LookupLayout(id string) Template { return lookup(layoutTemplates, id, DefaultLayout) }

// LookupHeader resolves a showcase header id, falling back to standard.
func LookupHeader(id string) Template { return lookup(headerTemplates, id, DefaultHeader) }

// LookupItem resolves a showcase item id, falling back to modern.
func LookupItem(id string) Template { return lookup(itemTemplates, id, DefaultItem) }

// IsLayout reports whether id names a registered layout.
func IsLayout(id string) bool { return has(layoutTemplates, id) }

// IsHeader reports whether id names a registered header.
func IsHeader(id string) bool { return has(headerTemplates, id) }

// IsItem reports whether id names a registered item template.
func IsItem(id string) bool { return has(itemTemplates, id) }

func lookup(list []Template, id, fallback string) Template {
	var def Template
	for _, t := range list {
		if t.ID == id {
			return t
		}
		if t.ID == fallback {
			def = t
		}
	}
	return def
}

func has(list []Template, id string) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
