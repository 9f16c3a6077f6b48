// Package links canonicalizes button values into URLs and resolves the icon
// and brand colour of each button type. The renderer and the event
// normalizer key off the same type strings.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

// Meta is the presentation data of a button type.
type Meta struct {
	Type       domain.ButtonType `json:"type"`
	Label      string            `json:"label"`
	Icon       string            `json:"icon"`
	BrandColor string            `json:"brandColor"`
}

var metas = map[domain.ButtonType]Meta{
	domain.ButtonWhatsApp:  {domain.ButtonWhatsApp, "WhatsApp", "whatsapp", "#25D366"},
	domain.ButtonPhone:     {domain.ButtonPhone, "Telefone", "phone", "#0EA5E9"},
	domain.ButtonEmail:     {domain.ButtonEmail, "E-mail", "mail", "#EA4335"},
	domain.ButtonInstagram: {domain.ButtonInstagram, "Instagram", "instagram", "#E1306C"},
	domain.ButtonFacebook:  {domain.ButtonFacebook, "Facebook", "facebook", "#1877F2"},
	domain.ButtonTikTok:    {domain.ButtonTikTok, "TikTok", "tiktok", "#000000"},
	domain.ButtonYouTube:   {domain.ButtonYouTube, "YouTube", "youtube", "#FF0000"},
	domain.ButtonLinkedIn:  {domain.ButtonLinkedIn, "LinkedIn", "linkedin", "#0A66C2"},
	domain.ButtonTwitter:   {domain.ButtonTwitter, "X (Twitter)", "twitter", "#000000"},
	domain.ButtonTelegram:  {domain.ButtonTelegram, "Telegram", "telegram", "#26A5E4"},
	domain.ButtonThreads:   {domain.ButtonThreads, "Threads", "threads", "#000000"},
	domain.ButtonPinterest: {domain.ButtonPinterest, "Pinterest", "pinterest", "#E60023"},
	domain.ButtonSpotify:   {domain.ButtonSpotify, "Spotify", "spotify", "#1DB954"},
	domain.ButtonGitHub:    {domain.ButtonGitHub, "GitHub", "github", "#181717"},
	domain.ButtonMaps:      {domain.ButtonMaps, "Localização", "map-pin", "#34A853"},
	domain.ButtonWebsite:   {domain.ButtonWebsite, "Site", "globe", "#6B7280"},
}

// handleBase is the profile URL prefix of handle-style networks.
var handleBase = map[domain.ButtonType]string{
	domain.ButtonInstagram: "https://instagram.com/",
	domain.ButtonFacebook:  "https://facebook.com/",
	domain.ButtonTikTok:    "https://tiktok.com/@",
	domain.ButtonYouTube:   "https://youtube.com/@",
	domain.ButtonLinkedIn:  "https://linkedin.com/in/",
	domain.ButtonTwitter:   "https://x.com/",
	domain.ButtonTelegram:  "https://t.me/",
	domain.ButtonThreads:   "https://threads.net/@",
	domain.ButtonPinterest: "https://pinterest.com/",
	domain.ButtonGitHub:    "https://github.com/",
}

// domains are the hostnames DetectLinkType and FormatLink recognise per type.
var domains = []struct {
	typ   domain.ButtonType
	hosts []string
}{
	{domain.ButtonWhatsApp, []string{"wa.me", "whatsapp.com", "api.whatsapp"}},
	{domain.ButtonInstagram, []string{"instagram.com", "instagr.am"}},
	{domain.ButtonFacebook, []string{"facebook.com", "fb.com", "fb.me"}},
	{domain.ButtonTikTok, []string{"tiktok.com"}},
	{domain.ButtonYouTube, []string{"youtube.com", "youtu.be"}},
	{domain.ButtonLinkedIn, []string{"linkedin.com"}},
	{domain.ButtonTwitter, []string{"twitter.com", "x.com"}},
	{domain.ButtonTelegram, []string{"t.me", "telegram.me", "telegram.org"}},
	{domain.ButtonThreads, []string{"threads.net"}},
	{domain.ButtonPinterest, []string{"pinterest.com", "pin.it"}},
	{domain.ButtonSpotify, []string{"spotify.com", "spotify.link"}},
	{domain.ButtonGitHub, []string{"github.com"}},
	{domain.ButtonMaps, []string{"maps.google", "google.com/maps", "goo.gl/maps", "maps.app.goo.gl", "waze.com"}},
}

var (
	nonDigits  = regexp.MustCompile(`[^0-9]`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9\s().-]{8,}$`)
)

// IsKnown reports whether t is one of the supported button types.
func IsKnown(t domain.ButtonType) bool {
	_, ok := metas[t]
	return ok
}

// Normalize maps unknown types onto the website treatment.
func Normalize(t domain.ButtonType) domain.ButtonType {
	if IsKnown(t) {
		return t
	}
	return domain.ButtonWebsite
}

// MetaFor returns the icon/colour/label of t, falling back to website.
func MetaFor(t domain.ButtonType) Meta {
	return metas[Normalize(t)]
}

// FormatLink turns a raw button value into the href used by the public page.
func FormatLink(t domain.ButtonType, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}

	switch Normalize(t) {
	case domain.ButtonWhatsApp:
		if hasScheme(v) {
			return v
		}
		if containsHost(v, domain.ButtonWhatsApp) {
			return "https://" + v
		}
		return "https://wa.me/" + digits(v)

	case domain.ButtonPhone:
		if strings.HasPrefix(strings.ToLower(v), "tel:") {
			return v
		}
		d := digits(v)
		if strings.HasPrefix(v, "+") {
			return "tel:+" + d
		}
		return "tel:" + d

	case domain.ButtonEmail:
		if strings.HasPrefix(strings.ToLower(v), "mailto:") {
			return v
		}
		return "mailto:" + v

	case domain.ButtonMaps:
		if hasScheme(v) {
			return v
		}
		if containsHost(v, domain.ButtonMaps) {
			return "https://" + v
		}
		return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(v)

	case domain.ButtonWebsite, domain.ButtonSpotify:
		if hasScheme(v) {
			return v
		}
		return "https://" + v
	}

	// Handle-style networks.
	if hasScheme(v) {
		return v
	}
	if containsHost(v, t) {
		return "https://" + v
	}
	handle := strings.TrimPrefix(v, "@")
	return handleBase[t] + handle
}

// DetectLinkType infers the button type of a pasted value. Ambiguous input
// resolves to website.
func DetectLinkType(value string) domain.ButtonType {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return domain.ButtonWebsite
	}
	if strings.HasPrefix(v, "mailto:") || emailRegex.MatchString(v) {
		return domain.ButtonEmail
	}
	if strings.HasPrefix(v, "tel:") {
		return domain.ButtonPhone
	}
	if t, ok := typeForHost(v); ok {
		return t
	}
	if phoneRegex.MatchString(v) && len(digits(v)) >= 8 {
		return domain.ButtonPhone
	}
	return domain.ButtonWebsite
}

func hasScheme(v string) bool {
	l := strings.ToLower(v)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func containsHost(v string, t domain.ButtonType) bool {
	got, ok := typeForHost(v)
	return ok && got == t
}

// typeForHost matches the host (and path, for path-qualified entries) of v
// against the known network domains.
func typeForHost(v string) (domain.ButtonType, bool) {
	raw := strings.ToLower(strings.TrimSpace(v))
	if !hasScheme(raw) {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	hostPath := host + u.Path

	for _, d := range domains {
		for _, h := range d.hosts {
			if strings.Contains(h, "/") {
				if strings.HasPrefix(hostPath, h) {
					return d.typ, true
				}
				continue
			}
			if host == h || strings.HasSuffix(host, "."+h) || strings.HasPrefix(host, h+".") {
				return d.typ, true
			}
		}
	}
	return "", false
}

func digits(v string) string {
	return nonDigits.ReplaceAllString(v, "")
}
