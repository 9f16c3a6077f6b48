// Package events turns loosely-typed analytics records into readable labels
// by reconciling them against the current profile content.
package events

import (
	"sort"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/links"
)

// RemovedLabel is used when nothing about an event can be resolved.
const RemovedLabel = "Link removido"

var viewLabels = map[string]string{
	domain.EventProfileView:  "Visita ao perfil",
	domain.EventShowcaseView: "Visita à vitrine",
	domain.EventShare:        "Compartilhamento",
}

// ValidType reports whether t is a recorded event type.
func ValidType(t string) bool {
	switch t {
	case domain.EventProfileView, domain.EventShowcaseView, domain.EventButtonClick, domain.EventItemClick, domain.EventShare:
		return true
	}
	return false
}

// Normalizer resolves labels against one profile's content. Build it once
// per report.
type Normalizer struct {
	buttons      map[string]domain.ProfileButton
	buttonByHref map[string]domain.ProfileButton
	items        map[string]string
}

// NewNormalizer indexes the aggregate and its showcase items.
func NewNormalizer(agg *domain.ProfileAggregate, showcaseItems []domain.ShowcaseItem) *Normalizer {
	n := &Normalizer{
		buttons:      make(map[string]domain.ProfileButton),
		buttonByHref: make(map[string]domain.ProfileButton),
		items:        make(map[string]string),
	}
	if agg != nil {
		for _, b := range agg.Buttons {
			n.buttons[b.ID] = b
			if href := links.FormatLink(b.Type, b.Value); href != "" {
				n.buttonByHref[canonical(href)] = b
			}
		}
		for _, c := range agg.CatalogItems {
			n.items[c.ID] = c.Title
		}
	}
	for _, it := range showcaseItems {
		n.items[it.ID] = it.Title
	}
	return n
}

// Label resolves an event. Precedence: view type, button id, item id,
// button whose formatted link equals the URL, link type named in the label,
// link type detected from the URL, raw label, RemovedLabel.
func (n *Normalizer) Label(ev domain.AnalyticsEvent) string {
	if l, ok := viewLabels[ev.Type]; ok {
		return l
	}
	if b, ok := n.buttons[ev.ButtonID]; ok && ev.ButtonID != "" {
		return buttonLabel(b)
	}
	if title, ok := n.items[ev.ItemID]; ok && ev.ItemID != "" {
		return title
	}
	if ev.URL != "" {
		if b, ok := n.buttonByHref[canonical(ev.URL)]; ok {
			return buttonLabel(b)
		}
	}
	if t, ok := typeInLabel(ev.Label); ok {
		return links.MetaFor(t).Label
	}
	if ev.URL != "" {
		if t := links.DetectLinkType(ev.URL); t != domain.ButtonWebsite {
			return links.MetaFor(t).Label
		}
	}
	if l := strings.TrimSpace(ev.Label); l != "" {
		return l
	}
	return RemovedLabel
}

// Normalize labels one event against the given content.
func Normalize(ev domain.AnalyticsEvent, agg *domain.ProfileAggregate, showcaseItems []domain.ShowcaseItem) string {
	return NewNormalizer(agg, showcaseItems).Label(ev)
}

// Report labels every event and counts them per label, most frequent first.
func Report(profileID string, evs []domain.AnalyticsEvent, agg *domain.ProfileAggregate, showcaseItems []domain.ShowcaseItem) *domain.AnalyticsReport {
	n := NewNormalizer(agg, showcaseItems)
	report := &domain.AnalyticsReport{
		ProfileID: profileID,
		Total:     len(evs),
		Events:    make([]domain.LabeledEvent, 0, len(evs)),
	}
	counts := make(map[string]int)
	for _, ev := range evs {
		label := n.Label(ev)
		counts[label]++
		report.Events = append(report.Events, domain.LabeledEvent{AnalyticsEvent: ev, DisplayLabel: label})
	}
	report.ByLabel = Summarize(counts)
	return report
}

// Summarize orders label counts by count desc, then label.
func Summarize(counts map[string]int) []domain.LabelCount {
	out := make([]domain.LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, domain.LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func buttonLabel(b domain.ProfileButton) string {
	if l := strings.TrimSpace(b.Label); l != "" {
		return l
	}
	return links.MetaFor(b.Type).Label
}

func typeInLabel(label string) (domain.ButtonType, bool) {
	l := strings.ToLower(label)
	if l == "" {
		return "", false
	}
	for _, t := range domain.AllButtonTypes {
		if strings.Contains(l, string(t)) {
			return t, true
		}
	}
	return "", false
}

func canonical(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}
