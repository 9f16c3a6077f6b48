package editor

import (
	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
)

// Draft is the working copy of one profile aggregate.
type Draft struct {
	Aggregate *domain.ProfileAggregate `json:"profile"`
	Dirty     bool                     `json:"dirty"`
}

// NewDraft starts a clean draft from a persisted aggregate.
func NewDraft(agg *domain.ProfileAggregate) *Draft {
	return &Draft{Aggregate: agg.Clone()}
}

// Apply gates u against plan, merges it into the draft and marks it dirty.
// On error the draft is left unchanged.
func Apply(plan domain.PlanType, d *Draft, u Update) error {
	for _, f := range u.requires() {
		if err := plans.Require(plan, f); err != nil {
			return err
		}
	}
	next := d.Aggregate.Clone()
	if err := u.apply(next); err != nil {
		return err
	}
	d.Aggregate = next
	d.Dirty = true
	return nil
}

// StyleSnapshot is the unit copied between profiles by the style clipboard.
type StyleSnapshot struct {
	Theme           domain.Theme `json:"theme"`
	Fonts           domain.Fonts `json:"fonts"`
	LayoutTemplate  string       `json:"layoutTemplate"`
	SourceProfileID string       `json:"sourceProfileId"`
}

// Clipboard holds one style snapshot per user session.
type Clipboard interface {
	Copy(userID string, s StyleSnapshot)
	Paste(userID string) (StyleSnapshot, bool)
	Clear(userID string)
}

// CopyStyle captures the style of a profile.
func CopyStyle(p domain.Profile) StyleSnapshot {
	return StyleSnapshot{
		Theme:           p.Theme,
		Fonts:           p.Fonts,
		LayoutTemplate:  p.LayoutTemplate,
		SourceProfileID: p.ID,
	}
}

// PasteStyle merges a snapshot into the draft. Pasting onto the source
// profile is rejected. Fonts are only carried over when the plan allows
// custom fonts.
func PasteStyle(plan domain.PlanType, d *Draft, s StyleSnapshot) error {
	if s.SourceProfileID == d.Aggregate.ID {
		return &domain.ErrValidation{Field: "clipboard", Message: "o estilo copiado é deste mesmo perfil"}
	}
	next := d.Aggregate.Clone()
	next.Theme = s.Theme
	next.LayoutTemplate = s.LayoutTemplate
	if plans.CanAccessFeature(plan, plans.FeatureCustomFonts) {
		next.Fonts = s.Fonts
	}
	d.Aggregate = next
	d.Dirty = true
	return nil
}
