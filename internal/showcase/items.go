// Package showcase implements the vitrine sub-editor: the single-item
// editing session, header button selection, the plan item cap and the
// debounced autosave of global settings.
package showcase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
)

// ItemCreator persists a new showcase item.
type ItemCreator interface {
	CreateItem(ctx context.Context, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error)
}

// CanAddItem checks the showcase feature and the plan's item cap.
func CanAddItem(plan domain.PlanType, current int) error {
	if err := plans.Require(plan, plans.FeatureShowcase); err != nil {
		return err
	}
	limit := plans.GetPlanLimits(plan).MaxShowcaseItems
	if current >= limit {
		return &domain.ErrLimitExceeded{LimitType: "showcase_items", Limit: limit, Current: current}
	}
	return nil
}

// AddItem appends a new item to view. The cap is checked against the items
// already loaded, so a rejected add never reaches the store.
func AddItem(ctx context.Context, store ItemCreator, plan domain.PlanType, view *domain.ShowcaseView, item domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	if err := CanAddItem(plan, len(view.Items)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Title) == "" {
		item.Title = "Novo item"
	}
	if item.Kind == "" {
		item.Kind = domain.ItemPhysical
	}
	if item.CTAType == "" {
		item.CTAType = domain.CTAWhatsApp
	}
	if err := ValidateItem(&item); err != nil {
		return nil, err
	}
	item.ID = uuid.NewString()
	item.ShowcaseID = view.ID
	item.SortOrder = len(view.Items)
	item.IsActive = true

	created, err := store.CreateItem(ctx, &item)
	if err != nil {
		return nil, fmt.Errorf("creating showcase item: %w", err)
	}
	view.Items = append(view.Items, *created)
	return created, nil
}

// ValidateItem checks an item and normalizes the order of its collections.
func ValidateItem(it *domain.ShowcaseItem) error {
	if strings.TrimSpace(it.Title) == "" {
		return &domain.ErrValidation{Field: "title", Message: "is required"}
	}
	if it.Kind != domain.ItemPhysical && it.Kind != domain.ItemDigital {
		return &domain.ErrValidation{Field: "kind", Message: "must be physical or digital"}
	}
	if it.CTAType != domain.CTAWhatsApp && it.CTAType != domain.CTALink {
		return &domain.ErrValidation{Field: "ctaType", Message: "must be whatsapp or link"}
	}
	if it.BasePrice < 0 || it.OriginalPrice < 0 {
		return &domain.ErrValidation{Field: "price", Message: "must not be negative"}
	}
	for i, o := range it.Options {
		if strings.TrimSpace(o.Label) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("options[%d].label", i), Message: "is required"}
		}
		if o.Price < 0 {
			return &domain.ErrValidation{Field: fmt.Sprintf("options[%d].price", i), Message: "must not be negative"}
		}
	}
	for i, t := range it.Testimonials {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Text) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("testimonials[%d]", i), Message: "name and text are required"}
		}
	}

	it.Images = editor.Reindex(it.Images, func(img *domain.ShowcaseImage, i int) {
		img.SortOrder = i
		img.ItemID = it.ID
	})
	it.Options = editor.Reindex(it.Options, func(o *domain.ShowcaseOption, i int) {
		o.SortOrder = i
		o.ItemID = it.ID
	})
	it.Testimonials = editor.Reindex(it.Testimonials, func(t *domain.ShowcaseTestimonial, i int) {
		t.SortOrder = i
		t.ItemID = it.ID
	})
	return nil
}

// ReorderItems returns items in the order of ids with contiguous sortOrder.
// ids must be a permutation of the item ids.
func ReorderItems(items []domain.ShowcaseItem, ids []string) ([]domain.ShowcaseItem, error) {
	if len(ids) != len(items) {
		return nil, &domain.ErrValidation{Field: "ids", Message: "must list every item exactly once"}
	}
	byID := make(map[string]domain.ShowcaseItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]domain.ShowcaseItem, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, &domain.ErrValidation{Field: "ids", Message: "must list every item exactly once"}
		}
		delete(byID, id)
		out = append(out, it)
	}
	return editor.Reindex(out, func(it *domain.ShowcaseItem, i int) { it.SortOrder = i }), nil
}

// ItemSession tracks the single item open for edit.
type ItemSession struct {
	EditingItemID string
	Draft         *domain.ShowcaseItem
	Dirty         bool
}

// Open starts editing item. Switching away from a dirty draft requires
// discard; reopening the same item keeps its draft unless discard is set.
func (s *ItemSession) Open(item *domain.ShowcaseItem, discard bool) error {
	if s.Dirty && !discard {
		if s.EditingItemID != item.ID {
			return &domain.ErrUnsavedChanges{ItemID: s.EditingItemID}
		}
		return nil
	}
	s.EditingItemID = item.ID
	s.Draft = item.Clone()
	s.Dirty = false
	return nil
}

// Replace swaps the draft for an edited copy of the open item.
func (s *ItemSession) Replace(item domain.ShowcaseItem) error {
	if s.EditingItemID == "" {
		return &domain.ErrValidation{Field: "itemId", Message: "no item is open for edit"}
	}
	if item.ID != s.EditingItemID {
		return &domain.ErrValidation{Field: "itemId", Message: fmt.Sprintf("item %s is not the one open for edit", item.ID)}
	}
	item.ShowcaseID = s.Draft.ShowcaseID
	if err := ValidateItem(&item); err != nil {
		return err
	}
	s.Draft = item.Clone()
	s.Dirty = true
	return nil
}

// MarkSaved records a successful persist of the draft.
func (s *ItemSession) MarkSaved(saved *domain.ShowcaseItem) {
	s.Draft = saved.Clone()
	s.Dirty = false
}

// Close ends the session. A dirty draft needs discard.
func (s *ItemSession) Close(discard bool) error {
	if s.Dirty && !discard {
		return &domain.ErrUnsavedChanges{ItemID: s.EditingItemID}
	}
	*s = ItemSession{}
	return nil
}

// View reports the session state.
func (s *ItemSession) View() domain.ItemSessionView {
	return domain.ItemSessionView{EditingItemID: s.EditingItemID, Draft: s.Draft.Clone(), Dirty: s.Dirty}
}
