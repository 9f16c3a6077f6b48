package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/render"
	"github.com/boddenberg/linkbio-api-go/internal/showcase"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var showcaseTracer = otel.Tracer("service/showcase")

// ItemSessions hands out the per-user item editing sessions.
type ItemSessions interface {
	Lock(userID string) func()
	ItemSession(userID, showcaseID string) *showcase.ItemSession
}

// SettingsView is the optimistic local state of the showcase settings.
type SettingsView struct {
	Settings domain.ShowcaseSettings `json:"settings"`
	State    showcase.State          `json:"state"`
	Error    string                  `json:"error,omitempty"`
}

// ShowcaseService runs the vitrine sub-editor: settings autosave, items
// and the single-item editing session.
type ShowcaseService struct {
	clients   port.ClientStore
	profiles  port.ProfileStore
	showcases port.ShowcaseStore
	sessions  ItemSessions
	pages     port.PageCache
	metrics   *observability.Metrics
	autosave  *showcase.Registry
	logger    *zap.Logger

	// slugs maps showcase ids to profile slugs for cache invalidation
	// after background writes.
	slugs sync.Map
}

// NewShowcaseService creates the service and its autosave registry. The
// registry writes through to the store and invalidates the public page of
// the showcase after every successful write.
func NewShowcaseService(clients port.ClientStore, profiles port.ProfileStore, showcases port.ShowcaseStore, sessions ItemSessions, pages port.PageCache, metrics *observability.Metrics, opts showcase.AutosaveOptions, logger *zap.Logger) *ShowcaseService {
	s := &ShowcaseService{
		clients:   clients,
		profiles:  profiles,
		showcases: showcases,
		sessions:  sessions,
		pages:     pages,
		metrics:   metrics,
		logger:    logger,
	}
	observe := opts.OnWrite
	opts.OnWrite = func(err error) {
		if err != nil {
			metrics.IncrAutosaveWrite(observability.OutcomeFailed)
		} else {
			metrics.IncrAutosaveWrite(observability.OutcomeSuccess)
		}
		if observe != nil {
			observe(err)
		}
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	s.autosave = showcase.NewRegistry(settingsWriter{s}, opts)
	return s
}

// settingsWriter persists autosaved settings and drops the stale page.
type settingsWriter struct{ s *ShowcaseService }

func (w settingsWriter) UpdateSettings(ctx context.Context, showcaseID string, st domain.ShowcaseSettings) error {
	if err := w.s.showcases.UpdateSettings(ctx, showcaseID, st); err != nil {
		return err
	}
	if slug, ok := w.s.slugs.Load(showcaseID); ok {
		invalidatePages(ctx, w.s.pages, w.s.logger, slug.(string))
	}
	return nil
}

// Flush writes every pending autosave. Called on shutdown.
func (s *ShowcaseService) Flush(ctx context.Context) error {
	return s.autosave.FlushAll(ctx)
}

// ============================================================
// Showcase and settings
// ============================================================

// Ensure returns the profile's showcase with its items, creating it with
// default settings on first access. Settings reflect pending local changes.
func (s *ShowcaseService) Ensure(ctx context.Context, p domain.Principal, profileID string) (*domain.ShowcaseView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.Ensure")
	defer span.End()

	_, v, err := s.open(ctx, p, profileID)
	return v, err
}

// UpdateSettings merges a settings patch locally and schedules the write.
func (s *ShowcaseService) UpdateSettings(ctx context.Context, p domain.Principal, profileID string, patch *domain.ShowcaseSettingsPatch) (*SettingsView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.UpdateSettings")
	defer span.End()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.HeaderButtonIDs != nil {
		agg, err := s.profiles.GetAggregate(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("get aggregate: %w", err)
		}
		if err := showcase.ValidateHeaderButtons(*patch.HeaderButtonIDs, agg.Buttons); err != nil {
			return nil, err
		}
	}

	a := s.saver(&v.Showcase)
	a.Update(*patch)
	return settingsView(a), nil
}

// ToggleHeaderButton adds or removes a button from the showcase header.
func (s *ShowcaseService) ToggleHeaderButton(ctx context.Context, p domain.Principal, profileID, buttonID string) (*SettingsView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.ToggleHeaderButton")
	defer span.End()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	agg, err := s.profiles.GetAggregate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	a := s.saver(&v.Showcase)
	_, err = a.Modify(func(current domain.ShowcaseSettings) (domain.ShowcaseSettingsPatch, error) {
		ids, err := showcase.ToggleHeaderButton(current.HeaderButtonIDs, buttonID, agg.Buttons)
		if err != nil {
			return domain.ShowcaseSettingsPatch{}, err
		}
		return domain.ShowcaseSettingsPatch{HeaderButtonIDs: &ids}, nil
	})
	if err != nil {
		return nil, err
	}
	return settingsView(a), nil
}

// Settings reports the local settings state of the profile's showcase.
func (s *ShowcaseService) Settings(ctx context.Context, p domain.Principal, profileID string) (*SettingsView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.Settings")
	defer span.End()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	return settingsView(s.saver(&v.Showcase)), nil
}

// ============================================================
// Items
// ============================================================

// AddItem creates an item at the end of the showcase, within the plan cap.
func (s *ShowcaseService) AddItem(ctx context.Context, p domain.Principal, profileID string, item *domain.ShowcaseItem) (*domain.ShowcaseItem, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.AddItem")
	defer span.End()

	o, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	created, err := showcase.AddItem(ctx, s.showcases, o.client.Plan, v, *item)
	if err != nil {
		return nil, err
	}
	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug)

	s.logger.Info("showcase item added",
		zap.String("profile_id", profileID),
		zap.String("showcase_id", v.ID),
		zap.String("item_id", created.ID),
	)
	return created, nil
}

// OpenItem starts editing an item. Switching away from a dirty draft needs
// req.Discard.
func (s *ShowcaseService) OpenItem(ctx context.Context, p domain.Principal, profileID string, req *domain.OpenItemRequest) (*domain.ItemSessionView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.OpenItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", req.ItemID))

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	item, err := s.item(ctx, v, req.ItemID)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.ItemSession(p.IdentityID, v.ID)
	if err := sess.Open(item, req.Discard); err != nil {
		return nil, err
	}
	out := sess.View()
	return &out, nil
}

// EditItem replaces the draft of the open item.
func (s *ShowcaseService) EditItem(ctx context.Context, p domain.Principal, profileID string, item *domain.ShowcaseItem) (*domain.ItemSessionView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.EditItem")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.ItemSession(p.IdentityID, v.ID)
	if err := sess.Replace(*item); err != nil {
		return nil, err
	}
	out := sess.View()
	return &out, nil
}

// EditingItem reports the item editing session.
func (s *ShowcaseService) EditingItem(ctx context.Context, p domain.Principal, profileID string) (*domain.ItemSessionView, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.EditingItem")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	out := s.sessions.ItemSession(p.IdentityID, v.ID).View()
	return &out, nil
}

// SaveItem persists the open item with its images, options and
// testimonials, each replaced as a whole.
func (s *ShowcaseService) SaveItem(ctx context.Context, p domain.Principal, profileID string) (*domain.ShowcaseItem, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.SaveItem")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.ItemSession(p.IdentityID, v.ID)
	if sess.EditingItemID == "" || sess.Draft == nil {
		return nil, &domain.ErrValidation{Field: "itemId", Message: "nenhum item aberto para edição"}
	}
	draft := sess.Draft.Clone()
	if err := showcase.ValidateItem(draft); err != nil {
		return nil, err
	}
	saved, err := s.showcases.SaveItem(ctx, draft)
	if err != nil {
		s.logger.Error("showcase item save failed",
			zap.String("showcase_id", v.ID),
			zap.String("item_id", draft.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save item: %w", err)
	}
	sess.MarkSaved(saved)
	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug)

	s.logger.Info("showcase item saved",
		zap.String("showcase_id", v.ID),
		zap.String("item_id", saved.ID),
	)
	return saved, nil
}

// CloseItem ends the editing session. A dirty draft needs discard.
func (s *ShowcaseService) CloseItem(ctx context.Context, p domain.Principal, profileID string, discard bool) error {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.CloseItem")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	_, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return err
	}
	return s.sessions.ItemSession(p.IdentityID, v.ID).Close(discard)
}

// DeleteItem removes an item and compacts the order of the rest.
func (s *ShowcaseService) DeleteItem(ctx context.Context, p domain.Principal, profileID, itemID string) error {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.DeleteItem")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return err
	}
	if _, err := s.item(ctx, v, itemID); err != nil {
		return err
	}
	if err := s.showcases.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	sess := s.sessions.ItemSession(p.IdentityID, v.ID)
	if sess.EditingItemID == itemID {
		_ = sess.Close(true)
	}

	rest := make([]domain.ShowcaseItem, 0, len(v.Items))
	for _, it := range v.Items {
		if it.ID != itemID {
			rest = append(rest, it)
		}
	}
	rest = editor.Reindex(rest, func(it *domain.ShowcaseItem, i int) { it.SortOrder = i })
	if err := s.showcases.ReorderItems(ctx, rest); err != nil {
		s.logger.Warn("showcase reindex after delete failed", zap.String("showcase_id", v.ID), zap.Error(err))
	}
	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug)

	s.logger.Info("showcase item deleted",
		zap.String("showcase_id", v.ID),
		zap.String("item_id", itemID),
	)
	return nil
}

// ReorderItems applies a full ordering of the showcase items.
func (s *ShowcaseService) ReorderItems(ctx context.Context, p domain.Principal, profileID string, ids []string) ([]domain.ShowcaseItem, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.ReorderItems")
	defer span.End()

	o, v, err := s.open(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	ordered, err := showcase.ReorderItems(v.Items, ids)
	if err != nil {
		return nil, err
	}
	if err := s.showcases.ReorderItems(ctx, ordered); err != nil {
		return nil, fmt.Errorf("reorder items: %w", err)
	}
	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug)
	return ordered, nil
}

// ============================================================
// Internal helpers
// ============================================================

// open authorizes the caller, gates the showcase feature and loads (or
// creates) the showcase with its items.
func (s *ShowcaseService) open(ctx context.Context, p domain.Principal, profileID string) (*owned, *domain.ShowcaseView, error) {
	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, nil, err
	}
	if err := plans.Require(o.client.Plan, plans.FeatureShowcase); err != nil {
		return nil, nil, err
	}

	sc, err := s.showcases.GetShowcaseByProfile(ctx, profileID)
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, fmt.Errorf("get showcase: %w", err)
		}
		sc, err = s.showcases.CreateShowcase(ctx, defaultShowcase(o.profile))
		if err != nil {
			return nil, nil, fmt.Errorf("create showcase: %w", err)
		}
		s.logger.Info("showcase created",
			zap.String("profile_id", profileID),
			zap.String("showcase_id", sc.ID),
		)
	}
	s.slugs.Store(sc.ID, o.profile.Slug)

	items, err := s.showcases.ListItems(ctx, sc.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	if a, ok := s.autosave.Lookup(sc.ID); ok {
		st, _, _ := a.Settings()
		sc.ApplySettings(st)
	}
	return o, &domain.ShowcaseView{Showcase: *sc, Items: items}, nil
}

func (s *ShowcaseService) saver(sc *domain.Showcase) *showcase.Autosaver {
	return s.autosave.Get(sc.ID, sc.Settings)
}

// item loads an item and checks it belongs to the showcase.
func (s *ShowcaseService) item(ctx context.Context, v *domain.ShowcaseView, itemID string) (*domain.ShowcaseItem, error) {
	item, err := s.showcases.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ShowcaseID != v.ID {
		return nil, &domain.ErrNotFound{Resource: "showcase item", ID: itemID}
	}
	return item, nil
}

func defaultShowcase(p *domain.Profile) *domain.Showcase {
	color := p.Theme.PrimaryColor
	if !render.IsColor(color) {
		color = domain.DefaultTheme().PrimaryColor
	}
	return &domain.Showcase{
		ProfileID:       p.ID,
		ButtonColor:     color,
		ItemTemplate:    render.DefaultItem,
		HeaderTemplate:  render.DefaultHeader,
		HeaderButtonIDs: []string{},
	}
}

func validatePatch(patch *domain.ShowcaseSettingsPatch) error {
	if patch.ButtonColor != nil && !render.IsColor(*patch.ButtonColor) {
		return &domain.ErrValidation{Field: "buttonColor", Message: "cor inválida"}
	}
	if patch.SecondaryColor != nil && *patch.SecondaryColor != "" && !render.IsColor(*patch.SecondaryColor) {
		return &domain.ErrValidation{Field: "secondaryColor", Message: "cor inválida"}
	}
	if patch.ItemTemplate != nil && !render.IsItem(*patch.ItemTemplate) {
		return &domain.ErrValidation{Field: "itemTemplate", Message: "template desconhecido"}
	}
	if patch.HeaderTemplate != nil && !render.IsHeader(*patch.HeaderTemplate) {
		return &domain.ErrValidation{Field: "headerTemplate", Message: "template desconhecido"}
	}
	return nil
}

func settingsView(a *showcase.Autosaver) *SettingsView {
	st, state, err := a.Settings()
	v := &SettingsView{Settings: st, State: state}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}
