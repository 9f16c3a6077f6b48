package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/slug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var draftTracer = otel.Tracer("service/drafts")

// DraftSessions holds the per-user working copies and the style clipboard.
type DraftSessions interface {
	editor.Clipboard
	Lock(userID string) func()
	Draft(userID, profileID string) (*editor.Draft, bool)
	PutDraft(userID, profileID string, d *editor.Draft)
	DropDraft(userID, profileID string)
}

// DraftView is the editor state returned to the UI: the working copy plus
// the plan entitlements used to render locked controls.
type DraftView struct {
	Profile  *domain.ProfileAggregate `json:"profile"`
	Dirty    bool                     `json:"dirty"`
	Plan     domain.PlanType          `json:"plan"`
	Features map[plans.Feature]bool   `json:"features"`
	Limits   plans.Limits             `json:"limits"`
}

// DraftService edits a profile aggregate in memory and persists it on save.
type DraftService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	sessions DraftSessions
	pages    port.PageCache
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDraftService creates a new draft service.
func NewDraftService(clients port.ClientStore, profiles port.ProfileStore, sessions DraftSessions, pages port.PageCache, metrics *observability.Metrics, logger *zap.Logger) *DraftService {
	return &DraftService{
		clients:  clients,
		profiles: profiles,
		sessions: sessions,
		pages:    pages,
		metrics:  metrics,
		logger:   logger,
	}
}

// Get returns the caller's draft of a profile, starting a clean one from
// the persisted aggregate when none exists.
func (s *DraftService) Get(ctx context.Context, p domain.Principal, profileID string) (*DraftView, error) {
	ctx, span := draftTracer.Start(ctx, "DraftService.Get")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}
	d, err := s.draft(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	return view(d, o.client.Plan), nil
}

// Apply merges one update command into the draft. Nothing is written to
// storage.
func (s *DraftService) Apply(ctx context.Context, p domain.Principal, profileID string, u editor.Update) (*DraftView, error) {
	ctx, span := draftTracer.Start(ctx, "DraftService.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.id", profileID),
		attribute.String("update.kind", string(u.Kind())),
	)

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}
	d, err := s.draft(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	if err := editor.Apply(o.client.Plan, d, u); err != nil {
		return nil, err
	}
	s.sessions.PutDraft(p.IdentityID, profileID, d)
	return view(d, o.client.Plan), nil
}

// Discard drops the caller's draft of a profile.
func (s *DraftService) Discard(ctx context.Context, p domain.Principal, profileID string) error {
	ctx, span := draftTracer.Start(ctx, "DraftService.Discard")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	if _, err := loadOwned(ctx, s.clients, s.profiles, p, profileID); err != nil {
		return err
	}
	s.sessions.DropDraft(p.IdentityID, profileID)
	return nil
}

// ============================================================
// Save
// ============================================================

// Save validates the draft and persists it: the root record first (write
// then confirm), then each child collection in order. A failing collection
// is recorded and the remaining ones still run; committed collections are
// not rolled back. Any failure returns the report together with
// ErrPartialSave and keeps the draft so the save can be retried.
func (s *DraftService) Save(ctx context.Context, p domain.Principal, profileID string) (*domain.SaveResult, error) {
	ctx, span := draftTracer.Start(ctx, "DraftService.Save")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", profileID))

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}

	d, ok := s.sessions.Draft(p.IdentityID, profileID)
	if !ok || !d.Dirty {
		agg, err := s.profiles.GetAggregate(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("get aggregate: %w", err)
		}
		return &domain.SaveResult{Profile: agg, Committed: []string{}}, nil
	}
	agg := d.Aggregate.Clone()
	agg.ID = profileID
	agg.ClientID = o.profile.ClientID

	if err := s.validate(ctx, o, agg); err != nil {
		return nil, err
	}

	root := agg.Profile
	saved, err := s.profiles.UpsertProfile(ctx, &root)
	if err != nil {
		s.metrics.IncrProfileSave(observability.OutcomeFailed)
		s.logger.Error("profile save failed",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save profile: %w", err)
	}
	// Collections sync under the confirmed root record.
	agg.Profile = *saved

	result := &domain.SaveResult{Committed: []string{"profile"}}
	failed := map[string]error{}
	steps := []struct {
		name string
		run  func() error
	}{
		{"buttons", func() error { return s.profiles.SyncButtons(ctx, profileID, agg.Buttons) }},
		{"catalog", func() error { return s.profiles.SyncCatalog(ctx, profileID, agg.CatalogItems) }},
		{"portfolio", func() error { return s.profiles.SyncPortfolio(ctx, profileID, agg.PortfolioItems) }},
		{"videos", func() error { return s.profiles.SyncVideos(ctx, profileID, agg.YoutubeVideos) }},
		{"scheduling", func() error { return s.profiles.SyncScheduling(ctx, profileID, agg.SchedulingSlots) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			s.logger.Error("profile collection sync failed",
				zap.String("profile_id", profileID),
				zap.String("collection", step.name),
				zap.Error(err),
			)
			failed[step.name] = err
			continue
		}
		result.Committed = append(result.Committed, step.name)
	}

	invalidatePages(ctx, s.pages, s.logger, o.profile.Slug, agg.Slug)

	confirmed, err := s.profiles.GetAggregate(ctx, profileID)
	if err != nil {
		s.logger.Warn("post-save read failed", zap.String("profile_id", profileID), zap.Error(err))
		confirmed = agg
	}
	result.Profile = confirmed

	if len(failed) > 0 {
		result.Failed = make(map[string]string, len(failed))
		for name, err := range failed {
			result.Failed[name] = err.Error()
		}
		s.metrics.IncrProfileSave(observability.OutcomePartial)
		return result, &domain.ErrPartialSave{Committed: result.Committed, Failed: failed}
	}

	s.sessions.DropDraft(p.IdentityID, profileID)
	s.metrics.IncrProfileSave(observability.OutcomeSuccess)
	s.logger.Info("profile saved",
		zap.String("client_id", o.client.ID),
		zap.String("profile_id", profileID),
	)
	return result, nil
}

// validate runs every pre-write check: slug format and uniqueness, and the
// community highlight quota of the plan.
func (s *DraftService) validate(ctx context.Context, o *owned, agg *domain.ProfileAggregate) error {
	if !slug.Valid(agg.Slug) {
		return &domain.ErrValidation{Field: "slug", Message: "use apenas letras minúsculas, números e hífens"}
	}
	if agg.Slug != o.profile.Slug {
		if err := ensureProfileSlugFree(ctx, s.profiles, agg.Slug, agg.ID); err != nil {
			return err
		}
	}

	if agg.CommunityEnabled && !o.profile.CommunityEnabled {
		if err := plans.Require(o.client.Plan, plans.FeatureCommunity); err != nil {
			return err
		}
		siblings, err := s.profiles.ListProfilesByClient(ctx, o.client.ID)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		highlighted := 0
		for _, sib := range siblings {
			if sib.ID != agg.ID && sib.CommunityEnabled {
				highlighted++
			}
		}
		limit := plans.GetPlanLimits(o.client.Plan).CommunityHighlights
		if highlighted >= limit {
			return &domain.ErrLimitExceeded{LimitType: "community_highlights", Limit: limit, Current: highlighted}
		}
	}
	return nil
}

// ============================================================
// Style clipboard
// ============================================================

// CopyStyle captures the working style of a profile into the caller's
// clipboard.
func (s *DraftService) CopyStyle(ctx context.Context, p domain.Principal, profileID string) (*editor.StyleSnapshot, error) {
	ctx, span := draftTracer.Start(ctx, "DraftService.CopyStyle")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	if _, err := loadOwned(ctx, s.clients, s.profiles, p, profileID); err != nil {
		return nil, err
	}
	d, err := s.draft(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	snap := editor.CopyStyle(d.Aggregate.Profile)
	s.sessions.Copy(p.IdentityID, snap)
	return &snap, nil
}

// PasteStyle merges the clipboard into the draft of another profile.
func (s *DraftService) PasteStyle(ctx context.Context, p domain.Principal, profileID string) (*DraftView, error) {
	ctx, span := draftTracer.Start(ctx, "DraftService.PasteStyle")
	defer span.End()

	unlock := s.sessions.Lock(p.IdentityID)
	defer unlock()

	o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
	if err != nil {
		return nil, err
	}
	snap, ok := s.sessions.Paste(p.IdentityID)
	if !ok {
		return nil, &domain.ErrValidation{Field: "clipboard", Message: "nenhum estilo copiado"}
	}
	d, err := s.draft(ctx, p, profileID)
	if err != nil {
		return nil, err
	}
	if err := editor.PasteStyle(o.client.Plan, d, snap); err != nil {
		return nil, err
	}
	s.sessions.PutDraft(p.IdentityID, profileID, d)
	return view(d, o.client.Plan), nil
}

// draft returns the session draft or loads a clean one. Callers hold the
// session lock.
func (s *DraftService) draft(ctx context.Context, p domain.Principal, profileID string) (*editor.Draft, error) {
	if d, ok := s.sessions.Draft(p.IdentityID, profileID); ok {
		return d, nil
	}
	agg, err := s.profiles.GetAggregate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	d := editor.NewDraft(agg)
	s.sessions.PutDraft(p.IdentityID, profileID, d)
	return d, nil
}

func view(d *editor.Draft, plan domain.PlanType) *DraftView {
	return &DraftView{
		Profile:  d.Aggregate,
		Dirty:    d.Dirty,
		Plan:     plan,
		Features: plans.FeatureMap(plan),
		Limits:   plans.GetPlanLimits(plan),
	}
}
