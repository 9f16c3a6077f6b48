package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/service"
	"github.com/boddenberg/linkbio-api-go/internal/session"

	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

type draftFixture struct {
	store   *memStore
	pages   *cache.MemoryPages
	metrics *observability.Metrics
	svc     *service.DraftService
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()
	store := newMemStore()
	sessions := session.New(time.Hour)
	pages := cache.NewMemoryPages(time.Minute)
	t.Cleanup(func() {
		sessions.Close()
		pages.Close()
	})
	metrics := observability.NewMetrics()
	return &draftFixture{
		store:   store,
		pages:   pages,
		metrics: metrics,
		svc:     service.NewDraftService(store, store, sessions, pages, metrics, zap.NewNop()),
	}
}

func TestDraft_ApplyDoesNotWrite(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()

	v, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.IdentityUpdate{DisplayName: strPtr("Ana Souza")})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !v.Dirty || v.Profile.DisplayName != "Ana Souza" {
		t.Errorf("expected dirty draft with new name, got dirty=%v name=%q", v.Dirty, v.Profile.DisplayName)
	}

	stored, _ := f.store.GetProfile(ctx, p.ID)
	if stored.DisplayName != p.DisplayName {
		t.Errorf("store should be untouched before save, got %q", stored.DisplayName)
	}
}

func TestDraft_SaveCommitsAndInvalidates(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()
	f.pages.Set(ctx, cache.PageKey("ana", cache.VariantHTML), []byte("stale"))

	if _, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.ButtonUpsert{Button: domain.ProfileButton{
		Type: domain.ButtonInstagram, Label: "Instagram", Value: "@ana", Enabled: true, Visibility: domain.VisibilityPublic,
	}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	res, err := f.svc.Save(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(res.Committed) != 6 {
		t.Errorf("expected profile plus 5 collections committed, got %v", res.Committed)
	}
	if len(res.Profile.Buttons) != 1 {
		t.Errorf("expected saved button read back, got %d", len(res.Profile.Buttons))
	}
	if _, ok := f.pages.Get(ctx, cache.PageKey("ana", cache.VariantHTML)); ok {
		t.Error("expected cached page to be invalidated")
	}
	if got := f.metrics.Snapshot().ProfileSaves[observability.OutcomeSuccess]; got != 1 {
		t.Errorf("expected 1 successful save recorded, got %d", got)
	}

	v, err := f.svc.Get(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Dirty {
		t.Error("expected a clean draft after a full save")
	}
}

func TestDraft_SavePartialFailureKeepsDraft(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()
	f.store.failSync["catalog"] = errors.New("connection reset")

	if _, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.IdentityUpdate{Headline: strPtr("Doces artesanais")}); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Save(ctx, principalFor(c), p.ID)
	var partial *domain.ErrPartialSave
	if !errors.As(err, &partial) {
		t.Fatalf("expected ErrPartialSave, got %v", err)
	}
	if res == nil {
		t.Fatal("expected a save report with the partial error")
	}
	if _, ok := res.Failed["catalog"]; !ok {
		t.Errorf("expected catalog in failed set, got %v", res.Failed)
	}
	for _, name := range res.Committed {
		if name == "catalog" {
			t.Error("catalog must not be reported as committed")
		}
	}
	stored, _ := f.store.GetProfile(ctx, p.ID)
	if stored.Headline != "Doces artesanais" {
		t.Error("committed root must not be rolled back")
	}

	v, err := f.svc.Get(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Dirty {
		t.Error("expected the draft to stay dirty for a retry")
	}
	if got := f.metrics.Snapshot().ProfileSaves[observability.OutcomePartial]; got != 1 {
		t.Errorf("expected 1 partial save recorded, got %d", got)
	}
}

func TestDraft_SaveWithoutChanges(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanStarter, "ana")

	res, err := f.svc.Save(context.Background(), principalFor(c), p.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(res.Committed) != 0 {
		t.Errorf("expected nothing committed, got %v", res.Committed)
	}
}

func TestDraft_CommunityHighlightQuota(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()

	// Pro allows one highlighted profile; take it with a sibling.
	f.store.mu.Lock()
	f.store.profiles["profile-sibling"] = domain.Profile{ID: "profile-sibling", ClientID: c.ID, Slug: "ana-loja", CommunityEnabled: true}
	f.store.mu.Unlock()

	if _, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.CommunityUpdate{Enabled: true, Segment: "Alimentação"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := f.svc.Save(ctx, principalFor(c), p.ID)
	var limit *domain.ErrLimitExceeded
	if !errors.As(err, &limit) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if limit.LimitType != "community_highlights" || limit.Limit != 1 {
		t.Errorf("unexpected limit: %+v", limit)
	}
}

func TestDraft_SlugConflict(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	f.store.seedClient(domain.PlanPro, "bia")
	ctx := context.Background()

	if _, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.IdentityUpdate{Slug: strPtr("bia")}); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Save(ctx, principalFor(c), p.ID)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDraft_FeatureLockedUpdate(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanStarter, "ana")

	_, err := f.svc.Apply(context.Background(), principalFor(c), p.ID, editor.CatalogUpdate{Items: []domain.CatalogItem{{Title: "Bolo"}}})
	var locked *domain.ErrFeatureLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrFeatureLocked, got %v", err)
	}
}

func TestDraft_OtherTenantForbidden(t *testing.T) {
	f := newDraftFixture(t)
	_, p := f.store.seedClient(domain.PlanPro, "ana")
	intruder, _ := f.store.seedClient(domain.PlanPro, "bia")

	_, err := f.svc.Get(context.Background(), principalFor(intruder), p.ID)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDraft_CopyPasteStyle(t *testing.T) {
	f := newDraftFixture(t)
	c, src := f.store.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()
	dst := domain.Profile{ID: "profile-dst", ClientID: c.ID, Slug: "ana-2", Theme: domain.DefaultTheme()}
	f.store.mu.Lock()
	f.store.profiles[dst.ID] = dst
	f.store.mu.Unlock()

	if _, err := f.svc.PasteStyle(ctx, principalFor(c), dst.ID); err == nil {
		t.Fatal("expected error with an empty clipboard")
	}

	theme := domain.DefaultTheme()
	theme.PrimaryColor = "#FF0066"
	if _, err := f.svc.Apply(ctx, principalFor(c), src.ID, editor.ThemeUpdate{Theme: theme}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CopyStyle(ctx, principalFor(c), src.ID); err != nil {
		t.Fatalf("copy: %v", err)
	}
	v, err := f.svc.PasteStyle(ctx, principalFor(c), dst.ID)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	if v.Profile.Theme.PrimaryColor != "#FF0066" || !v.Dirty {
		t.Errorf("expected pasted theme on a dirty draft, got %+v", v.Profile.Theme)
	}
}

// stampingStore stamps UpdatedAt on the root write and can fail aggregate
// reads, leaving the service with only the write's returned record.
type stampingStore struct {
	*memStore
	stamp     time.Time
	failReads bool
}

func (s *stampingStore) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	out, err := s.memStore.UpsertProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	out.UpdatedAt = s.stamp
	return out, nil
}

func (s *stampingStore) GetAggregate(ctx context.Context, id string) (*domain.ProfileAggregate, error) {
	if s.failReads {
		return nil, errors.New("read timeout")
	}
	return s.memStore.GetAggregate(ctx, id)
}

func TestDraft_SaveUsesConfirmedRootRecord(t *testing.T) {
	mem := newMemStore()
	store := &stampingStore{memStore: mem, stamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	sessions := session.New(time.Hour)
	pages := cache.NewMemoryPages(time.Minute)
	t.Cleanup(func() {
		sessions.Close()
		pages.Close()
	})
	svc := service.NewDraftService(mem, store, sessions, pages, observability.NewMetrics(), zap.NewNop())
	c, p := mem.seedClient(domain.PlanPro, "ana")
	ctx := context.Background()

	if _, err := svc.Apply(ctx, principalFor(c), p.ID, editor.IdentityUpdate{Headline: strPtr("Bolos")}); err != nil {
		t.Fatal(err)
	}
	store.failReads = true

	res, err := svc.Save(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.Profile.UpdatedAt.Equal(store.stamp) {
		t.Errorf("expected the confirmed root record, got updatedAt %v", res.Profile.UpdatedAt)
	}
	if res.Profile.Headline != "Bolos" {
		t.Errorf("headline = %q", res.Profile.Headline)
	}
}

func TestDraft_SaveNeverWritesAnotherProfilesRowID(t *testing.T) {
	f := newDraftFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")
	_, victim := f.store.seedClient(domain.PlanPro, "bia")
	ctx := context.Background()

	f.store.mu.Lock()
	f.store.catalog[victim.ID] = []domain.CatalogItem{{ID: "victim-item", ProfileID: victim.ID, Title: "Torta"}}
	f.store.mu.Unlock()

	if _, err := f.svc.Apply(ctx, principalFor(c), p.ID, editor.CatalogUpdate{Items: []domain.CatalogItem{
		{ID: "victim-item", Title: "Sequestrado", Price: 1},
	}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	res, err := f.svc.Save(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(res.Profile.CatalogItems) != 1 || res.Profile.CatalogItems[0].ID == "victim-item" {
		t.Fatalf("saved catalog reused a foreign id: %+v", res.Profile.CatalogItems)
	}
	if res.Profile.CatalogItems[0].ProfileID != p.ID {
		t.Errorf("item bound to %q", res.Profile.CatalogItems[0].ProfileID)
	}
}
