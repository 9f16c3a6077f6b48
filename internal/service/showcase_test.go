package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/service"
	"github.com/boddenberg/linkbio-api-go/internal/session"
	"github.com/boddenberg/linkbio-api-go/internal/showcase"

	"go.uber.org/zap"
)

// manualTimers collects debounce callbacks so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) showcase.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.pending = append(m.pending, t)
	return t
}

func (m *manualTimers) fire() {
	m.mu.Lock()
	timers := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

type showcaseFixture struct {
	store   *memStore
	timers  *manualTimers
	pages   *cache.MemoryPages
	metrics *observability.Metrics
	svc     *service.ShowcaseService
}

func newShowcaseFixture(t *testing.T) *showcaseFixture {
	t.Helper()
	store := newMemStore()
	sessions := session.New(time.Hour)
	pages := cache.NewMemoryPages(time.Minute)
	t.Cleanup(func() {
		sessions.Close()
		pages.Close()
	})
	timers := &manualTimers{}
	metrics := observability.NewMetrics()
	svc := service.NewShowcaseService(store, store, store, sessions, pages, metrics,
		showcase.AutosaveOptions{AfterFunc: timers.AfterFunc}, zap.NewNop())
	return &showcaseFixture{store: store, timers: timers, pages: pages, metrics: metrics, svc: svc}
}

func TestShowcase_RequiresPlanFeature(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanPro, "ana")

	_, err := f.svc.Ensure(context.Background(), principalFor(c), p.ID)
	var locked *domain.ErrFeatureLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrFeatureLocked, got %v", err)
	}
}

func TestShowcase_EnsureCreatesOnce(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()

	first, err := f.svc.Ensure(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := f.svc.Ensure(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same showcase, got %s and %s", first.ID, second.ID)
	}
	if first.ButtonColor != p.Theme.PrimaryColor {
		t.Errorf("expected button colour seeded from theme, got %q", first.ButtonColor)
	}
}

func TestShowcase_AutosaveCoalescesWrites(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()

	v, err := f.svc.UpdateSettings(ctx, principalFor(c), p.ID, &domain.ShowcaseSettingsPatch{ButtonColor: strPtr("#FF0000")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v.State != showcase.StateDebounceScheduled {
		t.Errorf("expected debounce scheduled, got %s", v.State)
	}
	gradient := true
	v, err = f.svc.UpdateSettings(ctx, principalFor(c), p.ID, &domain.ShowcaseSettingsPatch{GradientEnabled: &gradient, SecondaryColor: strPtr("#00FF00")})
	if err != nil {
		t.Fatal(err)
	}
	if v.Settings.ButtonColor != "#FF0000" || !v.Settings.GradientEnabled {
		t.Errorf("expected optimistic local state, got %+v", v.Settings)
	}
	if len(f.store.settings) != 0 {
		t.Fatalf("nothing should be written before the debounce fires, got %d writes", len(f.store.settings))
	}

	f.timers.fire()

	if len(f.store.settings) != 1 {
		t.Fatalf("expected a single coalesced write, got %d", len(f.store.settings))
	}
	if got := f.store.settings[0]; got.ButtonColor != "#FF0000" || got.SecondaryColor != "#00FF00" {
		t.Errorf("unexpected persisted settings: %+v", got)
	}
	if got := f.metrics.Snapshot().AutosaveWrites[observability.OutcomeSuccess]; got != 1 {
		t.Errorf("expected 1 autosave write recorded, got %d", got)
	}

	v, err = f.svc.Settings(ctx, principalFor(c), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.State != showcase.StateIdle {
		t.Errorf("expected idle after write, got %s", v.State)
	}
}

func TestShowcase_FlushWritesPending(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()

	if _, err := f.svc.UpdateSettings(ctx, principalFor(c), p.ID, &domain.ShowcaseSettingsPatch{ItemTemplate: strPtr("modern")}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(f.store.settings) != 1 {
		t.Errorf("expected flush to write pending settings, got %d writes", len(f.store.settings))
	}
}

func TestShowcase_RejectsInvalidSettings(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")

	_, err := f.svc.UpdateSettings(context.Background(), principalFor(c), p.ID, &domain.ShowcaseSettingsPatch{ButtonColor: strPtr("vermelho")})
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestShowcase_AddItemRespectsCap(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := f.svc.AddItem(ctx, principalFor(c), p.ID, &domain.ShowcaseItem{Title: fmt.Sprintf("Item %d", i)}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	_, err := f.svc.AddItem(ctx, principalFor(c), p.ID, &domain.ShowcaseItem{Title: "Excedente"})
	var limit *domain.ErrLimitExceeded
	if !errors.As(err, &limit) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if limit.Limit != 10 {
		t.Errorf("expected business cap 10, got %d", limit.Limit)
	}
}

func TestShowcase_ItemSessionGuardsUnsavedChanges(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()
	pr := principalFor(c)

	a, err := f.svc.AddItem(ctx, pr, p.ID, &domain.ShowcaseItem{Title: "Bolo"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.svc.AddItem(ctx, pr, p.ID, &domain.ShowcaseItem{Title: "Torta"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.OpenItem(ctx, pr, p.ID, &domain.OpenItemRequest{ItemID: a.ID}); err != nil {
		t.Fatalf("open: %v", err)
	}
	edited := *a
	edited.Title = "Bolo de cenoura"
	sv, err := f.svc.EditItem(ctx, pr, p.ID, &edited)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !sv.Dirty {
		t.Error("expected dirty session after edit")
	}

	_, err = f.svc.OpenItem(ctx, pr, p.ID, &domain.OpenItemRequest{ItemID: b.ID})
	var unsaved *domain.ErrUnsavedChanges
	if !errors.As(err, &unsaved) {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}

	saved, err := f.svc.SaveItem(ctx, pr, p.ID)
	if err != nil {
		t.Fatalf("save item: %v", err)
	}
	if saved.Title != "Bolo de cenoura" {
		t.Errorf("unexpected saved title %q", saved.Title)
	}

	sv, err = f.svc.OpenItem(ctx, pr, p.ID, &domain.OpenItemRequest{ItemID: b.ID})
	if err != nil {
		t.Fatalf("switch after save: %v", err)
	}
	if sv.EditingItemID != b.ID {
		t.Errorf("expected %s open, got %s", b.ID, sv.EditingItemID)
	}
}

func TestShowcase_DeleteItemCompactsOrder(t *testing.T) {
	f := newShowcaseFixture(t)
	c, p := f.store.seedClient(domain.PlanBusiness, "ana")
	ctx := context.Background()
	pr := principalFor(c)

	var ids []string
	for _, title := range []string{"A", "B", "C"} {
		it, err := f.svc.AddItem(ctx, pr, p.ID, &domain.ShowcaseItem{Title: title})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, it.ID)
	}

	if err := f.svc.DeleteItem(ctx, pr, p.ID, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	v, err := f.svc.Ensure(ctx, pr, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Items) != 2 {
		t.Fatalf("expected 2 items left, got %d", len(v.Items))
	}
	for i, it := range v.Items {
		if it.SortOrder != i {
			t.Errorf("item %s: expected sortOrder %d, got %d", it.ID, i, it.SortOrder)
		}
	}
}
