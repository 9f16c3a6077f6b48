package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"go.uber.org/zap"
)

func newLeadService(store *memStore) (*service.LeadService, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return service.NewLeadService(store, store, store, metrics, nil, zap.NewNop()), metrics
}

// enableForms turns on both public forms of a stored profile.
func (m *memStore) enableForms(profileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[profileID]
	p.EnableLeadCapture = true
	p.EnableNps = true
	m.profiles[profileID] = p
}

func TestLeadCapture_Success(t *testing.T) {
	store := newMemStore()
	_, p := store.seedClient(domain.PlanPro, "ana")
	store.enableForms(p.ID)
	svc, metrics := newLeadService(store)

	lead, err := svc.Capture(context.Background(), "ana", &domain.LeadCaptureRequest{Name: " Bia ", Contact: "bia@example.com"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if lead.Status != domain.LeadNovo || lead.Name != "Bia" || lead.Origin != "perfil" {
		t.Errorf("unexpected lead: %+v", lead)
	}
	if got := metrics.Snapshot().LeadsCaptured[domain.LeadKindLead]; got != 1 {
		t.Errorf("expected 1 lead captured, got %d", got)
	}
}

func TestLeadCapture_Gates(t *testing.T) {
	tests := []struct {
		name    string
		plan    domain.PlanType
		enabled bool
		check   func(error) bool
	}{
		{"starter plan", domain.PlanStarter, true, func(err error) bool {
			var e *domain.ErrFeatureLocked
			return errors.As(err, &e)
		}},
		{"form disabled", domain.PlanPro, false, func(err error) bool {
			var e *domain.ErrForbidden
			return errors.As(err, &e)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			_, p := store.seedClient(tt.plan, "ana")
			if tt.enabled {
				store.enableForms(p.ID)
			}
			svc, _ := newLeadService(store)

			_, err := svc.Capture(context.Background(), "ana", &domain.LeadCaptureRequest{Name: "Bia", Contact: "bia@example.com"})
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if len(store.leads) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestLeadCapture_InactiveTenantNotFound(t *testing.T) {
	store := newMemStore()
	c, p := store.seedClient(domain.PlanPro, "ana")
	store.enableForms(p.ID)
	if _, err := store.UpdateClient(context.Background(), c.ID, map[string]any{"is_active": false}); err != nil {
		t.Fatal(err)
	}
	svc, _ := newLeadService(store)

	_, err := svc.Capture(context.Background(), "ana", &domain.LeadCaptureRequest{Name: "Bia", Contact: "bia@example.com"})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCaptureNPS(t *testing.T) {
	store := newMemStore()
	_, p := store.seedClient(domain.PlanBusiness, "ana")
	store.enableForms(p.ID)
	svc, _ := newLeadService(store)
	ctx := context.Background()

	if _, err := svc.CaptureNPS(ctx, "ana", &domain.NPSCaptureRequest{Score: 11}); err == nil {
		t.Fatal("expected score 11 to be rejected")
	}
	answer, err := svc.CaptureNPS(ctx, "ana", &domain.NPSCaptureRequest{Score: 9, Comment: "Ótimo"})
	if err != nil {
		t.Fatalf("nps: %v", err)
	}
	if answer.Kind != domain.LeadKindNPS || answer.Name != "Anônimo" || answer.Score == nil || *answer.Score != 9 {
		t.Errorf("unexpected answer: %+v", answer)
	}
}

func TestCaptureNPS_ProPlanLocked(t *testing.T) {
	store := newMemStore()
	_, p := store.seedClient(domain.PlanPro, "ana")
	store.enableForms(p.ID)
	svc, _ := newLeadService(store)

	_, err := svc.CaptureNPS(context.Background(), "ana", &domain.NPSCaptureRequest{Score: 7})
	var locked *domain.ErrFeatureLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrFeatureLocked, got %v", err)
	}
}

func TestLeadList_KindsAndScore(t *testing.T) {
	store := newMemStore()
	c, p := store.seedClient(domain.PlanBusiness, "ana")
	store.enableForms(p.ID)
	svc, _ := newLeadService(store)
	ctx := context.Background()

	if _, err := svc.Capture(ctx, "ana", &domain.LeadCaptureRequest{Name: "Bia", Contact: "bia@example.com"}); err != nil {
		t.Fatal(err)
	}
	for _, score := range []int{10, 9, 3} {
		if _, err := svc.CaptureNPS(ctx, "ana", &domain.NPSCaptureRequest{Score: score}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := svc.List(ctx, principalFor(c), "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Leads) != 4 {
		t.Errorf("expected 4 entries, got %d", len(all.Leads))
	}

	nps, err := svc.List(ctx, principalFor(c), p.ID, domain.LeadKindNPS)
	if err != nil {
		t.Fatal(err)
	}
	if len(nps.Leads) != 3 {
		t.Errorf("expected 3 nps answers, got %d", len(nps.Leads))
	}
	// 2 promoters, 1 detractor out of 3: 66% - 33% = 33.
	if nps.NPSScore == nil || *nps.NPSScore != 33 {
		t.Errorf("unexpected nps score: %v", nps.NPSScore)
	}

	_, err = svc.List(ctx, principalFor(c), "", "spam")
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Errorf("expected ErrValidation for unknown kind, got %v", err)
	}
}

func TestLeadUpdateStatus_AppendsHistory(t *testing.T) {
	store := newMemStore()
	c, p := store.seedClient(domain.PlanPro, "ana")
	intruder, _ := store.seedClient(domain.PlanPro, "bia")
	store.enableForms(p.ID)
	svc, _ := newLeadService(store)
	ctx := context.Background()

	lead, err := svc.Capture(ctx, "ana", &domain.LeadCaptureRequest{Name: "Caio", Contact: "caio@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateStatus(ctx, principalFor(c), lead.ID, &domain.LeadStatusRequest{Status: domain.LeadContatado, Note: "liguei"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.LeadContatado || len(updated.History) != 1 {
		t.Fatalf("unexpected lead: %+v", updated)
	}
	if h := updated.History[0]; h.From != domain.LeadNovo || h.To != domain.LeadContatado || h.Note != "liguei" {
		t.Errorf("unexpected history entry: %+v", h)
	}

	_, err = svc.UpdateStatus(ctx, principalFor(intruder), lead.ID, &domain.LeadStatusRequest{Status: domain.LeadFechado})
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ErrForbidden for another tenant, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, principalFor(c), lead.ID, &domain.LeadStatusRequest{Status: "sumido"})
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestLeadExportCSV(t *testing.T) {
	store := newMemStore()
	c, p := store.seedClient(domain.PlanBusiness, "ana")
	store.enableForms(p.ID)
	svc, _ := newLeadService(store)
	ctx := context.Background()

	if _, err := svc.Capture(ctx, "ana", &domain.LeadCaptureRequest{Name: "Bia", Contact: "bia@example.com", Message: "orçamento"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, principalFor(c), "", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "bia@example.com") {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestLeadExportCSV_ProPlanLocked(t *testing.T) {
	store := newMemStore()
	c, _ := store.seedClient(domain.PlanPro, "ana")
	svc, _ := newLeadService(store)

	err := svc.ExportCSV(context.Background(), principalFor(c), "", &bytes.Buffer{})
	var locked *domain.ErrFeatureLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrFeatureLocked, got %v", err)
	}
}
