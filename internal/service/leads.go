package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/leads"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var leadTracer = otel.Tracer("service/leads")

// LeadList is the tenant's lead inbox.
type LeadList struct {
	Leads    []domain.Lead       `json:"leads"`
	Statuses []domain.LeadStatus `json:"statuses"`
	NPSScore *int                `json:"npsScore,omitempty"`
}

// LeadService captures leads and NPS answers from public pages and manages
// the tenant's pipeline.
type LeadService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	leads    port.LeadStore
	metrics  *observability.Metrics
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewLeadService creates a new lead service. CSV dates are written in loc.
func NewLeadService(clients port.ClientStore, profiles port.ProfileStore, store port.LeadStore, metrics *observability.Metrics, loc *time.Location, logger *zap.Logger) *LeadService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeadService{
		clients:  clients,
		profiles: profiles,
		leads:    store,
		metrics:  metrics,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

// ============================================================
// Public capture
// ============================================================

// Capture records a contact request sent from a public profile.
func (s *LeadService) Capture(ctx context.Context, slug string, req *domain.LeadCaptureRequest) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Capture")
	defer span.End()

	prof, client, err := publicProfile(ctx, s.clients, s.profiles, slug)
	if err != nil {
		return nil, err
	}
	if err := plans.Require(client.Plan, plans.FeatureLeads); err != nil {
		return nil, err
	}
	if !prof.EnableLeadCapture {
		return nil, &domain.ErrForbidden{Action: "captura de contatos desativada neste perfil"}
	}

	lead, err := leads.NewLead(client.ID, prof.ID, *req, s.now())
	if err != nil {
		return nil, err
	}
	return s.store(ctx, lead)
}

// CaptureNPS records an NPS answer sent from a public profile.
func (s *LeadService) CaptureNPS(ctx context.Context, slug string, req *domain.NPSCaptureRequest) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.CaptureNPS")
	defer span.End()

	prof, client, err := publicProfile(ctx, s.clients, s.profiles, slug)
	if err != nil {
		return nil, err
	}
	if err := plans.Require(client.Plan, plans.FeatureNPS); err != nil {
		return nil, err
	}
	if !prof.EnableNps {
		return nil, &domain.ErrForbidden{Action: "pesquisa NPS desativada neste perfil"}
	}

	answer, err := leads.NewNPS(client.ID, prof.ID, *req, s.now())
	if err != nil {
		return nil, err
	}
	return s.store(ctx, answer)
}

func (s *LeadService) store(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	created, err := s.leads.CreateLead(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	s.metrics.IncrLeadCaptured(created.Kind)
	s.logger.Info("lead captured",
		zap.String("client_id", created.ClientID),
		zap.String("profile_id", created.ProfileID),
		zap.String("kind", created.Kind),
	)
	return created, nil
}

// ============================================================
// Pipeline
// ============================================================

// List returns the caller's leads, optionally narrowed to one profile and
// kind. NPS answers need the nps feature.
func (s *LeadService) List(ctx context.Context, p domain.Principal, profileID, kind string) (*LeadList, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.List")
	defer span.End()
	span.SetAttributes(attribute.String("lead.kind", kind))

	client, err := s.tenant(ctx, p, profileID, plans.FeatureLeads)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "", domain.LeadKindLead:
	case domain.LeadKindNPS:
		if err := plans.Require(client.Plan, plans.FeatureNPS); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "use lead ou nps"}
	}

	list, err := s.leads.ListLeads(ctx, client.ID, profileID, kind)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	out := &LeadList{Leads: list, Statuses: leads.Statuses()}
	if score, ok := leads.NPSScore(list); ok {
		out.NPSScore = &score
	}
	return out, nil
}

// UpdateStatus moves a lead to another pipeline stage and appends the
// change to its history.
func (s *LeadService) UpdateStatus(ctx context.Context, p domain.Principal, leadID string, req *domain.LeadStatusRequest) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	lead, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && lead.ClientID != p.ClientID {
		return nil, &domain.ErrForbidden{Action: "alterar este contato"}
	}
	client, err := s.clients.GetClient(ctx, lead.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if err := plans.Require(client.Plan, plans.FeatureLeads); err != nil {
		return nil, err
	}

	from := lead.Status
	if err := leads.Transition(lead, req.Status, req.Note, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.leads.UpdateLeadStatus(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("update lead status: %w", err)
	}

	s.logger.Info("lead status changed",
		zap.String("lead_id", leadID),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
	)
	return updated, nil
}

// ExportCSV writes the caller's leads as CSV.
func (s *LeadService) ExportCSV(ctx context.Context, p domain.Principal, profileID string, w io.Writer) error {
	ctx, span := leadTracer.Start(ctx, "LeadService.ExportCSV")
	defer span.End()

	client, err := s.tenant(ctx, p, profileID, plans.FeatureCSVExport)
	if err != nil {
		return err
	}
	list, err := s.leads.ListLeads(ctx, client.ID, profileID, "")
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}
	return leads.WriteCSV(w, list, s.location)
}

// tenant resolves the caller's client, checks profile ownership when a
// profile is named and gates f.
func (s *LeadService) tenant(ctx context.Context, p domain.Principal, profileID string, f plans.Feature) (*domain.Client, error) {
	var client *domain.Client
	if profileID != "" {
		o, err := loadOwned(ctx, s.clients, s.profiles, p, profileID)
		if err != nil {
			return nil, err
		}
		client = o.client
	} else {
		clientID, err := requireClient(p)
		if err != nil {
			return nil, err
		}
		client, err = s.clients.GetClient(ctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("get client: %w", err)
		}
	}
	if err := plans.Require(client.Plan, f); err != nil {
		return nil, err
	}
	return client, nil
}
