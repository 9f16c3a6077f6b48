package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/directory"
	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/slug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var clientTracer = otel.Tracer("service/clients")

// maxBonusGrant bounds a single bonus grant.
const maxBonusGrant = 100

// ClientDetail is a tenant with its profiles, as shown by the admin console.
type ClientDetail struct {
	Client   *domain.Client   `json:"client"`
	Profiles []domain.Profile `json:"profiles"`
}

// Account is the caller's own tenant view with its plan entitlements.
type Account struct {
	Client       *domain.Client `json:"client"`
	Plan         plans.Config   `json:"plan"`
	ProfileCount int            `json:"profileCount"`
}

// ClientService manages tenant accounts: the admin directory and CRUD, and
// the tenant's own account view.
type ClientService struct {
	clients  port.ClientStore
	profiles port.ProfileStore
	pages    port.PageCache
	logger   *zap.Logger
}

// NewClientService creates a new client service.
func NewClientService(clients port.ClientStore, profiles port.ProfileStore, pages port.PageCache, logger *zap.Logger) *ClientService {
	return &ClientService{clients: clients, profiles: profiles, pages: pages, logger: logger}
}

// Directory fetches the full client and profile collections concurrently and
// filters, sorts and paginates them in memory.
func (s *ClientService) Directory(ctx context.Context, q domain.DirectoryQuery) (*domain.ListResponse[domain.ClientRow], error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Directory")
	defer span.End()

	var (
		clients  []domain.Client
		profiles []domain.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.ListClients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.ListProfiles(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	res := directory.Query(directory.Rows(clients, profiles), q)
	span.SetAttributes(attribute.Int("directory.total", res.Total))
	return &res, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*ClientDetail, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Get")
	defer span.End()

	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListProfilesByClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return &ClientDetail{Client: client, Profiles: profiles}, nil
}

// Account returns the tenant of a client principal with its plan row.
func (s *ClientService) Account(ctx context.Context, p domain.Principal) (*Account, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Account")
	defer span.End()

	clientID, err := requireClient(p)
	if err != nil {
		return nil, err
	}
	detail, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &Account{
		Client:       detail.Client,
		Plan:         plans.Get(detail.Client.Plan),
		ProfileCount: len(detail.Profiles),
	}, nil
}

// Update applies an admin edit. A plan change rebases maxProfiles onto the
// new plan while keeping bonus slots.
func (s *ClientService) Update(ctx context.Context, id string, upd *domain.ClientUpdate) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	current, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "nome é obrigatório"}
		}
		fields["name"] = name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &domain.ErrValidation{Field: "email", Message: "e-mail inválido"}
		}
		fields["email"] = email
	}
	if upd.Slug != nil && *upd.Slug != current.Slug {
		if !slug.Valid(*upd.Slug) {
			return nil, &domain.ErrValidation{Field: "slug", Message: "use apenas letras minúsculas, números e hífens"}
		}
		if err := ensureClientSlugFree(ctx, s.clients, *upd.Slug, id); err != nil {
			return nil, err
		}
		fields["slug"] = *upd.Slug
	}
	if upd.Plan != nil && *upd.Plan != current.Plan {
		if !plans.IsValid(*upd.Plan) {
			return nil, &domain.ErrValidation{Field: "plan", Message: "plano inválido"}
		}
		fields["plan"] = string(*upd.Plan)
		fields["max_profiles"] = plans.RebaseMaxProfiles(current.MaxProfiles, current.Plan, *upd.Plan)
	}
	if upd.IsActive != nil {
		fields["is_active"] = *upd.IsActive
	}
	if len(fields) == 0 {
		return current, nil
	}

	updated, err := s.clients.UpdateClient(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	// Plan and status changes alter what the public pages show.
	if upd.Plan != nil || upd.IsActive != nil {
		s.invalidateClientPages(ctx, id)
	}

	s.logger.Info("client updated",
		zap.String("client_id", id),
		zap.Int("fields", len(fields)),
		zap.String("plan", string(updated.Plan)),
	)
	return updated, nil
}

// GrantBonus adds profile slots on top of the plan limit.
func (s *ClientService) GrantBonus(ctx context.Context, id string, req *domain.BonusGrantRequest) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.GrantBonus")
	defer span.End()

	if req.Slots < 1 || req.Slots > maxBonusGrant {
		return nil, &domain.ErrValidation{Field: "slots", Message: fmt.Sprintf("informe entre 1 e %d perfis", maxBonusGrant)}
	}
	current, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.clients.UpdateClient(ctx, id, map[string]any{
		"max_profiles": current.MaxProfiles + req.Slots,
	})
	if err != nil {
		return nil, fmt.Errorf("grant bonus: %w", err)
	}

	s.logger.Info("bonus profiles granted",
		zap.String("client_id", id),
		zap.Int("slots", req.Slots),
		zap.Int("max_profiles", updated.MaxProfiles),
	)
	return updated, nil
}

// Delete removes a client; its profiles cascade in the database.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	ctx, span := clientTracer.Start(ctx, "ClientService.Delete")
	defer span.End()

	profiles, err := s.profiles.ListProfilesByClient(ctx, id)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}

	slugs := make([]string, len(profiles))
	for i, p := range profiles {
		slugs[i] = p.Slug
	}
	invalidatePages(ctx, s.pages, s.logger, slugs...)

	s.logger.Info("client deleted", zap.String("client_id", id), zap.Int("profiles", len(profiles)))
	return nil
}

func (s *ClientService) invalidateClientPages(ctx context.Context, clientID string) {
	profiles, err := s.profiles.ListProfilesByClient(ctx, clientID)
	if err != nil {
		s.logger.Warn("page invalidation skipped", zap.String("client_id", clientID), zap.Error(err))
		return
	}
	slugs := make([]string, len(profiles))
	for i, p := range profiles {
		slugs[i] = p.Slug
	}
	invalidatePages(ctx, s.pages, s.logger, slugs...)
}
