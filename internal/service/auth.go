// Package service provides the business logic layer (use cases).
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/slug"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	minPasswordLength = 8
	tokenIssuer       = "linkbio-api"
)

// SessionClearer drops the session-scoped editor state of a user.
type SessionClearer interface {
	Clear(userID string)
}

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.AuthStore
	clients    port.ClientStore
	sessions   SessionClearer
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, clients port.ClientStore, sessions SessionClearer, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		clients:    clients,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Signup: POST /v1/auth/signup
// ============================================================

func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	handle := strings.TrimSpace(req.Slug)
	if handle == "" {
		handle = slug.Generate(name)
	}

	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "nome é obrigatório"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &domain.ErrValidation{Field: "email", Message: "e-mail inválido"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("a senha deve ter pelo menos %d caracteres", minPasswordLength)}
	}
	if !slug.Valid(handle) {
		return nil, &domain.ErrValidation{Field: "slug", Message: "use apenas letras minúsculas, números e hífens"}
	}

	existing, err := s.store.GetIdentityByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "E-mail já cadastrado"}
	}
	if err := ensureClientSlugFree(ctx, s.clients, handle, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	client, err := s.clients.CreateClient(ctx, &domain.Client{
		Name:        name,
		Slug:        handle,
		Email:       email,
		Plan:        domain.PlanStarter,
		MaxProfiles: plans.GetPlanLimits(domain.PlanStarter).MaxProfiles,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	identity, err := s.store.CreateIdentity(ctx, &domain.AuthIdentity{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleClient,
		ClientID:     client.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	span.SetAttributes(attribute.String("client.id", client.ID))
	s.logger.Info("client signed up",
		zap.String("client_id", client.ID),
		zap.String("slug", client.Slug),
	)

	return s.issueTokens(ctx, identity, client)
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	identity, err := s.store.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if identity == nil {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password", zap.String("identity_id", identity.ID))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	if identity.Role == domain.RoleAdmin && identity.TOTPSecret != "" {
		if req.TOTPCode == "" || !totp.Validate(req.TOTPCode, identity.TOTPSecret) {
			s.logger.Warn("login: invalid totp code", zap.String("identity_id", identity.ID))
			return nil, &domain.ErrUnauthorized{Message: "Código de verificação inválido"}
		}
	}

	client, err := s.activeClient(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity logged in",
		zap.String("identity_id", identity.ID),
		zap.String("role", identity.Role),
	)
	return s.issueTokens(ctx, identity, client)
}

// ============================================================
// Refresh: POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.store.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if stored == nil {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}

	if stored.ExpiresAt.Before(time.Now()) {
		s.logger.Warn("refresh: expired token used", zap.String("identity_id", stored.IdentityID))
		_ = s.store.RevokeRefreshToken(ctx, tokenHash)
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização expirado"}
	}

	// Rotation: the presented token is single use.
	if err := s.store.RevokeRefreshToken(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	identity, err := s.store.GetIdentityByID(ctx, stored.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if identity == nil {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}

	client, err := s.activeClient(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, identity, client)
}

// ============================================================
// Logout: POST /v1/auth/logout
// ============================================================

// Logout revokes every refresh token of the caller and clears the
// session-scoped editor state (style clipboard, drafts, item sessions).
func (s *AuthService) Logout(ctx context.Context, p domain.Principal) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.store.RevokeAllRefreshTokens(ctx, p.IdentityID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	if s.sessions != nil {
		s.sessions.Clear(p.IdentityID)
	}

	s.logger.Info("identity logged out", zap.String("identity_id", p.IdentityID))
	return nil
}

// ============================================================
// JWT
// ============================================================

// JWTClaims are the access token claims.
type JWTClaims struct {
	Sub      string `json:"sub"`
	Role     string `json:"role"`
	ClientID string `json:"clientId,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses and verifies an access token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return &domain.Principal{
		IdentityID: claims.Sub,
		Role:       claims.Role,
		ClientID:   claims.ClientID,
	}, nil
}

// ============================================================
// Internal helpers
// ============================================================

// activeClient loads the tenant behind a client identity and rejects
// disabled accounts. Admin identities have no tenant.
func (s *AuthService) activeClient(ctx context.Context, identity *domain.AuthIdentity) (*domain.Client, error) {
	if identity.Role != domain.RoleClient {
		return nil, nil
	}
	client, err := s.clients.GetClient(ctx, identity.ClientID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, &domain.ErrUnauthorized{Message: "Conta não encontrada"}
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	if !client.IsActive {
		s.logger.Warn("login: client disabled", zap.String("client_id", client.ID))
		return nil, &domain.ErrUnauthorized{Message: "Conta desativada"}
	}
	return client, nil
}

func (s *AuthService) issueTokens(ctx context.Context, identity *domain.AuthIdentity, client *domain.Client) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.StoreRefreshToken(ctx, identity.ID, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		Role:         identity.Role,
		Client:       client,
	}, nil
}

func (s *AuthService) signAccessToken(identity *domain.AuthIdentity) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:      identity.ID,
		Role:     identity.Role,
		ClientID: identity.ClientID,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
