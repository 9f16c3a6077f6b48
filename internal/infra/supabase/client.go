// Package supabase implements the store ports over the Supabase PostgREST API.
// Reads retry with backoff behind a circuit breaker; writes go through the
// breaker once and are always confirmed by a follow-up read.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// WithMetrics counts upstream failures in m.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}

// IsClientError reports errors that say nothing about the health of
// Supabase. The circuit breaker treats them as successes.
func IsClientError(err error) bool {
	var (
		notFound *domain.ErrNotFound
		conflict *domain.ErrConflict
		invalid  *domain.ErrValidation
		status   *statusError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &conflict), errors.As(err, &invalid):
		return true
	case errors.As(err, &status):
		return status.code >= 400 && status.code < 500
	}
	return false
}

// statusError is a non-2xx PostgREST response.
type statusError struct {
	method string
	path   string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.method, e.path, e.code, e.body)
}

// query builds "table?k=v&..." with PostgREST filter values escaped.
func query(table string, params url.Values) string {
	if len(params) == 0 {
		return table
	}
	return table + "?" + params.Encode()
}

func eq(v string) string { return "eq." + v }

// inList renders a PostgREST in.(...) operand with quoted values.
func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

// do executes an authenticated request to Supabase PostgREST.
func (c *Client) do(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1/"+path, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, &domain.ErrConflict{Message: conflictMessage(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &statusError{method: method, path: path, code: resp.StatusCode, body: string(respBody)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

// conflictMessage extracts the PostgREST error message of a unique violation.
func conflictMessage(body []byte) string {
	var pgErr struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if json.Unmarshal(body, &pgErr) == nil && pgErr.Details != "" {
		return pgErr.Details
	}
	if pgErr.Message != "" {
		return pgErr.Message
	}
	return "registro já existe"
}

// get runs an idempotent read with retry behind the breaker and decodes the
// JSON array into out.
func (c *Client) get(ctx context.Context, service, path string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.do(ctx, http.MethodGet, path, nil, "")
			if err != nil {
				if IsClientError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			if len(body) == 0 {
				body = []byte("[]")
			}
			if err := json.Unmarshal(body, out); err != nil {
				return resilience.Permanent(fmt.Errorf("decode %s: %w", service, err))
			}
			return nil
		})
	})
	return c.wrap(service, err)
}

// write runs a mutation once behind the breaker.
func (c *Client) write(ctx context.Context, service, method, path string, payload any, prefer string) ([]byte, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.do(ctx, method, path, payload, prefer)
	})
	if err != nil {
		return nil, c.wrap(service, err)
	}
	body, _ := res.([]byte)
	return body, nil
}

func (c *Client) insert(ctx context.Context, service, table string, row, out any) error {
	body, err := c.write(ctx, service, http.MethodPost, table, row, "return=representation")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.wrap(service, fmt.Errorf("decode %s: %w", service, err))
	}
	return nil
}

// upsert merges rows by primary key.
func (c *Client) upsert(ctx context.Context, service, table string, rows any) error {
	_, err := c.write(ctx, service, http.MethodPost, query(table, url.Values{"on_conflict": {"id"}}),
		rows, "resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) patch(ctx context.Context, service, path string, fields any) error {
	_, err := c.write(ctx, service, http.MethodPatch, path, fields, "return=minimal")
	return err
}

func (c *Client) remove(ctx context.Context, service, path string) error {
	_, err := c.write(ctx, service, http.MethodDelete, path, nil, "return=minimal")
	return err
}

// wrap keeps domain errors intact and reports everything else as an
// external service failure.
func (c *Client) wrap(service string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound *domain.ErrNotFound
		conflict *domain.ErrConflict
		invalid  *domain.ErrValidation
	)
	if errors.As(err, &notFound) || errors.As(err, &conflict) || errors.As(err, &invalid) {
		return err
	}
	if c.metrics != nil {
		c.metrics.IncrExternalError("supabase")
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "supabase"}
	}
	return &domain.ErrExternalService{Service: "supabase/" + service, Err: err}
}

// Ping checks that PostgREST answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("supabase ping returned %d", resp.StatusCode)
	}
	return nil
}
