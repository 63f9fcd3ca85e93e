// Package identity implements the Identity/Auth collaborator client.
// The Identity service owns accounts and role grants; the hub asks it
// who an actor is before allowing review, award, or purge operations.
// Self-approval is forbidden at the business-logic level and checked
// separately by the command handlers.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
	"github.com/clube-hub/club-progress-hub/pkg/circuitbreaker"
	"github.com/clube-hub/club-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Identity client.
type ClientConfig struct {
	// BaseURL is the Identity service base URL.
	BaseURL string

	// APIKey is the service-to-service API key.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// ActorDTO is the Identity service's view of an actor.
type ActorDTO struct {
	ActorID string `json:"actor_id"`
	ClubID  string `json:"club_id"`
	Role    string `json:"role"`
	Active  bool   `json:"active"`
}

// Client implements member.Authorizer over the Identity HTTP API.
// Calls go through a circuit breaker and a retrier: authorization sits
// on the hot path of every review operation, and a flapping Identity
// service must not cascade into the hub.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	retrier        *retry.Retrier
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient creates a new Identity client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		retrier: retry.IdentityRetrier(),
	}
	c.circuitBreaker = circuitbreaker.IdentityBreaker(func(name string, from, to circuitbreaker.State) {
		c.logger.Warn("identity circuit state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})
	return c
}

// GetActor fetches an actor's role grant.
func (c *Client) GetActor(ctx context.Context, actorID string) (*ActorDTO, error) {
	var actor *ActorDTO

	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			a, err := c.fetchActor(ctx, actorID)
			if err != nil {
				return err
			}
			actor = a
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, shared.ErrIdentityUnavailable
		}
		return nil, err
	}
	return actor, nil
}

func (c *Client) fetchActor(ctx context.Context, actorID string) (*ActorDTO, error) {
	fullURL := c.config.BaseURL + "/api/v1/actors/" + url.PathEscape(actorID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("%w: %v", shared.ErrIdentityUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(shared.ErrNotAuthorized)
	case resp.StatusCode >= 500:
		return nil, retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrIdentityUnavailable, resp.StatusCode))
	default:
		return nil, retry.Permanent(fmt.Errorf("identity request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var actor ActorDTO
	if err := json.Unmarshal(body, &actor); err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse actor response: %w", err))
	}
	return &actor, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHORIZER IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CanReview checks that the actor may approve/reject answers of the
// given club's members.
func (c *Client) CanReview(ctx context.Context, actorID string, clubID member.ClubID) error {
	actor, err := c.GetActor(ctx, actorID)
	if err != nil {
		return err
	}

	role := member.Role(actor.Role)
	if !actor.Active || !role.CanReview() {
		return shared.ErrReviewerNotAllowed
	}
	if role != member.RoleRegionalAdmin && actor.ClubID != string(clubID) {
		return shared.ErrReviewerNotAllowed
	}
	return nil
}

// CanAward checks the right to award specialties and points directly.
func (c *Client) CanAward(ctx context.Context, actorID string, clubID member.ClubID) error {
	actor, err := c.GetActor(ctx, actorID)
	if err != nil {
		return err
	}

	role := member.Role(actor.Role)
	if !actor.Active || !role.CanAward() {
		return shared.ErrNotAuthorized
	}
	if role != member.RoleRegionalAdmin && actor.ClubID != string(clubID) {
		return shared.ErrNotAuthorized
	}
	return nil
}

// CanPurgeHistory checks the right to permanently delete history.
func (c *Client) CanPurgeHistory(ctx context.Context, actorID string) error {
	actor, err := c.GetActor(ctx, actorID)
	if err != nil {
		return err
	}

	role := member.Role(actor.Role)
	if !actor.Active || !role.CanPurgeHistory() {
		return shared.ErrNotAuthorized
	}
	return nil
}
