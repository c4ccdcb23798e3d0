package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxLeadsPerRequest is the largest page the CRM lead endpoint serves.
const MaxLeadsPerRequest = 250

var (
	// ErrUnauthorized means the CRM rejected the access token.
	ErrUnauthorized = errors.New("crm rejected access token")
	// ErrInvalidConnection means the connection lacks a subdomain or token.
	ErrInvalidConnection = errors.New("crm connection is incomplete")
)

// Config configures the CRM client.
type Config struct {
	// BaseURLTemplate is formatted with the account subdomain, e.g. "https://%s.kommo.com/api/v4".
	BaseURLTemplate   string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
	HTTPClient        *http.Client
}

// Client reads leads from the CRM REST API. It is safe for concurrent use; the rate limit is
// shared by every scope the process talks to.
type Client struct {
	baseURLTemplate string
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURLTemplate: cfg.BaseURLTemplate,
		httpClient:      httpClient,
		limiter:         rate.NewLimiter(limit, burst),
		logger:          cfg.Logger,
	}
}

// LeadsByID fetches the given leads with their custom fields. Leads unknown to the CRM are
// absent from the result.
func (c *Client) LeadsByID(ctx context.Context, conn Connection, ids []int64) (map[int64]Lead, error) {
	result := make(map[int64]Lead, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	if conn.Subdomain == "" || conn.AccessToken == "" {
		return nil, ErrInvalidConnection
	}
	for start := 0; start < len(ids); start += MaxLeadsPerRequest {
		end := start + MaxLeadsPerRequest
		if end > len(ids) {
			end = len(ids)
		}
		leads, err := c.fetchLeads(ctx, conn, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, lead := range leads {
			result[lead.ID] = lead
		}
	}
	return result, nil
}

func (c *Client) fetchLeads(ctx context.Context, conn Connection, ids []int64) ([]Lead, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(len(ids)))
	for _, id := range ids {
		query.Add("filter[id][]", strconv.FormatInt(id, 10))
	}
	endpoint := strings.TrimRight(fmt.Sprintf(c.baseURLTemplate, conn.Subdomain), "/") + "/leads?" + query.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("crm rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm get leads: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("crm request",
		zap.String("subdomain", conn.Subdomain),
		zap.Int("leads", len(ids)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("crm get leads: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope leadsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode crm leads: %w", err)
	}
	return envelope.Embedded.Leads, nil
}
