// Package client talks to contacts and campaign stores that run as a separate
// service exposing the /v1/leads and /v1/campaigns endpoints.
package client

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
	"time"

	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/rs/zerolog"
)

// StoreError is a non-2xx reply from a remote store
type StoreError struct {
	StatusCode int
	Message    string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store returned %d: %s", e.StatusCode, e.Message)
}

// Client implements the pipeline's ContactsStore and CampaignStore over HTTP
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

var (
	_ pipeline.ContactsStore = (*Client)(nil)
	_ pipeline.CampaignStore = (*Client)(nil)
)

// New creates a client for the stores at cfg.RemoteURL
func New(cfg config.StoresConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.RemoteURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "store_client").Logger(),
	}
}

// BulkImport sends the bulk-import call. The idempotency key, when set, goes
// in the Idempotency-Key header.
func (c *Client) BulkImport(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
	var resp models.BulkImportResponse
	header := http.Header{}
	if req.IdempotencyKey != "" {
		header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	if err := c.do(ctx, http.MethodPost, "/v1/leads/bulk", header, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListLeads fetches the full lead set
func (c *Client) ListLeads(ctx context.Context) ([]*models.Lead, error) {
	var resp models.ListLeadsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/leads", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message, "lead list")
	}
	return resp.Data, nil
}

// CreateCampaign creates a campaign
func (c *Client) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	var resp models.CampaignResponse
	if err := c.do(ctx, http.MethodPost, "/v1/campaigns", nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, rejected(resp.Message, "campaign creation")
	}
	return resp.Data, nil
}

// GetCampaign fetches a campaign; a 404 becomes models.ErrNotFound
func (c *Client) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var resp models.CampaignResponse
	if err := c.do(ctx, http.MethodGet, "/v1/campaigns/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, rejected(resp.Message, "campaign lookup")
	}
	return resp.Data, nil
}

// CampaignLeads fetches the leads already linked to a campaign
func (c *Client) CampaignLeads(ctx context.Context, campaignID string) ([]*models.Lead, error) {
	var resp models.ListLeadsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/campaigns/"+url.PathEscape(campaignID)+"/leads", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message, "campaign lead list")
	}
	return resp.Data, nil
}

// AddLeads sends the association call
func (c *Client) AddLeads(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error) {
	var resp models.AddLeadsResponse
	path := "/v1/campaigns/" + url.PathEscape(req.CampaignID) + "/leads"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func rejected(message, call string) error {
	if message == "" {
		message = call + " rejected by store"
	}
	return errors.New(message)
}

// do sends one JSON request and decodes the reply into out
func (c *Client) do(ctx context.Context, method, path string, header http.Header, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("Store request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Store request completed")

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StoreError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of an error body, falling back to the raw text
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64*1024))
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return http.StatusText(http.StatusInternalServerError)
	}
	return text
}
