package anaf

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"efactura/internal/config"
)

// Package anaf implements the client for the national e-invoicing provider's
// SPV web services: paginated message listing and artifact download.

const (
	listPath     = "/prod/FCTEL/rest/listaMesajePaginatieFactura"
	downloadPath = "/prod/FCTEL/rest/descarcare"
)

// ErrProtocol marks a malformed or error-bearing provider response on the
// listing call. It aborts the company's pass; prior commits stand.
var ErrProtocol = errors.New("provider protocol error")

// TokenProvider supplies a valid bearer token for a user's provider session,
// refreshing transparently. Token acquisition itself lives outside this core.
type TokenProvider interface {
	ValidAccessToken(ctx context.Context, userID int64) (string, error)
}

// Page is one page of the provider's message listing. EndOfPages is true when
// the requested page number exceeds the total page count, which is a normal
// end-of-stream signal and not an error.
type Page struct {
	Messages   []Message
	EndOfPages bool
}

// Client is the external invoice API consumed by the sync orchestrator.
type Client interface {
	// ListMessages fetches one page of messages for the tax id over the
	// trailing lookback window. Pages are 1-based.
	ListMessages(ctx context.Context, userID int64, taxID string, lookbackDays, page int) (*Page, error)
	// DownloadArtifact fetches an invoice's binary artifact (archive or raw
	// document) by external message id.
	DownloadArtifact(ctx context.Context, userID int64, externalID string) ([]byte, error)
}

// listResponse mirrors the provider's listing payload. Genuine errors arrive
// in the eroare field alongside an explanatory titlu.
type listResponse struct {
	Messages   []Message `json:"mesaje"`
	Error      string    `json:"eroare"`
	Title      string    `json:"titlu"`
	Serial     string    `json:"serial"`
	TaxID      string    `json:"cui"`
	TotalPages int       `json:"numar_total_pagini"`
}

// HTTPClient implements Client over net/http. Listing and download use
// separate underlying clients because downloads get a much longer timeout.
type HTTPClient struct {
	baseURL  string
	tokens   TokenProvider
	list     *http.Client
	download *http.Client
}

func NewHTTPClient(cfg config.AnafConfig, tokens TokenProvider) *HTTPClient {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		list: &http.Client{
			Timeout:   time.Duration(cfg.ListTimeoutSec) * time.Second,
			Transport: transport,
		},
		download: &http.Client{
			Timeout:   time.Duration(cfg.DownloadTimeoutSec) * time.Second,
			Transport: transport,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) ListMessages(ctx context.Context, userID int64, taxID string, lookbackDays, page int) (*Page, error) {
	q := url.Values{}
	q.Set("cif", taxID)
	q.Set("zile", strconv.Itoa(lookbackDays))
	q.Set("pagina", strconv.Itoa(page))

	body, status, err := c.get(ctx, c.list, userID, listPath, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: listing returned status %d: %s", ErrProtocol, status, snippet(body))
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode listing response: %v", ErrProtocol, err)
	}

	if resp.Error != "" {
		if isPageExceeded(resp.Error, resp.Title) || (resp.TotalPages > 0 && page > resp.TotalPages) {
			return &Page{EndOfPages: true}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrProtocol, resp.Error)
	}

	return &Page{Messages: resp.Messages}, nil
}

func (c *HTTPClient) DownloadArtifact(ctx context.Context, userID int64, externalID string) ([]byte, error) {
	q := url.Values{}
	q.Set("id", externalID)

	body, status, err := c.get(ctx, c.download, userID, downloadPath, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("download %s returned status %d: %s", externalID, status, snippet(body))
	}
	return body, nil
}

func (c *HTTPClient) get(ctx context.Context, hc *http.Client, userID int64, path string, q url.Values) ([]byte, int, error) {
	token, err := c.tokens.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// isPageExceeded recognizes the provider's "requested page is greater than the
// total page count" message, which terminates pagination normally.
func isPageExceeded(fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), "mai mare decat numarul total de pagini") {
			return true
		}
	}
	return false
}

func snippet(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
