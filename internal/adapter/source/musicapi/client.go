// Package musicapi is the HTTP client for the remote album metadata service.
package musicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/albumsync/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "albumsync/1.0"
	maxErrorBody   = 4096
)

// APIError is a non-2xx response from the metadata service
type APIError struct {
	Code    int    // HTTP status code
	Status  string // Canonical status, e.g. NOT_FOUND
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Code, e.Status)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Status, e.Message)
}

// Is lets errors.Is(err, domain.ErrAlbumNotFound) match NOT_FOUND responses
func (e *APIError) Is(target error) bool {
	return target == domain.ErrAlbumNotFound && e.Status == domain.NotFoundMarker
}

// Options configures a Client
type Options struct {
	BaseURL       string
	Key           string
	HL            string
	GL            string
	ClientName    string
	ClientVersion string
	Timeout       time.Duration
	HTTPClient    *http.Client // Overrides Timeout when set
}

// Client implements domain.AlbumClient
type Client struct {
	baseURL    string
	key        string
	clientCtx  ClientContext
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new metadata service client
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("musicapi: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("musicapi: invalid base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		key:     opts.Key,
		clientCtx: ClientContext{
			ClientName:    opts.ClientName,
			ClientVersion: opts.ClientVersion,
			HL:            opts.HL,
			GL:            opts.GL,
		},
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Album fetches one album page by browse ID
func (c *Client) Album(ctx context.Context, albumID string) (*domain.AlbumPage, error) {
	if albumID == "" {
		return nil, domain.ErrEmptyAlbumID
	}

	body, err := c.doRequest(ctx, "/browse", BrowseRequest{
		Context:  requestContext{Client: c.clientCtx},
		BrowseID: albumID,
	})
	if err != nil {
		return nil, err
	}

	var resp BrowseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Album.BrowseID == "" {
		return nil, fmt.Errorf("album %s: response has no album header", albumID)
	}

	return MapAlbumPage(&resp), nil
}

// doRequest posts a JSON body and returns the raw 2xx response body
func (c *Client) doRequest(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	query := url.Values{}
	if c.key != "" {
		query.Set("key", c.key)
	}
	query.Set("prettyPrint", "false")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("musicapi request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("musicapi request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := decodeError(resp.StatusCode, body)
		c.logger.Error("musicapi request error", "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// decodeError builds an APIError from the error envelope, falling back to
// the HTTP status when the body is not an envelope.
func decodeError(code int, body []byte) *APIError {
	apiErr := &APIError{Code: code}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Status != "" {
		if env.Error.Code != 0 {
			apiErr.Code = env.Error.Code
		}
		apiErr.Status = env.Error.Status
		apiErr.Message = env.Error.Message
		return apiErr
	}

	apiErr.Status = statusName(code)
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

func statusName(code int) string {
	switch code {
	case http.StatusNotFound:
		return domain.NotFoundMarker
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	}
	text := http.StatusText(code)
	if text == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
