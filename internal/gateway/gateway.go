// Package gateway is the HTTP client for the demand backend. It
// attaches the session's bearer token to every request, converts
// failures to typed errors, and keeps a small client-side cache of
// demand records.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/models"
)

// TokenSource yields the current bearer token, if any. The session
// store implements it; the gateway never persists tokens itself.
type TokenSource interface {
	Token() (string, bool)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func() (string, bool)

// Token implements TokenSource.
func (f TokenFunc) Token() (string, bool) { return f() }

// Client issues REST calls against the demand backend.
//
// No call is ever retried automatically. Mutating calls in particular
// must reach the server at most once; retry policy belongs to the UI.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	cache   *Cache
	log     *zap.Logger
}

// NewClient constructs a Client for the given base URL, such as
// "http://localhost:8080/api/v1". tokens may be nil for a client that
// only performs anonymous calls.
func NewClient(baseURL string, tokens TokenSource, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		cache:   NewCache(),
		log:     log,
	}
}

// Cache exposes the client-side demand cache for read access.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Login exchanges credentials for a raw bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &MalformedResponse{Err: fmt.Errorf("login response carried no token")}
	}
	return resp.Token, nil
}

// Logout tells the backend to invalidate the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// List fetches demands matching the given filters.
// On success the cache's list view is replaced wholesale.
func (c *Client) List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", string(filters.Status))
	}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}
	if filters.Page > 0 {
		query.Set("page", strconv.Itoa(filters.Page))
	}
	if filters.Limit > 0 {
		query.Set("limit", strconv.Itoa(filters.Limit))
	}
	path := "/demands"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var demands []models.Demand
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &demands); err != nil {
		return nil, err
	}
	c.cache.ReplaceList(demands)
	return demands, nil
}

// GetByID fetches a single demand.
func (c *Client) GetByID(ctx context.Context, id int64) (models.Demand, error) {
	var d models.Demand
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/demands/%d", id), nil, &d); err != nil {
		return models.Demand{}, err
	}
	c.cache.Put(d)
	return d, nil
}

// Create submits a new demand as a multipart form. Articles are
// encoded as a single JSON array field; the optional attachment is
// streamed from req.FilePath. The caller is responsible for ensuring
// at least one article is present.
func (c *Client) Create(ctx context.Context, req models.CreateDemandRequest) (models.Demand, error) {
	body, contentType, err := encodeDemandForm(req)
	if err != nil {
		return models.Demand{}, err
	}
	var d models.Demand
	if err := c.do(ctx, http.MethodPost, "/demands", body, contentType, &d); err != nil {
		return models.Demand{}, err
	}
	c.cache.Put(d)
	return d, nil
}

// Update replaces the editable fields of an existing demand.
func (c *Client) Update(ctx context.Context, id int64, req models.CreateDemandRequest) (models.Demand, error) {
	body, contentType, err := encodeDemandForm(req)
	if err != nil {
		return models.Demand{}, err
	}
	var d models.Demand
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/demands/%d", id), body, contentType, &d); err != nil {
		return models.Demand{}, err
	}
	c.cache.Put(d)
	return d, nil
}

// UpdateStatus asks the backend to apply a status transition. The
// backend is the system of record: it re-validates the transition
// against its own copy of the demand.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status models.Status, comment string) (models.Demand, error) {
	payload := map[string]string{"status": string(status)}
	if comment != "" {
		payload["comment"] = comment
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.Demand{}, err
	}
	var d models.Demand
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/demands/%d/status", id), bytes.NewReader(body), &d); err != nil {
		return models.Demand{}, err
	}
	c.cache.Put(d)
	return d, nil
}

// Delete removes a demand.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/demands/%d", id), nil, nil); err != nil {
		return err
	}
	c.cache.Remove(id)
	return nil
}

// doJSON issues a request with an application/json body (or none) and
// decodes the response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	return c.do(ctx, method, path, body, "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponse{Err: err}
	}
	return nil
}

// errorFromResponse builds an HTTPError from a non-2xx response,
// digging the message out of the JSON body when possible.
func errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
		Errors  string `json:"errors"`
		ErrText string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "":
			message = payload.Message
		case payload.Errors != "":
			message = payload.Errors
		case payload.ErrText != "":
			message = payload.ErrText
		}
	}
	if message == "" && len(bytes.TrimSpace(raw)) > 0 {
		message = string(bytes.TrimSpace(raw))
	}
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	}
	return &HTTPError{Status: resp.StatusCode, Message: message}
}

// encodeDemandForm builds the multipart body for create and update
// calls: title, description, an "articles" field holding one JSON
// array, and an optional "file" part streamed from disk.
func encodeDemandForm(req models.CreateDemandRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("title", req.Title); err != nil {
		return nil, "", err
	}
	if err := form.WriteField("description", req.Description); err != nil {
		return nil, "", err
	}
	articles, err := json.Marshal(req.Articles)
	if err != nil {
		return nil, "", err
	}
	if err := form.WriteField("articles", string(articles)); err != nil {
		return nil, "", err
	}

	if req.FilePath != "" {
		f, err := os.Open(req.FilePath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		part, err := form.CreateFormFile("file", filepath.Base(req.FilePath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", err
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}
