// Package routeros implements the router control plane over the RouterOS v7
// REST API (/rest/ppp/...). Each call is independently fallible; the
// orchestrator decides what a failure means.
package routeros

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

// Config contains RouterOS connection settings
type Config struct {
	// BaseURL of the RouterOS REST endpoint, e.g. "https://10.0.0.1/rest"
	BaseURL  string
	Username string
	Password string
}

// Client implements ports.RouterControlPlane
type Client struct {
	config     *Config
	httpClient ports.HTTPClient
	logger     *zap.Logger
}

// NewClient creates a RouterOS REST client
func NewClient(cfg *Config, httpClient ports.HTTPClient, logger *zap.Logger) *Client {
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type secretRecord struct {
	ID      string `json:".id"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type profileRecord struct {
	ID   string `json:".id"`
	Name string `json:"name"`
}

type activeRecord struct {
	ID   string `json:".id"`
	Name string `json:"name"`
}

// FindSecretByName resolves a PPPoE secret to its RouterOS internal id
func (c *Client) FindSecretByName(ctx context.Context, name string) (string, error) {
	var records []secretRecord
	if err := c.get(ctx, "/ppp/secret?name="+url.QueryEscape(name), &records); err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", domain.WrapError(domain.ErrorCodeSecretNotFound, "pppoe secret "+name, domain.ErrNotFound)
	}
	return records[0].ID, nil
}

// SetSecretProfile rebinds a secret to a profile. The secret may be addressed
// by RouterOS id or by name; ids start with "*" in RouterOS.
func (c *Client) SetSecretProfile(ctx context.Context, idOrName, profile, comment string) error {
	id := idOrName
	if len(id) == 0 || id[0] != '*' {
		resolved, err := c.FindSecretByName(ctx, idOrName)
		if err != nil {
			return err
		}
		id = resolved
	}

	body := map[string]string{"profile": profile, "comment": comment}
	return c.patch(ctx, "/ppp/secret/"+url.PathEscape(id), body)
}

// ListActiveSessions returns ids of live PPPoE sessions for a user
func (c *Client) ListActiveSessions(ctx context.Context, name string) ([]string, error) {
	var records []activeRecord
	if err := c.get(ctx, "/ppp/active?name="+url.QueryEscape(name), &records); err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids, nil
}

// DropSession forcibly terminates one active session
func (c *Client) DropSession(ctx context.Context, id string) error {
	return c.delete(ctx, "/ppp/active/"+url.PathEscape(id))
}

// FindProfile resolves a PPP profile to its RouterOS internal id
func (c *Client) FindProfile(ctx context.Context, name string) (string, error) {
	var records []profileRecord
	if err := c.get(ctx, "/ppp/profile?name="+url.QueryEscape(name), &records); err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", domain.WrapError(domain.ErrorCodeProfileNotFound, "ppp profile "+name, domain.ErrNotFound)
	}
	return records[0].ID, nil
}

// CreateProfile creates a PPP profile
func (c *Client) CreateProfile(ctx context.Context, spec ports.ProfileSpec) error {
	body := map[string]string{"name": spec.Name}
	if spec.RateLimit != "" {
		body["rate-limit"] = spec.RateLimit
	}
	if spec.Comment != "" {
		body["comment"] = spec.Comment
	}
	return c.put(ctx, "/ppp/profile", body)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

func (c *Client) put(ctx context.Context, path string, body interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("routeros %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("routeros request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("routeros %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
