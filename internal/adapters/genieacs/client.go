// Package genieacs implements the CPE control plane over the GenieACS
// NBI (northbound interface). Devices are located by tag or by their
// reported PPPoE username; parameter writes go through setParameterValues
// tasks with connection_request so the CPE applies them immediately.
package genieacs

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

// Parameter paths GenieACS reports the PPPoE username under. Both the
// WANPPPConnection and VirtualParameters locations are probed because
// provisioning scripts differ between deployments.
var pppoeUsernamePaths = []string{
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.Username",
	"VirtualParameters.pppoeUsername",
}

// Config contains GenieACS NBI connection settings
type Config struct {
	// BaseURL of the NBI, e.g. "http://acs.local:7557"
	BaseURL  string
	Username string
	Password string
}

// Client implements ports.DeviceControlPlane
type Client struct {
	config     *Config
	httpClient ports.HTTPClient
	logger     *zap.Logger
}

// NewClient creates a GenieACS NBI client
func NewClient(cfg *Config, httpClient ports.HTTPClient, logger *zap.Logger) *Client {
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type deviceRecord struct {
	ID       string `json:"_id"`
	DeviceID struct {
		SerialNumber string `json:"_SerialNumber"`
	} `json:"_deviceId"`
}

// FindDeviceByPhone locates a device tagged with the customer phone number
func (c *Client) FindDeviceByPhone(ctx context.Context, phone string) (*ports.Device, error) {
	if phone == "" {
		return nil, domain.WrapError(domain.ErrorCodeDeviceNotFound, "empty phone tag", domain.ErrNotFound)
	}
	query := fmt.Sprintf(`{"_tags":%q}`, phone)
	return c.findOne(ctx, query)
}

// FindDeviceByPPPoE locates a device by its reported PPPoE username,
// probing the known parameter locations in order
func (c *Client) FindDeviceByPPPoE(ctx context.Context, username string) (*ports.Device, error) {
	if username == "" {
		return nil, domain.WrapError(domain.ErrorCodeDeviceNotFound, "empty pppoe username", domain.ErrNotFound)
	}
	for _, path := range pppoeUsernamePaths {
		query := fmt.Sprintf(`{%q:%q}`, path+"._value", username)
		device, err := c.findOne(ctx, query)
		if err == nil {
			return device, nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	return nil, domain.WrapError(domain.ErrorCodeDeviceNotFound, "no device reporting pppoe user "+username, domain.ErrNotFound)
}

// SetParameters queues a setParameterValues task for the device and asks
// GenieACS to push it via connection request
func (c *Client) SetParameters(ctx context.Context, deviceID string, params []ports.ParameterValue) error {
	values := make([][]interface{}, len(params))
	for i, p := range params {
		values[i] = []interface{}{p.Path, p.Value, p.Type}
	}
	task := map[string]interface{}{
		"name":            "setParameterValues",
		"parameterValues": values,
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	path := fmt.Sprintf("/devices/%s/tasks?connection_request", url.PathEscape(deviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genieacs task post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 200 means the CPE applied the task during the connection request,
	// 202 means it is queued for the next inform. Both count as accepted.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		c.logger.Warn("genieacs task rejected",
			zap.String("device_id", deviceID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("genieacs task post: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) findOne(ctx context.Context, query string) (*ports.Device, error) {
	path := "/devices/?query=" + url.QueryEscape(query) + "&projection=_id,_deviceId._SerialNumber"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genieacs query: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genieacs query: status %d: %s", resp.StatusCode, string(data))
	}

	var records []deviceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrorCodeDeviceNotFound, "device not found", domain.ErrNotFound)
	}

	return &ports.Device{
		ID:           records[0].ID,
		SerialNumber: records[0].DeviceID.SerialNumber,
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
}
