// Package client talks to a running inspection server over its record
// endpoints. Client implements core.Store, so a core.Service can run against
// a remote server the same way it runs against a local store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
)

// ErrBackendUnavailable wraps transport failures reaching the server.
var ErrBackendUnavailable = errors.New("backend unavailable")

// APIKeyHeader carries the key on every request.
const APIKeyHeader = "X-API-Key"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// Client is a core.Store backed by the server's record endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey sets the key sent in APIKeyHeader.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New returns a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig returns a Client for cfg.
func FromConfig(cfg config.ClientConfig) *Client {
	return New(cfg.BackendURL,
		WithAPIKey(cfg.APIKey),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
}

// mutationResponse is the body of every mutating endpoint. Vehicle and
// Inspection are only sent by servers that echo the stored record.
type mutationResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Code       string           `json:"code,omitempty"`
	Vehicle    *core.Vehicle    `json:"vehicle,omitempty"`
	Inspection *core.Inspection `json:"inspection,omitempty"`
}

// codeErrors maps server error codes back to the sentinels they came from.
var codeErrors = map[string]error{
	"VEH001": core.ErrVehicleNotFound,
	"VEH002": core.ErrDuplicateDoorNo,
	"VEH003": core.ErrDuplicatePlateNo,
	"VEH004": core.ErrDuplicateVehicleID,
	"VEH005": core.ErrEmptyPatch,
	"INS001": core.ErrInspectionNotFound,
	"INS002": core.ErrNoVehicleSelected,
	"INS003": core.ErrDuplicateInspection,
	"VAL001": core.ErrValidation,
}

func (c *Client) Vehicles(ctx context.Context) ([]core.Vehicle, error) {
	vehicles := []core.Vehicle{}
	if err := c.do(ctx, http.MethodGet, "/get_vehicles", nil, &vehicles); err != nil {
		return nil, fmt.Errorf("get vehicles: %w", err)
	}
	return vehicles, nil
}

func (c *Client) Inspections(ctx context.Context) ([]core.Inspection, error) {
	inspections := []core.Inspection{}
	if err := c.do(ctx, http.MethodGet, "/get_inspections", nil, &inspections); err != nil {
		return nil, fmt.Errorf("get inspections: %w", err)
	}
	return inspections, nil
}

// Analytics returns the server's summary counts. A server with no records
// answers with an empty object, which decodes to zero counts.
func (c *Client) Analytics(ctx context.Context) (core.Analytics, error) {
	var a core.Analytics
	if err := c.do(ctx, http.MethodGet, "/get_analytics", nil, &a); err != nil {
		return core.Analytics{}, fmt.Errorf("get analytics: %w", err)
	}
	return a, nil
}

// AddVehicle sends v. A zero id is assigned here as one more than the highest
// id the server lists.
func (c *Client) AddVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	vehicles, err := c.Vehicles(ctx)
	if err != nil {
		return core.Vehicle{}, err
	}
	var maxID int64
	for _, existing := range vehicles {
		if existing.ID == v.ID && v.ID != 0 {
			return core.Vehicle{}, fmt.Errorf("vehicle %d: %w", v.ID, core.ErrDuplicateVehicleID)
		}
		maxID = max(maxID, existing.ID)
	}
	if v.ID == 0 {
		v.ID = maxID + 1
	}

	var resp mutationResponse
	if err := c.do(ctx, http.MethodPost, "/add_vehicle", v, &resp); err != nil {
		return core.Vehicle{}, fmt.Errorf("add vehicle: %w", err)
	}
	if resp.Vehicle != nil {
		return *resp.Vehicle, nil
	}
	return v, nil
}

func (c *Client) UpdateVehicle(ctx context.Context, id int64, patch core.VehiclePatch) (core.Vehicle, error) {
	vehicles, err := c.Vehicles(ctx)
	if err != nil {
		return core.Vehicle{}, err
	}
	var current *core.Vehicle
	for i := range vehicles {
		if vehicles[i].ID == id {
			current = &vehicles[i]
			break
		}
	}
	if current == nil {
		return core.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, core.ErrVehicleNotFound)
	}

	var resp mutationResponse
	if err := c.do(ctx, http.MethodPut, "/update_vehicle/"+strconv.FormatInt(id, 10), patch, &resp); err != nil {
		return core.Vehicle{}, fmt.Errorf("update vehicle %d: %w", id, err)
	}
	if resp.Vehicle != nil {
		return *resp.Vehicle, nil
	}
	patch.Apply(current)
	return *current, nil
}

func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	var resp mutationResponse
	if err := c.do(ctx, http.MethodDelete, "/delete_vehicle/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	return nil
}

func (c *Client) AddInspection(ctx context.Context, in core.Inspection) (core.Inspection, error) {
	var resp mutationResponse
	if err := c.do(ctx, http.MethodPost, "/add_inspection", in, &resp); err != nil {
		return core.Inspection{}, fmt.Errorf("add inspection: %w", err)
	}
	if resp.Inspection != nil {
		return *resp.Inspection, nil
	}
	return in, nil
}

// do sends body as JSON and decodes a successful response into out.
// Failed responses become errors, mapped to a core sentinel when the server
// sent a known code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if m, ok := out.(*mutationResponse); ok && !m.Success {
		return mutationError(m)
	}
	return nil
}

func responseError(status int, data []byte) error {
	var m mutationResponse
	if err := json.Unmarshal(data, &m); err == nil && (m.Message != "" || m.Code != "") {
		if sentinel, ok := codeErrors[m.Code]; ok {
			return fmt.Errorf("%s: %w", m.Message, sentinel)
		}
		return fmt.Errorf("server returned status %d: %s", status, m.Message)
	}

	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	msg := strings.TrimSpace(string(data))
	if status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, msg)
	}
	return fmt.Errorf("server returned status %d: %s", status, msg)
}

func mutationError(m *mutationResponse) error {
	if sentinel, ok := codeErrors[m.Code]; ok {
		return fmt.Errorf("%s: %w", m.Message, sentinel)
	}
	if m.Message == "" {
		return errors.New("server reported failure")
	}
	return errors.New(m.Message)
}

var _ core.Store = (*Client)(nil)
