package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/emberhq/firewatch/internal/entity"
)

// DefaultTimeout bounds every remote call when Config.Timeout is zero.
// A hung request must become a visible failure, never an open-ended wait.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read. The largest
// legitimate payload is a full collection; anything bigger is a
// hosting-layer page, not data.
const maxBodyBytes = 8 << 20

// Client is the remote store surface consumed by the sync layer.
//
// All calls are synchronous round trips bounded by the configured
// timeout; none of them retry. List results are never nil.
type Client interface {
	// ===================
	// Activities
	// ===================

	// FetchActivities returns every activity row.
	FetchActivities(ctx context.Context) ([]entity.Activity, error)

	// SaveActivity creates, or with isUpdate replaces, one activity row.
	SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error

	// DeleteActivity removes one activity row by id.
	DeleteActivity(ctx context.Context, id string) error

	// ===================
	// Hotspots
	// ===================

	FetchHotspots(ctx context.Context) ([]entity.Hotspot, error)
	SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error
	DeleteHotspot(ctx context.Context, id string) error

	// ===================
	// Fire Incidents
	// ===================

	FetchIncidents(ctx context.Context) ([]entity.FireIncident, error)
	SaveIncident(ctx context.Context, in entity.FireIncident, isUpdate bool) error

	// SaveIncidentsBatch writes a set of incidents created together.
	// The batch travels as one request and succeeds or fails as a unit.
	SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error

	DeleteIncident(ctx context.Context, id string) error

	// ===================
	// Settings
	// ===================

	// FetchSettings returns the raw settings document. Merging over
	// defaults is the caller's concern; the payload may legitimately be
	// partial.
	FetchSettings(ctx context.Context) (json.RawMessage, error)

	SaveSettings(ctx context.Context, s entity.Settings) error

	// ===================
	// Administration
	// ===================

	// Reset clears one sheet on the backend. Factory reset calls this
	// once per sheet and treats any failure as aborting the whole
	// operation.
	Reset(ctx context.Context, sheet string) error
}

// Config configures a remote store client.
type Config struct {
	// URL is the script endpoint, e.g. https://script.example.com/exec.
	URL string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests. Nil means
	// a plain http.Client (per-call timeouts come from context, not the
	// client, so redirect-following stays default).
	HTTPClient *http.Client

	// Logger receives dropped-row and payload warnings. Nil means a
	// default logger on stderr.
	Logger *log.Logger
}

type client struct {
	endpoint *url.URL
	http     *http.Client
	timeout  time.Duration
	logger   *log.Logger
}

// New creates a Client for the configured endpoint.
func New(cfg Config) (Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote endpoint URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote endpoint URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote endpoint URL must be http or https (got %q)", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}

	return &client{
		endpoint: u,
		http:     httpClient,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// get performs a read action via GET with query-string parameters.
func (c *client) get(ctx context.Context, action string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.endpoint
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", action, err)
	}

	return c.roundTrip(req, action)
}

// post performs a write action via POST. The body is JSON but is sent
// as text/plain; the backend parses it as JSON regardless, and the
// content type is part of the wire protocol.
func (c *client) post(ctx context.Context, body request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", body.Action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", body.Action, err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	return c.roundTrip(req, body.Action)
}

// roundTrip executes one request and validates the envelope.
func (c *client) roundTrip(req *http.Request, action string) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response: %v", ErrTransport, action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrTransport, action, resp.StatusCode)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return env.Data, nil
}

func (c *client) FetchActivities(ctx context.Context) ([]entity.Activity, error) {
	data, err := c.get(ctx, actionGetActivities)
	if err != nil {
		return nil, err
	}
	return decodeList[entity.Activity](data, c.logger, "activity"), nil
}

func (c *client) SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error {
	_, err := c.post(ctx, request{
		Action:   actionSaveActivity,
		Sheet:    SheetActivities,
		Data:     a,
		IsUpdate: isUpdate,
	})
	return err
}

func (c *client) DeleteActivity(ctx context.Context, id string) error {
	_, err := c.post(ctx, request{
		Action: actionDeleteActivity,
		Sheet:  SheetActivities,
		ID:     id,
	})
	return err
}

func (c *client) FetchHotspots(ctx context.Context) ([]entity.Hotspot, error) {
	data, err := c.get(ctx, actionGetHotspots)
	if err != nil {
		return nil, err
	}
	return decodeList[entity.Hotspot](data, c.logger, "hotspot"), nil
}

func (c *client) SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error {
	_, err := c.post(ctx, request{
		Action:   actionSaveHotspot,
		Sheet:    SheetHotspots,
		Data:     h,
		IsUpdate: isUpdate,
	})
	return err
}

func (c *client) DeleteHotspot(ctx context.Context, id string) error {
	_, err := c.post(ctx, request{
		Action: actionDeleteHotspot,
		Sheet:  SheetHotspots,
		ID:     id,
	})
	return err
}

func (c *client) FetchIncidents(ctx context.Context) ([]entity.FireIncident, error) {
	data, err := c.get(ctx, actionGetFireIncidents)
	if err != nil {
		return nil, err
	}
	return decodeList[entity.FireIncident](data, c.logger, "fire incident"), nil
}

func (c *client) SaveIncident(ctx context.Context, in entity.FireIncident, isUpdate bool) error {
	_, err := c.post(ctx, request{
		Action:   actionSaveFireIncident,
		Sheet:    SheetFireIncidents,
		Data:     in,
		IsUpdate: isUpdate,
	})
	return err
}

func (c *client) SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error {
	if len(batch) == 0 {
		return nil
	}
	_, err := c.post(ctx, request{
		Action: actionSaveIncidentsBatch,
		Sheet:  SheetFireIncidents,
		Data:   batch,
	})
	return err
}

func (c *client) DeleteIncident(ctx context.Context, id string) error {
	_, err := c.post(ctx, request{
		Action: actionDeleteFireIncident,
		Sheet:  SheetFireIncidents,
		ID:     id,
	})
	return err
}

func (c *client) FetchSettings(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, actionGetSettings)
}

func (c *client) SaveSettings(ctx context.Context, s entity.Settings) error {
	_, err := c.post(ctx, request{
		Action: actionSaveSettings,
		Sheet:  SheetSettings,
		Data:   s,
	})
	return err
}

func (c *client) Reset(ctx context.Context, sheet string) error {
	switch sheet {
	case SheetActivities, SheetHotspots, SheetSettings, SheetFireIncidents:
	default:
		return fmt.Errorf("unknown sheet %q", sheet)
	}
	_, err := c.post(ctx, request{
		Action: actionReset,
		Sheet:  sheet,
	})
	return err
}
