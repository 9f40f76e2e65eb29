package plantlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Plantline HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Asset represents the API asset model.
type Asset struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Criticality string `json:"criticality"`
	Location    string `json:"location,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// WorkOrder represents the API work order model.
type WorkOrder struct {
	ID          string  `json:"id"`
	AssetID     string  `json:"asset_id"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

// CalendarEvent is one entry of the maintenance calendar feed.
type CalendarEvent struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Title    string  `json:"title"`
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	Color    string  `json:"color"`
}

// InspectionTask is one checklist result of an autonomous inspection.
type InspectionTask struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// InspectionResult is the escalation outcome of a submitted inspection.
type InspectionResult struct {
	AnomaliesFound int     `json:"anomalies_found"`
	WorkOrderID    *string `json:"work_order_id,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateAsset registers an asset.
func (c *Client) CreateAsset(ctx context.Context, code, name, criticality string) (Asset, error) {
	body := map[string]any{
		"code":        code,
		"name":        name,
		"criticality": criticality,
	}
	var resp Asset
	err := c.do(ctx, http.MethodPost, "assets", body, &resp)
	return resp, err
}

// Assets lists registered assets.
func (c *Client) Assets(ctx context.Context) ([]Asset, error) {
	var resp []Asset
	err := c.do(ctx, http.MethodGet, "assets", nil, &resp)
	return resp, err
}

// ReportFault reports a fault and returns the escalated work order.
func (c *Client) ReportFault(ctx context.Context, assetID, description, impact string) (WorkOrder, error) {
	body := map[string]any{
		"asset_id":    assetID,
		"description": description,
	}
	if impact != "" {
		body["impact"] = impact
	}
	var resp WorkOrder
	err := c.do(ctx, http.MethodPost, "faults", body, &resp)
	return resp, err
}

// SubmitInspection submits autonomous checklist results.
func (c *Client) SubmitInspection(ctx context.Context, assetID string, tasks []InspectionTask, notes string) (InspectionResult, error) {
	body := map[string]any{
		"asset_id": assetID,
		"tasks":    tasks,
		"notes":    notes,
	}
	var resp InspectionResult
	err := c.do(ctx, http.MethodPost, "inspections", body, &resp)
	return resp, err
}

// SetWorkOrderStatus advances a work order.
func (c *Client) SetWorkOrderStatus(ctx context.Context, id, status string) (WorkOrder, error) {
	body := map[string]any{"status": status}
	var resp WorkOrder
	endpoint := fmt.Sprintf("workorders/%s/status", url.PathEscape(id))
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// Calendar returns the aggregated maintenance calendar.
func (c *Client) Calendar(ctx context.Context) ([]CalendarEvent, error) {
	var resp []CalendarEvent
	err := c.do(ctx, http.MethodGet, "calendar", nil, &resp)
	return resp, err
}

// Events returns recent audit events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("events?limit=%d", limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
