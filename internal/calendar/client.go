// Package calendar mirrors bookings into the external calendar service. The
// bridge owns the OAuth handshake with the calendar provider; this package
// only speaks the bridge's create/delete event API, and every call is
// best-effort and advisory — the record store stays authoritative.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

const defaultTimeout = 8 * time.Second

// Client talks to the calendar bridge service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each bridge call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithDryRun makes event calls log and return fake results without touching
// the bridge, for local runs without calendar credentials.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// NewClient creates a bridge client rooted at baseURL.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateEventRequest is the bridge's create-event payload. Timestamps are
// RFC3339 with the clinic's fixed offset.
type CreateEventRequest struct {
	PatientName string `json:"patient_name"`
	City        string `json:"city"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// Event is a mirrored calendar entry.
type Event struct {
	EventID  string `json:"eventId"`
	HTMLLink string `json:"htmlLink"`
}

// CreateEvent mirrors a booking into the calendar.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	if c.dryRun {
		c.logger.Info("calendar dry-run: create event skipped", "patient", req.PatientName, "start", req.StartTime)
		return &Event{EventID: "dry-run", HTMLLink: ""}, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("calendar: marshal create event: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-event", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calendar: build create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calendar: create event call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("calendar: create event returned %d: %s", resp.StatusCode, string(snippet))
	}

	var event Event
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, fmt.Errorf("calendar: decode create response: %w", err)
	}
	return &event, nil
}

// DeleteEvent removes a mirrored calendar entry.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if c.dryRun {
		c.logger.Info("calendar dry-run: delete event skipped", "event_id", eventID)
		return nil
	}
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("calendar: event id required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/events/"+eventID, nil)
	if err != nil {
		return fmt.Errorf("calendar: build delete request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calendar: delete event call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// A 404 means the event is already gone, which is the state we wanted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar: delete event returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
