// Package marketplace is a typed HTTP client for the mentor booking API.
//
// The client satisfies the same slot source contract as the local slot service, so the
// month occupancy aggregator can run against a remote deployment.
package marketplace

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

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// CredentialProvider supplies the bearer token for each request. Returning an empty token
// sends the request anonymously.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements CredentialProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials CredentialProvider
	// Location is used to render dates; it should match the server's scheduling timezone.
	Location   *time.Location
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the booking API over HTTP.
type Client struct {
	hc       *http.Client
	baseURL  *url.URL
	creds    CredentialProvider
	location *time.Location
	logger   *zap.Logger
}

// New builds a client for opts.BaseURL, e.g. "https://booking.example.com/api".
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if opts.Credentials == nil {
		opts.Credentials = StaticToken("")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{hc: hc, baseURL: base, creds: opts.Credentials, location: opts.Location, logger: opts.Logger}, nil
}

// Location returns the timezone used for dates.
func (c *Client) Location() *time.Location {
	return c.location
}

// GetAvailability lists a mentor's active windows.
func (c *Client) GetAvailability(ctx context.Context, mentorID string) (*models.MentorAvailability, error) {
	var out models.MentorAvailability
	if err := c.do(ctx, http.MethodGet, "/mentors/"+url.PathEscape(mentorID)+"/availability", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTutorial loads a tutorial.
func (c *Client) GetTutorial(ctx context.Context, tutorialID string) (*models.Tutorial, error) {
	var out models.Tutorial
	if err := c.do(ctx, http.MethodGet, "/tutorials/"+url.PathEscape(tutorialID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAvailableSlots lists the candidate slots of tutorialID on date.
func (c *Client) GetAvailableSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error) {
	query := url.Values{"date": {date.In(c.location).Format(models.DateLayout)}}
	var out models.AvailableSlots
	if err := c.do(ctx, http.MethodGet, "/tutorials/"+url.PathEscape(tutorialID)+"/available-slots", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSlots is GetAvailableSlots under the slot source name.
func (c *Client) GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error) {
	return c.GetAvailableSlots(ctx, tutorialID, date)
}

// ActiveWindowsForTutorial resolves the tutorial's mentor and returns the active windows.
func (c *Client) ActiveWindowsForTutorial(ctx context.Context, tutorialID string) ([]models.AvailabilityWindow, error) {
	tutorial, err := c.GetTutorial(ctx, tutorialID)
	if err != nil {
		return nil, err
	}
	availability, err := c.GetAvailability(ctx, tutorial.MentorID)
	if err != nil {
		return nil, err
	}
	active := make([]models.AvailabilityWindow, 0, len(availability.Windows))
	for _, w := range availability.Windows {
		if w.Active {
			active = append(active, w)
		}
	}
	return active, nil
}

// GetMonthOccupancy asks the server to aggregate a month.
func (c *Client) GetMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
	query := url.Values{"month": {month.In(c.location).Format(models.MonthLayout)}}
	var out models.MonthOccupancy
	if err := c.do(ctx, http.MethodGet, "/tutorials/"+url.PathEscape(tutorialID)+"/occupancy", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateLessonBooking books a slot against ticketID.
func (c *Client) CreateLessonBooking(ctx context.Context, ticketID string, req models.CreateLessonRequest) (*models.Lesson, error) {
	var out models.Lesson
	if err := c.do(ctx, http.MethodPost, "/tickets/"+url.PathEscape(ticketID)+"/lessons", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMyTickets lists the caller's tickets.
func (c *Client) GetMyTickets(ctx context.Context) ([]models.Ticket, error) {
	var out []models.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/my", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMyLessons lists the caller's lessons, optionally narrowed by status and ticket.
func (c *Client) GetMyLessons(ctx context.Context, status, ticketID string) ([]models.Lesson, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if ticketID != "" {
		query.Set("ticket_id", ticketID)
	}
	var out []models.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/my", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint, err := url.Parse(c.baseURL.String() + path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, http.StatusServiceUnavailable, "marketplace request failed")
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("marketplace request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && res.StatusCode < 400 {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	if res.StatusCode >= 400 {
		if env.Error == nil {
			return appErrors.New(fmt.Sprintf("HTTP_%d", res.StatusCode), res.StatusCode, fmt.Sprintf("marketplace returned status %d", res.StatusCode))
		}
		env.Error.Status = res.StatusCode
		env.Error.Meta = env.Meta
		return env.Error
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
