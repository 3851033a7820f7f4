// Package api is the client for the external energy REST backend. The
// backend owns all raw data and server-side aggregation; this client only
// fetches and decodes.
package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/config"
	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Filter carries the query parameters shared by the energy endpoints.
// Source filters are always pushed upstream, at every resolution, so the
// client never sees aggregates it has to re-filter.
type Filter struct {
	StartDate   string
	EndDate     string
	SourceTypes []domain.EnergySourceType
	ProjectID   *int64
}

// TokenResponse is the login payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsAdmin     bool   `json:"is_admin"`
}

// Client talks to the energy API under /api/v1 with bearer-token auth.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds the resty client with timeout and retry policy.
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL + "/api/v1").
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{http: httpClient, logger: logger}
}

// Login exchanges credentials for a bearer token and installs it on the
// client for subsequent requests. The endpoint is form-encoded.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("login failed: %s", resp.Status())
	}

	c.http.SetAuthToken(out.AccessToken)
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	var out domain.User
	if err := c.post(ctx, "/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects lists the user's projects.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.get(ctx, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Project fetches a single project by id.
func (c *Client) Project(ctx context.Context, id int64) (*domain.Project, error) {
	var out domain.Project
	if err := c.get(ctx, fmt.Sprintf("/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name, description, location string) (*domain.Project, error) {
	var out domain.Project
	if err := c.post(ctx, "/projects", map[string]string{
		"name":        name,
		"description": description,
		"location":    location,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces a project's descriptive fields.
func (c *Client) UpdateProject(ctx context.Context, id int64, name, description, location string) (*domain.Project, error) {
	var out domain.Project
	path := fmt.Sprintf("/projects/%d", id)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"name":        name,
			"description": description,
			"location":    location,
		}).
		SetResult(&out).
		Put(path)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("update project %d failed: %s", id, resp.Status())
	}
	return &out, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	resp, err := c.http.R().SetContext(ctx).Delete(fmt.Sprintf("/projects/%d", id))
	if err != nil {
		return fmt.Errorf("request to /projects/%d failed: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete project %d failed: %s", id, resp.Status())
	}
	return nil
}

// Consumption lists raw consumption records under the filter.
func (c *Client) Consumption(ctx context.Context, filter Filter) ([]domain.Record, error) {
	var out []domain.Record
	if err := c.get(ctx, "/energy/consumption", filter.params(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Generation lists raw generation records under the filter.
func (c *Client) Generation(ctx context.Context, filter Filter) ([]domain.Record, error) {
	var out []domain.Record
	if err := c.get(ctx, "/energy/generation", filter.params(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DailyConsumption fetches the daily consumption aggregate.
func (c *Client) DailyConsumption(ctx context.Context, filter Filter) (*domain.AggregateResponse, error) {
	return c.aggregate(ctx, "/energy/consumption/aggregate/daily", filter)
}

// DailyGeneration fetches the daily generation aggregate.
func (c *Client) DailyGeneration(ctx context.Context, filter Filter) (*domain.AggregateResponse, error) {
	return c.aggregate(ctx, "/energy/generation/aggregate/daily", filter)
}

// WeeklyConsumption fetches the weekly consumption aggregate.
func (c *Client) WeeklyConsumption(ctx context.Context, filter Filter) (*domain.AggregateResponse, error) {
	return c.aggregate(ctx, "/energy/consumption/aggregate/weekly", filter)
}

// WeeklyGeneration fetches the weekly generation aggregate.
func (c *Client) WeeklyGeneration(ctx context.Context, filter Filter) (*domain.AggregateResponse, error) {
	return c.aggregate(ctx, "/energy/generation/aggregate/weekly", filter)
}

// Summary fetches the consumption/generation summary for a period.
func (c *Client) Summary(ctx context.Context, startDate, endDate string, projectID *int64) (*domain.EnergySummary, error) {
	params := map[string]string{
		"start_date": startDate,
		"end_date":   endDate,
	}
	if projectID != nil {
		params["project_id"] = strconv.FormatInt(*projectID, 10)
	}

	var out domain.EnergySummary
	if err := c.get(ctx, "/insights/summary", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommendations fetches insight suggestions, optionally project-scoped.
func (c *Client) Recommendations(ctx context.Context, projectID *int64) ([]domain.Recommendation, error) {
	params := map[string]string{}
	if projectID != nil {
		params["project_id"] = strconv.FormatInt(*projectID, 10)
	}

	var out []domain.Recommendation
	if err := c.get(ctx, "/insights/recommendations", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Trends fetches the monthly trend series.
func (c *Client) Trends(ctx context.Context, months int) (*domain.Trends, error) {
	var out domain.Trends
	if err := c.get(ctx, "/insights/trends", map[string]string{
		"months": strconv.Itoa(months),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) aggregate(ctx context.Context, path string, filter Filter) (*domain.AggregateResponse, error) {
	var out domain.AggregateResponse
	if err := c.get(ctx, path, filter.params(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("request to %s failed: %s", path, resp.Status())
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(out).Post(path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("request to %s failed: %s", path, resp.Status())
	}
	return nil
}

// params flattens the filter into query parameters. Multiple source types
// are sent comma-separated; the backend accepts repeated or joined values.
func (f Filter) params() map[string]string {
	params := map[string]string{}
	if f.StartDate != "" {
		params["start_date"] = f.StartDate
	}
	if f.EndDate != "" {
		params["end_date"] = f.EndDate
	}
	if f.ProjectID != nil {
		params["project_id"] = strconv.FormatInt(*f.ProjectID, 10)
	}
	if len(f.SourceTypes) > 0 {
		joined := ""
		for i, s := range f.SourceTypes {
			if i > 0 {
				joined += ","
			}
			joined += string(s)
		}
		params["source_type"] = joined
	}
	return params
}
