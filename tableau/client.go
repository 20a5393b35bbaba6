// Package tableau is a minimal client for the Tableau Server REST API:
// personal-access-token auth, workbook/view discovery, and CSV export of
// view data. It is the report pipeline's data source; it never interprets
// the data it fetches.
package tableau

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
)

// Config holds connection settings for one Tableau site.
type Config struct {
	ServerURL   string
	Site        string // the site's contentUrl
	TokenName   string
	TokenSecret string
	APIVersion  string

	Timeout      time.Duration // per-request timeout, default 30s
	MaxRetries   int           // retries on 429/5xx and transient errors, default 3
	RetryBackoff time.Duration // base backoff, doubled per attempt, default 500ms
}

// APIError is a non-2xx response from the Tableau API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tableau: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to one Tableau site. Authenticate first; afterwards the
// client is safe for concurrent reads until SignOut.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	authToken string
	siteID    string
	userID    string
}

// Workbook is the subset of workbook metadata the report run needs.
type Workbook struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project struct {
		Name string `json:"name"`
	} `json:"project"`
}

// View is the subset of view metadata the report run needs.
type View struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ViewURLName string `json:"viewUrlName"`
}

// ViewFilter narrows a view's data export, mirroring Tableau's vf_ query
// parameters.
type ViewFilter struct {
	Field  string
	Values []string
}

// NewClient creates a client. Nil logger discards.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "3.19"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Authenticate signs in with the personal access token and stores the
// session token used by all later calls.
func (c *Client) Authenticate(ctx context.Context) error {
	payload := map[string]any{
		"credentials": map[string]any{
			"personalAccessTokenName":   c.cfg.TokenName,
			"personalAccessTokenSecret": c.cfg.TokenSecret,
			"site":                      map[string]string{"contentUrl": c.cfg.Site},
		},
	}

	var out struct {
		Credentials struct {
			Token string `json:"token"`
			Site  struct {
				ID string `json:"id"`
			} `json:"site"`
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"credentials"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "auth/signin", payload, &out); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if out.Credentials.Token == "" || out.Credentials.Site.ID == "" {
		return errors.New("tableau: sign-in response missing token or site id")
	}

	c.authToken = out.Credentials.Token
	c.siteID = out.Credentials.Site.ID
	c.userID = out.Credentials.User.ID
	c.logger.Info("tableau sign-in successful", "site", c.cfg.Site)
	return nil
}

// SignOut invalidates the session token. Safe to call when not signed in.
func (c *Client) SignOut(ctx context.Context) error {
	if c.authToken == "" {
		return nil
	}
	err := c.doJSON(ctx, http.MethodPost, "auth/signout", nil, nil)
	c.authToken, c.siteID, c.userID = "", "", ""
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.logger.Info("tableau sign-out successful")
	return nil
}

// FindWorkbook returns the first workbook in the named project whose name
// contains the given substring.
func (c *Client) FindWorkbook(ctx context.Context, project, nameContains string) (*Workbook, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	var out struct {
		Workbooks struct {
			Workbook []Workbook `json:"workbook"`
		} `json:"workbooks"`
	}
	endpoint := fmt.Sprintf("sites/%s/users/%s/workbooks", c.siteID, c.userID)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("list workbooks: %w", err)
	}

	for _, wb := range out.Workbooks.Workbook {
		if wb.Project.Name == project && strings.Contains(wb.Name, nameContains) {
			c.logger.Info("workbook matched", "name", wb.Name, "id", wb.ID)
			return &wb, nil
		}
	}
	return nil, fmt.Errorf("tableau: no workbook in project %q with name containing %q", project, nameContains)
}

// FindViews returns the workbook's views whose viewUrlName (or display
// name) is in targets, preserving the workbook's view order.
func (c *Client) FindViews(ctx context.Context, workbookID string, targets []string) ([]View, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	var out struct {
		Views struct {
			View []View `json:"view"`
		} `json:"views"`
	}
	endpoint := fmt.Sprintf("sites/%s/workbooks/%s/views", c.siteID, workbookID)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}

	wanted := make(map[string]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}
	var views []View
	for _, v := range out.Views.View {
		if wanted[v.ViewURLName] || wanted[v.Name] {
			views = append(views, v)
		}
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("tableau: no views matching %v in workbook %s", targets, workbookID)
	}
	return views, nil
}

// ViewDataCSV downloads a view's data as CSV bytes, optionally narrowed by
// a view filter.
func (c *Client) ViewDataCSV(ctx context.Context, viewID string, filter *ViewFilter) ([]byte, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if filter != nil && filter.Field != "" && len(filter.Values) > 0 {
		params.Set("vf_"+filter.Field, strings.Join(filter.Values, ","))
	}
	params.Set("pageType", "actual")
	params.Set("orientation", "portrait")
	params.Set("maxRowsPerPage", "100000")

	endpoint := fmt.Sprintf("sites/%s/views/%s/data?%s", c.siteID, viewID, params.Encode())
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "text/csv, */*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("view data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("view data: read body: %w", err)
	}
	c.logger.Info("fetched view data", "view", viewID, "bytes", len(body))
	return body, nil
}

func (c *Client) requireAuth() error {
	if c.authToken == "" || c.siteID == "" {
		return errors.New("tableau: not authenticated, call Authenticate first")
	}
	return nil
}

// doJSON performs a request with a JSON payload and decodes a JSON reply.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}
	resp, err := c.do(ctx, method, endpoint, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// do issues one API request with bounded retry on 429/5xx responses and
// transient transport errors, backing off exponentially between attempts.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, accept string) (*http.Response, error) {
	fullURL := fmt.Sprintf("%s/api/%s/%s", c.cfg.ServerURL, c.cfg.APIVersion, endpoint)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBackoff << (attempt - 1)
			c.logger.Warn("retrying tableau request", "endpoint", endpoint, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", accept)
		if c.authToken != "" {
			req.Header.Set("X-Tableau-Auth", c.authToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if retriableStatus(resp.StatusCode) {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			lastErr = &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(b)}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(b)}
		}
		return resp, nil
	}
	return nil, fmt.Errorf("tableau: %s failed after %d retries: %w", endpoint, c.cfg.MaxRetries, lastErr)
}

func retriableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
