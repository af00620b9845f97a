package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	boardPageSize = 50
	issuePageSize = 100
)

type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit paces requests to at most perSecond requests per second.
// Zero or a negative value disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient builds a client for baseURL, e.g. https://acme.atlassian.net.
func NewClient(baseURL, email, apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// BrowseURL is the web link of an issue.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Messages = append(apiErr.Messages, eb.ErrorMessages...)
			fields := make([]string, 0, len(eb.Errors))
			for field := range eb.Errors {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				apiErr.Messages = append(apiErr.Messages, field+": "+eb.Errors[field])
			}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// listValues walks an agile "values" endpoint until Jira reports the last
// page or returns an empty one.
func listValues[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	startAt := 0

	for {
		q := cloneValues(query)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(boardPageSize))

		var page valuesPage[T]
		if err := c.get(ctx, path, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Values...)

		if page.IsLast || len(page.Values) == 0 {
			return all, nil
		}
		startAt += len(page.Values)
	}
}

// listIssues walks an issue endpoint until the page is empty or total is
// reached.
func (c *Client) listIssues(ctx context.Context, path, jql string) ([]Issue, error) {
	var all []Issue
	startAt := 0

	for {
		q := url.Values{}
		if jql != "" {
			q.Set("jql", jql)
		}
		q.Set("fields", issueFields)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(issuePageSize))

		var page issuesPage
		if err := c.get(ctx, path, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return all, nil
		}
	}
}

// Boards lists every board visible to the user. boardType ("scrum",
// "kanban") narrows the list when set.
func (c *Client) Boards(ctx context.Context, boardType string) ([]Board, error) {
	q := url.Values{}
	if boardType != "" {
		q.Set("type", boardType)
	}
	return listValues[Board](ctx, c, "/rest/agile/1.0/board", q)
}

func (c *Client) ActiveSprints(ctx context.Context, boardID int) ([]Sprint, error) {
	q := url.Values{}
	q.Set("state", "active")
	return listValues[Sprint](ctx, c, fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID), q)
}

func (c *Client) BoardIssues(ctx context.Context, boardID int, jql string) ([]Issue, error) {
	return c.listIssues(ctx, fmt.Sprintf("/rest/agile/1.0/board/%d/issue", boardID), jql)
}

func (c *Client) SprintIssues(ctx context.Context, sprintID int, jql string) ([]Issue, error) {
	return c.listIssues(ctx, fmt.Sprintf("/rest/agile/1.0/sprint/%d/issue", sprintID), jql)
}

// Myself returns the authenticated user; it doubles as a credentials check.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/rest/api/3/myself", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
