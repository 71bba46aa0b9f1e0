// Package forge is the REST client for the Git-hosting service: it fetches
// pull request diffs and posts review comments.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "reviewbot"

// maxErrorDetail caps how much of an error response body is kept.
const maxErrorDetail = 500

// ErrNotConfigured is returned when the base URL or API token is missing.
// No network call is attempted in that case.
var ErrNotConfigured = errors.New("forge base url or api token not configured")

// APIError is a non-2xx response from the forge API.
type APIError struct {
	Code   int
	Status string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forge api: %s: %s", e.Status, e.Detail)
}

// Client talks to the Gitea REST API. Neither operation retries; failures are
// reported once and the caller decides what to do.
type Client struct {
	resty   *resty.Client
	baseURL string
	token   string
	logger  *log.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Client{
		resty:   r,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

// FetchDiff returns the unified diff text for a pull request. The diff may be
// empty; interpreting that is up to the caller.
func (c *Client) FetchDiff(ctx context.Context, repo string, number int64) (string, error) {
	if c.baseURL == "" || c.token == "" {
		return "", ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/v1/repos/%s/pulls/%d.diff", c.baseURL, repo, number)
	res, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Authorization", "token "+c.token).
		Get(url)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", apiError(res)
	}
	return res.String(), nil
}

// PostComment posts a comment on a pull request. Gitea targets PR comments
// through the issues API.
func (c *Client) PostComment(ctx context.Context, repo string, number int64, body string) error {
	if c.baseURL == "" || c.token == "" {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/v1/repos/%s/issues/%d/comments", c.baseURL, repo, number)
	res, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Authorization", "token "+c.token).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"body": body}).
		Post(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return apiError(res)
	}
	return nil
}

func apiError(res *resty.Response) *APIError {
	detail := res.String()
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail]
	}
	return &APIError{Code: res.StatusCode(), Status: res.Status(), Detail: detail}
}
