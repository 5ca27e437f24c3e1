// Package vicidial talks to the dialer's non-agent API, which answers with
// line-oriented text rather than JSON.
package vicidial

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vicidash-backend/internal/logger"
)

const (
	functionDispoReport = "call_dispo_report"
	functionStatusStats = "call_status_stats"
	sourceName          = "dashboard"
)

// Client queries the non-agent API. The upstream is read-only; failures are
// returned to the caller, never retried.
type Client struct {
	baseURL    string
	user       string
	pass       string
	httpClient *http.Client
}

func NewClient(baseURL, user, pass string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		user:    user,
		pass:    pass,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TotalCalls fetches the dispo report for the range and returns the count
// carried on its TOTAL line.
func (c *Client) TotalCalls(ctx context.Context, campaign, startDate, endDate string) (int, error) {
	raw, err := c.fetch(ctx, functionDispoReport, campaign, startDate, endDate)
	if err != nil {
		return 0, err
	}
	return ParseTotalCalls(raw), nil
}

// StatusCounts fetches the status stats for the range and returns the
// per-disposition histogram.
func (c *Client) StatusCounts(ctx context.Context, campaign, startDate, endDate string) (map[string]int, error) {
	raw, err := c.fetch(ctx, functionStatusStats, campaign, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return ParseDispositions(raw), nil
}

func (c *Client) fetch(ctx context.Context, function, campaign, startDate, endDate string) (string, error) {
	params := url.Values{}
	params.Set("source", sourceName)
	params.Set("user", c.user)
	params.Set("pass", c.pass)
	params.Set("function", function)
	params.Set("campaigns", campaign)
	params.Set("query_date", startDate)
	params.Set("end_date", endDate)

	logger.ExternalServiceCall("vicidial", function,
		"campaign", campaign, "start", startDate, "end", endDate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create vicidial request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("vicidial", function, err)
		return "", fmt.Errorf("vicidial request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("vicidial returned status %d", resp.StatusCode)
		logger.ExternalServiceResult("vicidial", function, err)
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.ExternalServiceResult("vicidial", function, err)
		return "", fmt.Errorf("read vicidial response: %w", err)
	}

	logger.ExternalServiceResult("vicidial", function, nil, "bytes", len(body))
	return strings.TrimSpace(string(body)), nil
}
