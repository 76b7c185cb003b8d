package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/vitalsync/backend/internal/domain"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new USDA API client.
// requestsPerHour bounds outgoing calls; zero means the USDA default of 1000.
func NewClient(apiKey, baseURL string, requestsPerHour int) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// SearchFoods searches for foods in the USDA database
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	params := url.Values{}
	params.Add("query", query)
	params.Add("dataType", "Foundation,SR Legacy,Survey (FNDDS),Branded")
	params.Add("pageSize", "10")

	var searchResp domain.USDASearchResponse
	if err := c.getJSON(ctx, "/v1/foods/search", params, &searchResp); err != nil {
		return nil, err
	}
	if len(searchResp.Foods) == 0 {
		c.logf("No foods found for query: %q", query)
		return nil, domain.ErrProductNotFound
	}

	c.logf("Found %d foods for query: %q", len(searchResp.Foods), query)
	return &searchResp, nil
}

// GetFoodDetails retrieves detailed nutrition information for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	var food domain.USDAFood
	if err := c.getJSON(ctx, "/v1/food/"+url.PathEscape(fdcID), url.Values{}, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// getJSON performs a rate-limited GET. Network errors, 429 and 5xx are
// retried; other 4xx are terminal and 404 maps to domain.ErrProductNotFound.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.logf("Request error (attempt %d): %v", attempt, err)
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusNotFound:
			return domain.ErrProductNotFound
		case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
			c.logf("API client error - Status: %d, Body: %s", status, string(body))
			return fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, status)
		case status != http.StatusOK:
			c.logf("API error (attempt %d) - Status: %d, Body: %s", attempt, status, string(body))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, status)
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	c.logf("All retries failed for %s", path)
	return lastErr
}

// doRequest executes an HTTP GET request and returns the body and status
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "VitalSync/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", domain.ErrUSDAAPIFailure, err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[USDA] "+format, args...)
	}
}
