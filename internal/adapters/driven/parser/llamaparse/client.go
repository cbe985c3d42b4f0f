// Package llamaparse implements driven.DocumentParser against the
// LlamaParse cloud REST API.
package llamaparse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Verify interface implementation at compile time.
var _ driven.DocumentParser = (*Client)(nil)

const (
	serviceName     = "llamaparse"
	acceptImageJPEG = "image/jpeg"
)

// Client talks to the parsing service.
type Client struct {
	baseURL      string
	token        string
	client       *http.Client
	resultClient *http.Client
	limiter      *ratelimit.Limiter
}

// NewClient creates a parser client from configuration.
// Zero timeouts fall back to the package defaults.
func NewClient(cfg domain.ParserConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: parser API token is required", domain.ErrInvalidInput)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultParserBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultParserTimeout
	}

	resultTimeout := cfg.ResultTimeout
	if resultTimeout <= 0 {
		resultTimeout = domain.DefaultResultTimeout
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        cfg.Token,
		client:       &http.Client{Timeout: timeout},
		resultClient: &http.Client{Timeout: resultTimeout},
		limiter:      ratelimit.New(cfg.RatePerSecond),
	}, nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submit posts the job parameters as a urlencoded form.
func (c *Client) Submit(ctx context.Context, req driven.SubmitRequest) (string, error) {
	form := url.Values{}
	form.Set("use_vendor_multimodal_model", strconv.FormatBool(req.Multimodal))
	form.Set("vendor_multimodal_model_name", req.ModelName)
	form.Set("input_url", req.InputURL)
	form.Set("num_workers", strconv.Itoa(req.NumWorkers))

	status, respBody, err := c.do(ctx, c.client, http.MethodPost, c.baseURL+"/upload",
		"application/x-www-form-urlencoded", "", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &domain.UploadError{StatusCode: status, Body: string(respBody)}
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return result.ID, nil
}

// Status returns the job status reported by the service.
func (c *Client) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	respBody, err := c.get(ctx, c.client, "status", c.jobURL(jobID), "")
	if err != nil {
		return "", err
	}

	var result statusResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	if result.Status == "" {
		return domain.JobUnknown, nil
	}
	return domain.JobStatus(result.Status), nil
}

// Result fetches the structured per-page output.
func (c *Client) Result(ctx context.Context, jobID string) (*driven.ParseOutput, error) {
	respBody, err := c.get(ctx, c.resultClient, "result", c.jobURL(jobID)+"/result/json", "")
	if err != nil {
		return nil, err
	}

	var out driven.ParseOutput
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &out, nil
}

// Image downloads one extracted image.
func (c *Client) Image(ctx context.Context, jobID, name string) ([]byte, error) {
	u := c.jobURL(jobID) + "/result/image/" + url.PathEscape(name)
	return c.get(ctx, c.client, "image", u, acceptImageJPEG)
}

func (c *Client) jobURL(jobID string) string {
	return c.baseURL + "/job/" + url.PathEscape(jobID)
}

// get performs a GET and maps non-OK responses to *domain.RemoteError.
func (c *Client) get(ctx context.Context, client *http.Client, op, u, accept string) ([]byte, error) {
	status, body, err := c.do(ctx, client, http.MethodGet, u, "", accept, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.RemoteError{Service: serviceName, Op: op, StatusCode: status, Body: string(body)}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, method, u, contentType, accept string, body io.Reader) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	c.limiter.Observe(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
