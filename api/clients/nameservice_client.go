package clients

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

	"github.com/ruteri/secret-dns/api"
	"github.com/ruteri/secret-dns/interfaces"
)

// ErrUnexpectedResponse is returned for answers the API does not document.
var ErrUnexpectedResponse = errors.New("unexpected response from secret-dns")

// NameServiceClient talks to a secret-dns server over its HTTP API.
type NameServiceClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

var (
	_ interfaces.NameService  = (*NameServiceClient)(nil)
	_ interfaces.NameRegistry = (*NameServiceClient)(nil)
)

// NewNameServiceClient creates a client for the API at baseURL,
// e.g. "http://localhost:8080".
func NewNameServiceClient(baseURL string, timeout time.Duration, log *slog.Logger) *NameServiceClient {
	return &NameServiceClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Ready reports whether the server answers /readyz with 200.
func (c *NameServiceClient) Ready() bool {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *NameServiceClient) RegisterStatus(ctx context.Context, domain, owner string) (interfaces.StatusCode, error) {
	var resp api.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/domains", api.RegisterRequest{Domain: domain, Owner: owner}, &resp)
	if err != nil {
		return 0, err
	}
	return parseStatus(resp)
}

func (c *NameServiceClient) SetTargetStatus(ctx context.Context, domain, target, owner string) (interfaces.StatusCode, error) {
	var resp api.StatusResponse
	path := "/api/v1/domains/" + url.PathEscape(domain) + "/target"
	err := c.do(ctx, http.MethodPut, path, api.SetTargetRequest{Target: target, Owner: owner}, &resp)
	if err != nil {
		return 0, err
	}
	return parseStatus(resp)
}

// ResolveTarget returns "" without an error for names that have no target.
func (c *NameServiceClient) ResolveTarget(ctx context.Context, domain string) (string, error) {
	var resp api.ResolveResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/domains/"+url.PathEscape(domain), nil, &resp)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resp.Target, nil
}

func (c *NameServiceClient) Register(ctx context.Context, domain, owner string) bool {
	status, err := c.RegisterStatus(ctx, domain, owner)
	if err != nil {
		c.log.Warn("Register request failed", slog.String("domain", domain), "err", err)
		return false
	}
	return status == interfaces.StatusNone
}

func (c *NameServiceClient) SetTarget(ctx context.Context, domain, target, owner string) bool {
	status, err := c.SetTargetStatus(ctx, domain, target, owner)
	if err != nil {
		c.log.Warn("Set target request failed", slog.String("domain", domain), "err", err)
		return false
	}
	return status == interfaces.StatusNone
}

func (c *NameServiceClient) Resolve(ctx context.Context, domain string) string {
	target, err := c.ResolveTarget(ctx, domain)
	if err != nil {
		c.log.Warn("Resolve request failed", slog.String("domain", domain), "err", err)
		return ""
	}
	return target
}

// HTTPError is a non-2xx answer from the server. It unwraps to the matching
// interfaces sentinel where the status code identifies one.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with code %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusServiceUnavailable:
		return interfaces.ErrNotReady
	case http.StatusGatewayTimeout:
		return interfaces.ErrTimeout
	case http.StatusUnprocessableEntity:
		return interfaces.ErrExecutionFailed
	case http.StatusBadRequest:
		return interfaces.ErrInvalidDomain
	default:
		return nil
	}
}

func (c *NameServiceClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(respBody))
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func parseStatus(resp api.StatusResponse) (interfaces.StatusCode, error) {
	code, ok := api.ParseStatus(resp.Status)
	if !ok {
		return 0, fmt.Errorf("%w: status %q", ErrUnexpectedResponse, resp.Status)
	}
	return code, nil
}
