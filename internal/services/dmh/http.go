package dmh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dmhmr/internal/config"
	"dmhmr/internal/services"
)

const userAgent = "dmhmr/0.1.0"

// passwordEnv names the environment variable the client reads the DMH
// password from. Credentials never live in config files.
const passwordEnv = "DMH_PASSWORD"

// HTTPClient talks to the DMH REST endpoint. Safe for concurrent use; the
// session token is shared across submissions.
type HTTPClient struct {
	baseURL    string
	loginPath  string
	submitPath string
	username   string
	password   string
	client     *http.Client

	mu    sync.Mutex
	token string
}

// NewClient builds an HTTP client from configuration. The password comes
// from DMH_PASSWORD.
func NewClient(cfg *config.Config) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.DMH.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "dmh", "new client",
			"dmh.base_url is not configured", nil)
	}
	timeout := time.Duration(cfg.DMH.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:    base,
		loginPath:  cfg.DMH.LoginPath,
		submitPath: cfg.DMH.SubmitPath,
		username:   cfg.DMH.Username,
		password:   os.Getenv(passwordEnv),
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login establishes a session and caches the token. Concurrent callers share
// one login.
func (c *HTTPClient) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return nil
	}

	payload, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.loginPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "dmh", "login", "connecting to DMH", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrExternalTool, "dmh", "login",
			fmt.Sprintf("DMH returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return services.Wrap(services.ErrExternalTool, "dmh", "login", "decoding login response", err)
	}
	if decoded.Token == "" {
		return services.Wrap(services.ErrExternalTool, "dmh", "login", "login response carried no token", nil)
	}
	c.token = decoded.Token
	return nil
}

// Submit sends one record and returns the upstream acknowledgement. Callers
// bound the call with a context deadline; an expired deadline surfaces as a
// wrapped context error so it can be classified as a timeout.
func (c *HTTPClient) Submit(ctx context.Context, submission Request) (Response, error) {
	if err := c.Login(ctx); err != nil {
		return Response{}, err
	}

	payload, err := json.Marshal(submission)
	if err != nil {
		return Response{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.submitPath, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build submission request: %w", err)
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, services.Wrap(services.ErrTimeout, "dmh", "submit", "submission timed out", ctx.Err())
		}
		return Response{}, services.Wrap(services.ErrExternalTool, "dmh", "submit", "sending submission", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// session expired upstream; next submit logs in again
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return Response{}, services.Wrap(services.ErrExternalTool, "dmh", "submit", "session rejected by DMH", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Response{}, services.Wrap(services.ErrExternalTool, "dmh", "submit", "reading acknowledgement", err)
	}

	var ack Response
	if err := json.Unmarshal(body, &ack); err != nil {
		return Response{}, services.Wrap(services.ErrExternalTool, "dmh", "submit",
			fmt.Sprintf("DMH returned %d with unreadable body", resp.StatusCode), err)
	}
	return ack, nil
}
