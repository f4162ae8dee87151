package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// HTTPConfig configures an HTTPSwitch.
type HTTPConfig struct {
	Address string
	Port    int
	Path    string
	Timeout time.Duration
	// MinInterval spaces consecutive commands; zero means no limit.
	MinInterval time.Duration
}

// CommandPayload is the JSON body accepted by the device.
type CommandPayload struct {
	Status int `json:"status"`
}

// HTTPSwitch posts {"status":0|1} to the device's HTTP endpoint.
type HTTPSwitch struct {
	client  *http.Client
	url     string
	limiter *rate.Limiter
}

// NewHTTPSwitch creates a switch for the device described by cfg.
func NewHTTPSwitch(cfg HTTPConfig) (*HTTPSwitch, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("device address is empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.Path == "" {
		cfg.Path = "/setSta"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)),
		Path:   cfg.Path,
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &HTTPSwitch{
		client:  &http.Client{Timeout: cfg.Timeout},
		url:     u.String(),
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// URL returns the command endpoint.
func (s *HTTPSwitch) URL() string {
	return s.url
}

// Set sends the command and waits for a 200 response.
func (s *HTTPSwitch) Set(ctx context.Context, on bool, mode Mode) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for command slot: %w", err)
	}

	body, err := FormatCommand(on)
	if err != nil {
		return fmt.Errorf("format command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to device (%s): %w", mode, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device response (%s): %s", mode, resp.Status)
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSwitch) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// FormatCommand creates the JSON body for a command.
func FormatCommand(on bool) ([]byte, error) {
	p := CommandPayload{Status: 0}
	if on {
		p.Status = 1
	}
	return json.Marshal(p)
}
