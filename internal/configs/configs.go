/*
Package configs is responsible for loading and parsing the client's configuration settings.

It configures the API endpoints and client behavior by reading operating system
environment variables, including the REST base URL, the chat WebSocket URL,
the feed page size, and the per-request timeout.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// AppConfig contains all configuration parameters required for the client to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Settings
	Environment string

	// API Endpoints
	APIBaseURL string
	ChatWSURL  string

	// Feed Settings
	PageSize int

	// RequestTimeout bounds every REST call. A hung request must not be able
	// to wedge the pagination loading gate.
	RequestTimeout time.Duration
}

// LoadConfig reads and parses the client configuration from environment variables.
// It provides development defaults for each configuration item and performs
// necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	// Environment
	cfg.Environment = os.Getenv("YAP_ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// --- API Endpoints ---
	// APIBaseURL
	cfg.APIBaseURL = os.Getenv("YAP_API_BASE_URL")
	if cfg.APIBaseURL == "" {
		if cfg.Environment == "development" {
			cfg.APIBaseURL = "http://localhost:8000"
		} else {
			return nil, fmt.Errorf("YAP_API_BASE_URL environment variable is required in %s environment", cfg.Environment)
		}
	}
	if _, err := url.Parse(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid YAP_API_BASE_URL environment variable: %w", err)
	}

	// ChatWSURL
	cfg.ChatWSURL = os.Getenv("YAP_WS_URL")
	if cfg.ChatWSURL == "" {
		if cfg.Environment == "development" {
			cfg.ChatWSURL = "ws://localhost:8000/chat"
		} else {
			return nil, fmt.Errorf("YAP_WS_URL environment variable is required in %s environment", cfg.Environment)
		}
	}
	wsURL, err := url.Parse(cfg.ChatWSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid YAP_WS_URL environment variable: %w", err)
	}
	if wsURL.Scheme != "ws" && wsURL.Scheme != "wss" {
		return nil, fmt.Errorf("YAP_WS_URL scheme must be ws or wss, got %q", wsURL.Scheme)
	}

	// --- Feed Settings ---
	// PageSize
	pageSizeStr := os.Getenv("YAP_PAGE_SIZE")
	if pageSizeStr == "" {
		pageSizeStr = "10"
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid YAP_PAGE_SIZE environment variable: %w", err)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, fmt.Errorf("page size %d is outside the supported range (1-100)", pageSize)
	}
	cfg.PageSize = pageSize

	// --- Timeouts ---
	// RequestTimeout
	timeoutStr := os.Getenv("YAP_REQUEST_TIMEOUT")
	if timeoutStr == "" {
		timeoutStr = "15s"
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid YAP_REQUEST_TIMEOUT environment variable: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", timeout)
	}
	cfg.RequestTimeout = timeout

	return cfg, nil
}
