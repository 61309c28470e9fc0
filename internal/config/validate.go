package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.URL)
	switch {
	case c.API.URL == "":
		errs = append(errs, errors.New("api.url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("api.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("api.url: unsupported scheme %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("api.url: missing host"))
	}

	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout))
	}
	if c.API.TopK <= 0 {
		errs = append(errs, fmt.Errorf("api.top_k must be positive, got %d", c.API.TopK))
	}
	if c.API.Model != DefaultModel && c.API.Model != AlternateModel {
		errs = append(errs, fmt.Errorf("api.model must be %q or %q, got %q", DefaultModel, AlternateModel, c.API.Model))
	}
	if c.API.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("api.rate_limit must be positive, got %v", c.API.RateLimit))
	}
	if c.API.Burst <= 0 {
		errs = append(errs, fmt.Errorf("api.burst must be positive, got %d", c.API.Burst))
	}
	if c.API.BreakerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("api.breaker_timeout must be positive, got %v", c.API.BreakerTimeout))
	}
	if c.API.BreakerFailures == 0 {
		errs = append(errs, errors.New("api.breaker_failures must be positive"))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if c.Health.Interval <= 0 {
		errs = append(errs, fmt.Errorf("health.interval must be positive, got %v", c.Health.Interval))
	}

	return errors.Join(errs...)
}
