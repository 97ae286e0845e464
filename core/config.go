package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type EndpointsConfig struct {
	Verify  string `koanf:"verify" mapstructure:"verify"`
	Check   string `koanf:"check" mapstructure:"check"`
	Control string `koanf:"control" mapstructure:"control"`
	Logout  string `koanf:"logout" mapstructure:"logout"`
	Search  string `koanf:"search" mapstructure:"search"`
}

type Config struct {
	ServiceName             string          `koanf:"service_name" mapstructure:"service_name"`
	BaseURL                 string          `koanf:"base_url" mapstructure:"base_url"`
	AppID                   string          `koanf:"app_id" mapstructure:"app_id"`
	SharedSecret            string          `koanf:"shared_secret" mapstructure:"shared_secret"`
	RequestTimeout          time.Duration   `koanf:"request_timeout" mapstructure:"request_timeout"`
	VerifyResponseSignature bool            `koanf:"verify_response_signature" mapstructure:"verify_response_signature"`
	Endpoints               EndpointsConfig `koanf:"endpoints" mapstructure:"endpoints"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "verify",
		BaseURL:        "https://api.nexmo.com/sdk/",
		RequestTimeout: 30 * time.Second,
		Endpoints:      DefaultEndpoints(),
	}
}

func DefaultEndpoints() EndpointsConfig {
	return EndpointsConfig{
		Verify:  "verify/json",
		Check:   "verify/check/json",
		Control: "verify/control/json",
		Logout:  "verify/logout/json",
		Search:  "verify/search/json",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("core: base_url %q is invalid", base)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	return nil
}

// Endpoint resolves a named endpoint to its configured path, falling back to
// the default path when unset.
func (c Config) Endpoint(name string) string {
	defaults := DefaultEndpoints()
	pick := func(value, fallback string) string {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
		return fallback
	}
	switch name {
	case EndpointVerify:
		return pick(c.Endpoints.Verify, defaults.Verify)
	case EndpointCheck:
		return pick(c.Endpoints.Check, defaults.Check)
	case EndpointControl:
		return pick(c.Endpoints.Control, defaults.Control)
	case EndpointLogout:
		return pick(c.Endpoints.Logout, defaults.Logout)
	case EndpointSearch:
		return pick(c.Endpoints.Search, defaults.Search)
	default:
		return strings.TrimSpace(name)
	}
}
