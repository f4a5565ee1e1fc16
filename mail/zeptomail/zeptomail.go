// Package zeptomail sends messages composed by package mail through the
// ZeptoMail HTTP API.
package zeptomail

import (
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/zeptomail/env"
)

const (
	// DefaultBaseURL is the EU region endpoint.
	DefaultBaseURL = "https://api.zeptomail.eu/v1.1"

	// AuthScheme prefixes the API key in the Authorization header.
	AuthScheme = "Zoho-enczapikey"

	EndpointEmail = "/email"
	EndpointBatch = "/email/batch"

	defaultTimeout = 30 * time.Second
)

// Config contains ZeptoMail API parameters.
type Config struct {
	APIKey  string        `envconfig:"ZEPTOMAIL_API_KEY" required:"true"`
	BaseURL string        `envconfig:"ZEPTOMAIL_BASE_URL" default:"https://api.zeptomail.eu/v1.1"`
	Timeout time.Duration `envconfig:"ZEPTOMAIL_TIMEOUT" default:"30s"`
}

// NewDefault creates a Client from environment variables.
func NewDefault() (*Client, error) {
	var cfg Config
	if err := env.InitConfig(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to init zeptomail config")
	}
	return New(cfg, nil), nil
}
