package codecraft

import (
	"github.com/rs/zerolog"

	"github.com/xostack/codecraft/config"
)

// NewFromConfig builds a Client whose credential, model and timeout come
// from cfg. The credential is re-read from cfg on every request.
//
// Making it a variable to allow for easy mocking in tests.
var NewFromConfig func(cfg config.Config, logger zerolog.Logger) *Client = func(cfg config.Config, logger zerolog.Logger) *Client {
	return NewClient(
		cfg.Credential,
		WithModel(cfg.Model),
		WithTimeout(cfg.RequestTimeout()),
		WithLogger(logger),
	)
}
