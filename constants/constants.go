package constants

import (
	"github.com/outhook-io/outhook/config"
)

// Webhook configuration bounds.
const (
	DefaultTimeoutSeconds = 10
	MinTimeoutSeconds     = 1
	MaxTimeoutSeconds     = 300

	DefaultRetryAttempts = 3
	MinRetryAttempts     = 0
	MaxRetryAttempts     = 10

	// MaxResponseSize is the hard cap on retained response body bytes.
	MaxResponseSize = 1024 * 1024
)

type Header struct {
	Name  string
	Value string
}

var DefaultDelivererRequestHeaders = []Header{
	{Name: "User-Agent", Value: "Outhook/" + config.VERSION},
	{Name: "Content-Type", Value: "application/json; charset=utf-8"},
}
