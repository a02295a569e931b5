package model

import (
	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"
	"github.com/outhook-io/outhook/utils"
)

type Headers map[string]string

// Webhook is a stored outbound request definition. URL, header values and
// payload may contain template expressions; they are evaluated at dispatch
// time, not at configuration time.
type Webhook struct {
	ID             string  `json:"id" yaml:"id" validate:"required"`
	Name           string  `json:"name" yaml:"name"`
	URL            string  `json:"url" yaml:"url" validate:"required"`
	Method         string  `json:"method" yaml:"method" default:"POST" validate:"oneof=GET POST PUT PATCH DELETE"`
	Headers        Headers `json:"headers" yaml:"headers"`
	Payload        any     `json:"payload,omitempty" yaml:"payload"`
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds" default:"10" validate:"gte=1,lte=300"`
	RetryAttempts  *int    `json:"retry_attempts" yaml:"retry_attempts" default:"3" validate:"omitempty,gte=0,lte=10"`
}

func (w *Webhook) Default() error {
	return defaults.Set(w)
}

func (w *Webhook) Validate() error {
	return utils.Validate(w)
}

// WebhookFromMap decodes a raw configuration record handed over by the
// host, applying defaults before validation.
func WebhookFromMap(data map[string]interface{}) (*Webhook, error) {
	webhook := &Webhook{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           webhook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, err
	}
	if err := webhook.Default(); err != nil {
		return nil, err
	}
	if err := webhook.Validate(); err != nil {
		return nil, err
	}
	return webhook, nil
}

// Overrides replaces stored webhook fields for a single call. Headers and
// payload are replaced wholesale, never merged key by key. Retry attempts
// are deliberately not overridable per call.
type Overrides struct {
	URL            string  `json:"url_override,omitempty"`
	Headers        Headers `json:"headers_override,omitempty"`
	Payload        any     `json:"payload_override,omitempty"`
	TimeoutSeconds *int    `json:"timeout,omitempty"`
}

// CallRequest is the dispatcher's public call contract.
type CallRequest struct {
	WebhookID string         `json:"webhook_id" validate:"required"`
	Overrides *Overrides     `json:"overrides,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

func (r *CallRequest) Validate() error {
	return utils.Validate(r)
}

// EffectiveRequest is the merged, not yet resolved request. String fields
// may still contain template expressions.
type EffectiveRequest struct {
	URL            string
	Method         string
	Headers        Headers
	Payload        any
	TimeoutSeconds int
	RetryAttempts  int
}

// ResolvedRequest has every template expression replaced by its evaluated
// value. Header values are coerced to strings.
type ResolvedRequest struct {
	URL            string
	Method         string
	Headers        Headers
	Payload        any
	TimeoutSeconds int
	RetryAttempts  int
}

// Result is the transport outcome handed back to the caller on
// terminal-success. Any 2xx-4xx status is a Result; status interpretation
// is the caller's business.
type Result struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	JSON       any               `json:"json,omitempty"`
	Truncated  bool              `json:"truncated,omitempty"`
	Attempts   int               `json:"attempt_count"`
	Succeeded  bool              `json:"succeeded"`
}
