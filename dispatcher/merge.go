package dispatcher

import (
	"fmt"

	"github.com/outhook-io/outhook/constants"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
	"github.com/outhook-io/outhook/utils"
	"github.com/pkg/errors"
)

var errInvalidOverrides = errors.New("invalid overrides")

// Merge combines a stored webhook with per-call overrides into an effective
// request. Overrides win field by field; headers and payload are replaced
// wholesale. Stored numeric fields are clamped into their bounds, while an
// out-of-range override is rejected.
func Merge(webhook *model.Webhook, overrides *model.Overrides) (*model.EffectiveRequest, error) {
	req := &model.EffectiveRequest{
		URL:     webhook.URL,
		Method:  webhook.Method,
		Headers: webhook.Headers,
		Payload: webhook.Payload,
	}
	if req.Method == "" {
		req.Method = "POST"
	}

	req.TimeoutSeconds = constants.DefaultTimeoutSeconds
	if webhook.TimeoutSeconds != 0 {
		req.TimeoutSeconds = utils.Clamp(webhook.TimeoutSeconds, constants.MinTimeoutSeconds, constants.MaxTimeoutSeconds)
	}

	// retry_attempts is config-time only, deliberately absent from Overrides
	req.RetryAttempts = constants.DefaultRetryAttempts
	if webhook.RetryAttempts != nil {
		req.RetryAttempts = utils.Clamp(*webhook.RetryAttempts, constants.MinRetryAttempts, constants.MaxRetryAttempts)
	}

	if overrides == nil {
		return req, nil
	}

	if overrides.URL != "" {
		req.URL = overrides.URL
	}
	if overrides.Headers != nil {
		req.Headers = overrides.Headers
	}
	if overrides.Payload != nil {
		switch overrides.Payload.(type) {
		case string, map[string]any, []any:
		default:
			return nil, errs.NewValidateFieldsError(errInvalidOverrides, map[string]interface{}{
				"payload_override": fmt.Sprintf("must be an object, array or string, got %T", overrides.Payload),
			})
		}
		req.Payload = overrides.Payload
	}
	if overrides.TimeoutSeconds != nil {
		timeout := *overrides.TimeoutSeconds
		if timeout < constants.MinTimeoutSeconds || timeout > constants.MaxTimeoutSeconds {
			return nil, errs.NewValidateFieldsError(errInvalidOverrides, map[string]interface{}{
				"timeout": fmt.Sprintf("value must be between %d and %d", constants.MinTimeoutSeconds, constants.MaxTimeoutSeconds),
			})
		}
		req.TimeoutSeconds = timeout
	}

	return req, nil
}
