package executor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/outhook-io/outhook/deliverer"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
	"github.com/outhook-io/outhook/retry"
	"github.com/outhook-io/outhook/utils"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// State is a position in the retry loop.
type State int

const (
	StateAttempting State = iota
	StateBackoff
	StateSucceeded
	StateExhaustedFailed
	StateFatalFailed
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateExhaustedFailed:
		return "exhausted"
	case StateFatalFailed:
		return "fatal"
	}
	return "unknown"
}

// Executor drives the bounded-retry loop around a Deliverer. It retries on
// connection failures, timeouts and 5xx responses; any 2xx-4xx response is
// terminal-success, with status interpretation left to the caller.
type Executor struct {
	log               *zap.SugaredLogger
	deliverer         deliverer.Deliverer
	backoffBaseDelay  time.Duration
	backoffMaxElapsed time.Duration
}

type Options struct {
	Deliverer         deliverer.Deliverer
	BackoffBaseDelay  time.Duration
	BackoffMaxElapsed time.Duration
	Logger            *zap.SugaredLogger
}

func New(opts Options) *Executor {
	if opts.Deliverer == nil {
		opts.Deliverer = deliverer.NewHTTPDeliverer(deliverer.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = zap.S().Named("executor")
	}
	return &Executor{
		log:               opts.Logger,
		deliverer:         opts.Deliverer,
		backoffBaseDelay:  utils.DefaultIfZero(opts.BackoffBaseDelay, time.Second*2),
		backoffMaxElapsed: utils.DefaultIfZero(opts.BackoffMaxElapsed, time.Minute),
	}
}

// Execute performs the call with an attempt budget of retry_attempts+1.
// On terminal-success it returns a Result; otherwise it returns a
// DispatchError carrying the last error and the number of attempts made.
func (e *Executor) Execute(ctx context.Context, webhookID string, req *model.ResolvedRequest) (*model.Result, error) {
	payload, err := serializePayload(req)
	if err != nil {
		return nil, errs.NewDispatchError(webhookID, 0, err)
	}

	budget := req.RetryAttempts + 1
	backoff := retry.NewRetry(retry.BackoffStrategy,
		retry.WithBackoff(e.backoffBaseDelay, e.backoffMaxElapsed))

	var lastErr error
	attempt := 0
	state := StateAttempting

	for state == StateAttempting {
		attempt++
		res := e.deliverer.Deliver(ctx, &deliverer.Request{
			URL:     req.URL,
			Method:  req.Method,
			Payload: payload,
			Headers: req.Headers,
			Timeout: time.Duration(req.TimeoutSeconds) * time.Second,
		})

		switch lastErr = classify(res); {
		case lastErr == nil:
			state = StateSucceeded
			e.log.Debugw("webhook delivered", "webhook", webhookID, "status", res.StatusCode, "attempt", attempt)
			return buildResult(res, attempt), nil

		case !errs.Retryable(lastErr):
			state = StateFatalFailed
			e.log.Errorw("webhook delivery failed", "webhook", webhookID, "attempt", attempt, "error", lastErr)

		case attempt >= budget:
			state = StateExhaustedFailed
			e.log.Warnw("webhook attempt budget exhausted", "webhook", webhookID, "attempts", attempt, "error", lastErr)

		default:
			delay := backoff.NextDelay(attempt)
			if delay == retry.Stop {
				state = StateExhaustedFailed
				e.log.Warnw("webhook backoff budget exhausted", "webhook", webhookID, "attempts", attempt, "error", lastErr)
				break
			}

			state = StateBackoff
			e.log.Warnw("webhook attempt failed, backing off", "webhook", webhookID,
				"attempt", attempt, "budget", budget, "delay", delay, "error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				state = StateExhaustedFailed
				lastErr = errs.NewTransportError(ctx.Err())
			case <-timer.C:
				state = StateAttempting
			}
		}
	}

	return nil, errs.NewDispatchError(webhookID, attempt, lastErr)
}

// classify maps a delivery outcome onto the error taxonomy. nil means
// terminal-success.
func classify(res *deliverer.Response) error {
	if res.Error != nil {
		var sl *errs.SizeLimitError
		if errors.As(res.Error, &sl) {
			return sl
		}
		return errs.NewTransportError(res.Error)
	}
	if res.Is5xx() {
		return errs.NewServerError(res.StatusCode)
	}
	return nil
}

func buildResult(res *deliverer.Response, attempt int) *model.Result {
	headers := make(map[string]string, len(res.Header))
	for name, values := range res.Header {
		headers[name] = strings.Join(values, ", ")
	}

	result := &model.Result{
		StatusCode: res.StatusCode,
		Headers:    headers,
		Body:       string(res.ResponseBody),
		Truncated:  res.Truncated,
		Attempts:   attempt,
		Succeeded:  true,
	}

	if gjson.ValidBytes(res.ResponseBody) {
		var parsed any
		if err := json.Unmarshal(res.ResponseBody, &parsed); err == nil {
			result.JSON = parsed
		}
	}

	return result
}

// serializePayload encodes the body for methods that carry one. A string
// payload goes on the wire as-is; structured values are JSON-encoded.
func serializePayload(req *model.ResolvedRequest) ([]byte, error) {
	switch req.Method {
	case "POST", "PUT", "PATCH":
	default:
		return nil, nil
	}
	switch v := req.Payload.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
