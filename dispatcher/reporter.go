package dispatcher

import (
	"errors"

	"github.com/outhook-io/outhook/eventbus"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
	"go.uber.org/zap"
)

// Reporter packages the call outcome: exactly one success or failure event
// is broadcast per call, and failures reach the caller as a DispatchError
// rather than a Result.
type Reporter struct {
	log *zap.SugaredLogger
	bus eventbus.Bus
}

func NewReporter(bus eventbus.Bus, log *zap.SugaredLogger) *Reporter {
	return &Reporter{
		log: log,
		bus: bus,
	}
}

func (r *Reporter) Success(webhookID, callID string, result *model.Result) *model.Result {
	r.bus.Broadcast(eventbus.EventSuccess, eventbus.SuccessData{
		WebhookID:  webhookID,
		CallID:     callID,
		StatusCode: result.StatusCode,
		Attempt:    result.Attempts,
	})
	r.log.Infow("webhook call succeeded", "webhook", webhookID, "call", callID,
		"status", result.StatusCode, "attempt", result.Attempts)
	return result
}

func (r *Reporter) Failure(webhookID, callID string, err error) error {
	var derr *errs.DispatchError
	if !errors.As(err, &derr) {
		derr = errs.NewDispatchError(webhookID, 0, err)
	}

	data := eventbus.ErrorData{
		WebhookID:    webhookID,
		CallID:       callID,
		ErrorType:    string(errs.TypeOf(err)),
		ErrorMessage: err.Error(),
		Attempt:      derr.Attempts,
	}
	var serr *errs.ServerError
	if errors.As(err, &serr) {
		data.StatusCode = serr.StatusCode
	}

	r.bus.Broadcast(eventbus.EventError, data)
	r.log.Errorw("webhook call failed", "webhook", webhookID, "call", callID,
		"type", data.ErrorType, "error", data.ErrorMessage)
	return derr
}
