package dispatcher

import (
	"context"
	"time"

	"github.com/outhook-io/outhook/config"
	"github.com/outhook-io/outhook/deliverer"
	"github.com/outhook-io/outhook/eventbus"
	"github.com/outhook-io/outhook/executor"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/safe"
	"github.com/outhook-io/outhook/registry"
	"github.com/outhook-io/outhook/template"
	"github.com/outhook-io/outhook/utils"
	"go.uber.org/zap"
)

// Dispatcher is the public entry point: look up the stored webhook, merge
// per-call overrides, resolve templates, execute with retry, report.
// A Dispatcher holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	log      *zap.SugaredLogger
	registry registry.Registry
	resolver *template.Resolver
	executor *executor.Executor
	reporter *Reporter
}

type Options struct {
	Registry  registry.Registry
	Evaluator template.Evaluator
	Bus       eventbus.Bus
	Config    *config.DispatcherConfig
	Deliverer deliverer.Deliverer
	Logger    *zap.SugaredLogger
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Registry == nil {
		panic("dispatcher: registry is required")
	}
	if opts.Evaluator == nil {
		opts.Evaluator = template.NewJavaScriptEvaluator()
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.New()
	}
	if opts.Config == nil {
		opts.Config = &config.New().Dispatcher
	}
	if opts.Logger == nil {
		opts.Logger = zap.S().Named("dispatcher")
	}
	if opts.Deliverer == nil {
		opts.Deliverer = deliverer.NewHTTPDeliverer(deliverer.Options{
			MaxResponseSize: opts.Config.MaxResponseSize,
		})
	}

	return &Dispatcher{
		log:      opts.Logger,
		registry: opts.Registry,
		resolver: template.NewResolver(opts.Evaluator),
		executor: executor.New(executor.Options{
			Deliverer:         opts.Deliverer,
			BackoffBaseDelay:  time.Duration(opts.Config.BackoffBaseDelay) * time.Millisecond,
			BackoffMaxElapsed: time.Duration(opts.Config.BackoffMaxElapsed) * time.Millisecond,
			Logger:            opts.Logger.Named("executor"),
		}),
		reporter: NewReporter(opts.Bus, opts.Logger),
	}
}

// Dispatch runs one webhook call. It returns a Result when the transport
// reached the endpoint (any 2xx-4xx), and an error otherwise; exactly one
// success or failure event is broadcast either way.
func (d *Dispatcher) Dispatch(ctx context.Context, req *model.CallRequest) (*model.Result, error) {
	callID := utils.UUIDShort()

	if err := req.Validate(); err != nil {
		return nil, d.reporter.Failure(req.WebhookID, callID, err)
	}

	webhook, err := d.registry.Get(ctx, req.WebhookID)
	if err != nil {
		return nil, d.reporter.Failure(req.WebhookID, callID, err)
	}

	effective, err := Merge(webhook, req.Overrides)
	if err != nil {
		return nil, d.reporter.Failure(webhook.ID, callID, err)
	}

	// resolved fresh on every call: templates read live state
	resolved, err := d.resolver.ResolveRequest(ctx, effective, req.Context)
	if err != nil {
		return nil, d.reporter.Failure(webhook.ID, callID, err)
	}

	d.log.Debugw("dispatching webhook", "webhook", webhook.ID, "call", callID,
		"method", resolved.Method, "url", resolved.URL)

	result, err := d.executor.Execute(ctx, webhook.ID, resolved)
	if err != nil {
		return nil, d.reporter.Failure(webhook.ID, callID, err)
	}

	return d.reporter.Success(webhook.ID, callID, result), nil
}

// DispatchAsync runs the call on its own goroutine for fire-and-forget
// callers. The outcome is still observable through the event bus.
func (d *Dispatcher) DispatchAsync(ctx context.Context, req *model.CallRequest) {
	safe.Go(func() {
		_, _ = d.Dispatch(ctx, req)
	})
}
