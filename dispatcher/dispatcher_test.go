package dispatcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/outhook-io/outhook/config"
	"github.com/outhook-io/outhook/eventbus"
	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
	"github.com/outhook-io/outhook/registry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mux       sync.Mutex
	successes []eventbus.SuccessData
	failures  []eventbus.ErrorData
}

func (r *eventRecorder) record(bus eventbus.Bus) {
	bus.Subscribe(eventbus.EventSuccess, func(data interface{}) {
		r.mux.Lock()
		defer r.mux.Unlock()
		r.successes = append(r.successes, data.(eventbus.SuccessData))
	})
	bus.Subscribe(eventbus.EventError, func(data interface{}) {
		r.mux.Lock()
		defer r.mux.Unlock()
		r.failures = append(r.failures, data.(eventbus.ErrorData))
	})
}

func (r *eventRecorder) counts() (int, int) {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.successes), len(r.failures)
}

type tableEvaluator struct {
	values map[string]any
}

func (e *tableEvaluator) Evaluate(ctx context.Context, expr string, tctx map[string]any) (any, error) {
	if v, ok := e.values[expr]; ok {
		return v, nil
	}
	return nil, errors.Errorf("unknown expression: %s", expr)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *registry.MemoryRegistry, *eventRecorder) {
	t.Helper()
	reg := registry.NewMemoryRegistry()
	bus := eventbus.New()
	recorder := &eventRecorder{}
	recorder.record(bus)

	d := NewDispatcher(Options{
		Registry: reg,
		Evaluator: &tableEvaluator{values: map[string]any{
			"states('sensor.x')": "21.5",
		}},
		Bus: bus,
		Config: &config.DispatcherConfig{
			MaxResponseSize:   1048576,
			BackoffBaseDelay:  1,
			BackoffMaxElapsed: 1000,
		},
		Logger: zap.NewNop().Sugar(),
	})
	return d, reg, recorder
}

func TestDispatchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	zero := 0
	require.NoError(t, reg.Set(&model.Webhook{
		ID:            "t1",
		URL:           server.URL,
		Method:        "GET",
		RetryAttempts: &zero,
	}))

	result, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, map[string]any{"ok": true}, result.JSON)
	assert.True(t, result.Succeeded)

	successes, failures := recorder.counts()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
	assert.Equal(t, "t1", recorder.successes[0].WebhookID)
	assert.Equal(t, 200, recorder.successes[0].StatusCode)
}

func TestDispatchUnknownWebhook(t *testing.T) {
	d, _, recorder := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "ghost"})

	var nf *errs.ConfigNotFoundError
	require.ErrorAs(t, err, &nf)

	successes, failures := recorder.counts()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, "ghost", recorder.failures[0].WebhookID)
	assert.Equal(t, "not_found", recorder.failures[0].ErrorType)
}

func TestDispatch404IsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL, Method: "GET"}))

	result, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 404, result.StatusCode)

	successes, failures := recorder.counts()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
}

func TestDispatchRetryExhaustion(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	two := 2
	require.NoError(t, reg.Set(&model.Webhook{
		ID:            "t1",
		URL:           server.URL,
		Method:        "GET",
		RetryAttempts: &two,
	}))

	_, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})

	var derr *errs.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 3, derr.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))

	successes, failures := recorder.counts()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, "t1", recorder.failures[0].WebhookID)
	assert.NotEmpty(t, recorder.failures[0].ErrorMessage)
	assert.Equal(t, 500, recorder.failures[0].StatusCode)
}

func TestDispatchTemplateFailureIsTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{
		ID:      "t1",
		URL:     server.URL,
		Payload: map[string]any{"metadata": map[string]any{"timestamp": "{{ nope }}"}},
	}))

	_, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})

	var terr *errs.TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "payload.metadata.timestamp", terr.Path)
	// no request goes on the wire for a malformed template
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))

	successes, failures := recorder.counts()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, "template_error", recorder.failures[0].ErrorType)
}

func TestDispatchPayloadOverrideSubstitution(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	d, reg, _ := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL}))

	_, err := d.Dispatch(context.Background(), &model.CallRequest{
		WebhookID: "t1",
		Overrides: &model.Overrides{
			Payload: map[string]any{"content": "{{ states('sensor.x') }}"},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content": "21.5"}`, string(body))
}

func TestDispatchValidationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL}))

	bad := 999
	_, err := d.Dispatch(context.Background(), &model.CallRequest{
		WebhookID: "t1",
		Overrides: &model.Overrides{TimeoutSeconds: &bad},
	})

	var verr *errs.ValidateError
	require.ErrorAs(t, err, &verr)

	_, failures := recorder.counts()
	assert.Equal(t, 1, failures)
	assert.Equal(t, "validation_error", recorder.failures[0].ErrorType)
}

func TestDispatchExactlyOneEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL}))

	for i := 0; i < 3; i++ {
		_, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})
		require.NoError(t, err)
	}
	_, _ = d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "ghost"})

	successes, failures := recorder.counts()
	assert.Equal(t, 3, successes)
	assert.Equal(t, 1, failures)
}

func TestDispatchAsync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL}))

	d.DispatchAsync(context.Background(), &model.CallRequest{WebhookID: "t1"})

	assert.Eventually(t, func() bool {
		successes, _ := recorder.counts()
		return successes == 1
	}, time.Second, time.Millisecond*10)
}

func TestDispatchTruncatesLargeBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		chunk := make([]byte, 64*1024)
		for i := 0; i < 32; i++ { // 2 MiB total
			_, _ = w.Write(chunk)
			flusher.Flush()
		}
	}))
	defer server.Close()

	d, reg, _ := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL, Method: "GET"}))

	result, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Body, 1048576)
}

func TestDispatchConcurrentCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	d, reg, recorder := newTestDispatcher(t)
	require.NoError(t, reg.Set(&model.Webhook{ID: "t1", URL: server.URL}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(context.Background(), &model.CallRequest{WebhookID: "t1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	successes, failures := recorder.counts()
	assert.Equal(t, 16, successes)
	assert.Equal(t, 0, failures)
}
