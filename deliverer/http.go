package deliverer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/outhook-io/outhook/constants"
	"github.com/outhook-io/outhook/pkg/errs"
	"github.com/outhook-io/outhook/utils"
)

// HTTPDeliverer delivers via HTTP
type HTTPDeliverer struct {
	defaultTimeout  time.Duration
	maxResponseSize int64
	client          *http.Client
}

type Options struct {
	DefaultTimeout  time.Duration
	MaxResponseSize int64
	Client          *http.Client
}

func NewHTTPDeliverer(opts Options) *HTTPDeliverer {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPDeliverer{
		defaultTimeout:  utils.DefaultIfZero(opts.DefaultTimeout, time.Second*constants.DefaultTimeoutSeconds),
		maxResponseSize: utils.DefaultIfZero(opts.MaxResponseSize, int64(constants.MaxResponseSize)),
		client:          client,
	}
}

func timing(fn func()) time.Duration {
	start := time.Now()
	fn()
	stop := time.Now()
	return time.Duration(stop.UnixNano() - start.UnixNano())
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, req *Request) (res *Response) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = d.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res = &Response{
		Request: req,
	}

	var body io.Reader
	if len(req.Payload) > 0 {
		body = bytes.NewReader(req.Payload)
	}
	request, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		res.Error = err
		return
	}

	for _, h := range constants.DefaultDelivererRequestHeaders {
		request.Header.Set(h.Name, h.Value)
	}
	for name, value := range req.Headers {
		request.Header.Set(name, value)
	}

	t := timing(func() {
		response, err := d.client.Do(request)
		if err != nil {
			res.Error = err
			return
		}
		defer response.Body.Close()

		res.StatusCode = response.StatusCode
		res.Header = response.Header

		if response.ContentLength > d.maxResponseSize {
			res.Error = errs.NewSizeLimitError(d.maxResponseSize, response.ContentLength)
			return
		}

		bytes, err := io.ReadAll(io.LimitReader(response.Body, d.maxResponseSize+1))
		if err != nil {
			res.Error = err
			return
		}
		if int64(len(bytes)) > d.maxResponseSize {
			bytes = bytes[:d.maxResponseSize]
			res.Truncated = true
		}
		res.ResponseBody = bytes
	})

	res.Latency = t

	return
}
