package deliverer

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Deliverer interface {
	Deliver(ctx context.Context, req *Request) (res *Response)
}

// Request is HTTP request
type Request struct {
	URL     string
	Method  string
	Payload []byte
	Headers map[string]string
	Timeout time.Duration
}

// Response is HTTP response
type Response struct {
	StatusCode   int
	Header       http.Header
	ResponseBody []byte
	Truncated    bool
	Latency      time.Duration
	Request      *Request
	Error        error
}

func (r *Response) Is2xx() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

func (r *Response) Is5xx() bool {
	return r.StatusCode >= 500 && r.StatusCode <= 599
}

func (r *Response) String() string {
	return fmt.Sprintf("%s %s %d", r.Request.Method, r.Request.URL, r.StatusCode)
}
