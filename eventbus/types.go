package eventbus

const (
	// EventSuccess is broadcast once per call that reaches terminal-success.
	EventSuccess = "outhook.success"
	// EventError is broadcast once per call that ends in terminal-failure.
	EventError = "outhook.error"
)

type Bus interface {
	Broadcast(channel string, data interface{})
	Subscribe(channel string, cb Callback)
}

type Callback func(data interface{})

type SuccessData struct {
	WebhookID  string `json:"webhook_id"`
	CallID     string `json:"call_id"`
	StatusCode int    `json:"status_code"`
	Attempt    int    `json:"attempt"`
}

type ErrorData struct {
	WebhookID    string `json:"webhook_id"`
	CallID       string `json:"call_id"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	Attempt      int    `json:"attempt"`
	StatusCode   int    `json:"status_code,omitempty"`
}
