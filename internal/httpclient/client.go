// Package httpclient builds the HTTP clients used to talk to the
// printstash server: a retrying client for JSON API calls and a
// plain client for batched uploads.
package httpclient

import (
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/printstash/printstash/internal/logging"
)

// retryLogger adapts the retryablehttp leveled logger to zerolog.
// Info/Debug chatter from the retry loop is suppressed; only retry
// warnings and hard failures are surfaced.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func fieldMap(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}

// newTransport returns a transport tuned for a small JSON API plus
// occasional large multipart uploads: modest connection pool,
// compression left enabled (JSON benefits, file parts do not suffer).
func newTransport() *nethttp.Transport {
	tr := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	tr.MaxIdleConns = 64
	tr.MaxIdleConnsPerHost = 16
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 15 * time.Second
	tr.ExpectContinueTimeout = 2 * time.Second
	return tr
}

// NewRetryingClient returns an HTTP client that retries transient
// failures (network errors, 429, 5xx) with exponential backoff.
// Used for all JSON API calls; these are idempotent or safe to repeat.
func NewRetryingClient(timeout time.Duration, log *logging.Logger) *nethttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &nethttp.Client{
		Transport: newTransport(),
		Timeout:   timeout,
	}
	rc.RetryMax = 4
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = &retryLogger{log: log}

	return rc.StandardClient()
}

// NewUploadClient returns a non-retrying client for the batched file
// upload. The multipart body streams from disk and is not replayable,
// and the batch contract is one request per submission: a transport
// failure surfaces to the orchestrator instead of being retried here.
// No overall timeout; the caller bounds the upload via context.
func NewUploadClient() *nethttp.Client {
	return &nethttp.Client{
		Transport: newTransport(),
	}
}
