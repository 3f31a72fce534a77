package adapter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/zen-systems/relay/pkg/taskerr"
)

// defaultRetryAfter is used when a rate-limited response carries no
// Retry-After header.
const defaultRetryAfter = 30 * time.Second

// classifyStatus maps an HTTP status from a provider to a taxonomy error.
// header may be nil when the SDK exposes no response headers.
func classifyStatus(status int, header http.Header, err error) *taskerr.Error {
	switch {
	case status == 401 || status == 403:
		return taskerr.Wrap(taskerr.CodeCloudAuth, err)
	case status == 429:
		return taskerr.Wrap(taskerr.CodeCloudRateLimit, err).
			WithDetail("retry_after", retryAfterHint(header))
	case status == 402:
		return taskerr.Wrap(taskerr.CodeCloudQuota, err)
	case status >= 500 && status <= 599:
		return taskerr.Wrap(taskerr.CodeCloudServer, err).
			WithDetail("status", status)
	case status >= 400:
		return taskerr.Wrap(taskerr.CodeValidation, err).
			WithDetail("status", status)
	default:
		return taskerr.Wrap(taskerr.CodeNetwork, err)
	}
}

// retryAfterHint reads the provider's Retry-After header, accepting both
// the delay-seconds and HTTP-date forms.
func retryAfterHint(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
		return 0
	}
	return defaultRetryAfter
}

// responseHeader extracts headers from an SDK error's HTTP response.
func responseHeader(resp *http.Response) http.Header {
	if resp == nil {
		return nil
	}
	return resp.Header
}

// classifyTransport maps non-HTTP failures (timeouts, connection errors)
// to the taxonomy. Context cancellation passes through untouched so callers
// can distinguish their own cancellation from provider failures.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return taskerr.Wrap(taskerr.CodeCloudTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return taskerr.Wrap(taskerr.CodeCloudTimeout, err)
		}
		return taskerr.Wrap(taskerr.CodeNetwork, err)
	}
	return taskerr.Wrap(taskerr.CodeNetwork, err)
}
