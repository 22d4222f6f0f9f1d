// Package fetch retrieves subscription bodies and rule lists over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTooLarge 表示响应体超过配置的上限。
	ErrTooLarge = errors.New("fetch: response body too large / 响应体过大")
	// ErrInvalidURL 表示地址不是 http(s) 地址。
	ErrInvalidURL = errors.New("fetch: invalid url / 地址无效")
)

// ErrorCategory defines error classification for retry decisions.
type ErrorCategory int

const (
	// CategoryRetryable indicates a transient error that can be retried.
	CategoryRetryable ErrorCategory = iota
	// CategoryPermanent indicates an error that will not go away on retry.
	CategoryPermanent
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryRetryable:
		return "retryable"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error describes a failed fetch. Status is 0 when no response arrived.
type Error struct {
	URL    string
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", Redact(e.URL), e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", Redact(e.URL), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// ClassifyError categorizes a fetch error.
func ClassifyError(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryRetryable
	case errors.Is(err, context.Canceled), errors.Is(err, ErrTooLarge), errors.Is(err, ErrInvalidURL):
		return CategoryPermanent
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryRetryable
	}

	var fe *Error
	if errors.As(err, &fe) && fe.Status != 0 {
		switch {
		case fe.Status == http.StatusTooManyRequests, fe.Status == http.StatusRequestTimeout:
			return CategoryRetryable
		case fe.Status >= 500:
			return CategoryRetryable
		default:
			return CategoryPermanent
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return CategoryPermanent
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryRetryable
	}
	// transport failures without a response, e.g. reset connections
	if fe != nil {
		return CategoryRetryable
	}
	return CategoryPermanent
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return ClassifyError(err) == CategoryRetryable
}
