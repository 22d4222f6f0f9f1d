package node

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedScheme indicates a link whose scheme has no decoder.
	ErrUnsupportedScheme = errors.New("node: unsupported scheme / 不支持的协议")
	// ErrMalformedLink indicates a link whose mandatory fields could not be extracted.
	ErrMalformedLink = errors.New("node: malformed link / 节点链接格式错误")
	// ErrInvalidSubscription indicates a subscription body that is neither base64 nor a link list.
	ErrInvalidSubscription = errors.New("node: invalid subscription content / 订阅内容无效")
)

// DecodeError describes why a single link was dropped.
type DecodeError struct {
	Scheme string
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := "decode"
	if e.Scheme != "" {
		prefix = "decode " + e.Scheme
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Reason, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Is reports ErrMalformedLink for every failure except an unsupported scheme.
func (e *DecodeError) Is(target error) bool {
	if target == ErrMalformedLink {
		return !errors.Is(e.Cause, ErrUnsupportedScheme)
	}
	return false
}

func malformed(scheme Scheme, reason string, cause error) error {
	return &DecodeError{Scheme: scheme.String(), Reason: reason, Cause: cause}
}
