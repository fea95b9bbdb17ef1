package azureinference

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "inference status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("inference %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("inference %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// classifyInferenceError retries throttling, gateway and network failures.
// Auth and request errors are permanent and do not count against the breaker.
func classifyInferenceError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyInferenceError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "inference "+operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
