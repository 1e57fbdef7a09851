package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// errEmptyResponse marks a backend that answered successfully with no content.
var errEmptyResponse = errors.New("backend returned empty response")

// apiError carries a non-2xx backend status plus a body excerpt.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.status, e.body)
}

// classify maps a backend error onto the gateway's error taxonomy.
func classify(err error) ErrKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, errEmptyResponse) {
		return ErrKindEmptyResponse
	}
	var api *apiError
	if errors.As(err, &api) {
		return ErrKindAPIError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}
	return ErrKindConnection
}

// retryable reports whether the failure is transport-level. API errors and
// empty responses never improve on immediate retry.
func retryable(kind ErrKind) bool {
	return kind == ErrKindTimeout || kind == ErrKindConnection
}
