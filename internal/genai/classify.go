package genai

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// ErrorClass classifies a completion backend failure for retry policy.
type ErrorClass string

const (
	// ClassQuota is an insufficient-funds/quota failure. Terminal, never
	// retried.
	ClassQuota ErrorClass = "quota"
	// ClassRateLimit is a rate-limit rejection. Retried with backoff.
	ClassRateLimit ErrorClass = "rate_limit"
	// ClassTimeout is a timed-out call. Retried with backoff.
	ClassTimeout ErrorClass = "timeout"
	// ClassOther is any other failure. Terminal, never retried.
	ClassOther ErrorClass = "other"
)

// Retryable reports whether the class warrants a backed-off resubmission.
func (c ErrorClass) Retryable() bool {
	return c == ClassRateLimit || c == ClassTimeout
}

// Classify maps a completion backend error to its ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			if strings.Contains(strings.ToLower(apiErr.Error()), "quota") {
				return ClassQuota
			}
			return ClassRateLimit
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "insufficient_quota"), strings.Contains(text, "quota"):
		return ClassQuota
	case strings.Contains(text, "429"), strings.Contains(text, "rate limit"):
		return ClassRateLimit
	case strings.Contains(text, "timeout"):
		return ClassTimeout
	default:
		return ClassOther
	}
}

// Backoff computes the wait before retry attempt n (0-based): base doubled n
// times, capped.
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
