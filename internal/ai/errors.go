package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuotaExceeded matches any rate-limit or quota error from a generator.
var ErrQuotaExceeded = errors.New("ai: quota exceeded")

// QuotaError is returned by generators when the service signals a rate limit.
type QuotaError struct {
	StatusCode int
	Body       string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("AI API quota error %d: %s", e.StatusCode, e.Body)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// TerminalError is the failure of the final attempt with a non-quota error.
// It is the only call error the retry controller surfaces.
type TerminalError struct {
	Attempts int
	Err      error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("ai: giving up after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// Rate-limit indicators seen in generator error text, lower-cased.
var quotaIndicators = []string{
	"429",
	"quota",
	"resource_exhausted",
	"rate limit",
	"ratelimit",
}

// IsQuotaError classifies err as a quota/rate-limit failure. SDK errors are
// only available as text, so the message is inspected as well.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range quotaIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
