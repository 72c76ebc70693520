package domain

import (
	"fmt"
	"strings"
	"time"
)

// snippetLen caps how much of an upstream body is kept for diagnostics.
const snippetLen = 120

// Snippet returns at most the first 120 characters of body, trimmed.
func Snippet(body string) string {
	body = strings.TrimSpace(body)
	r := []rune(body)
	if len(r) > snippetLen {
		return string(r[:snippetLen])
	}
	return body
}

// HTTPError is returned when upstream answers with a non-success status.
type HTTPError struct {
	URL     string
	Status  int
	Snippet string
}

func (e *HTTPError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
	}
	return fmt.Sprintf("HTTP %d for %s: %s", e.Status, e.URL, e.Snippet)
}

// TimeoutError is returned when a request exceeds its timeout. Caller
// cancellation is reported as context.Canceled instead.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s for %s", e.Timeout, e.URL)
}

// FormatError is returned when a body is neither a JSON array/object nor XML
// containing the expected records.
type FormatError struct {
	URL     string
	Snippet string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unreadable body from %s: %v: %s", e.URL, e.Err, e.Snippet)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Attempt is one failed candidate in a resolution.
type Attempt struct {
	URL string
	Err error
}

// ResolutionError lists every candidate that was tried, in order, when none
// succeeded.
type ResolutionError struct {
	Resource string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not fetch %s; tried:", e.Resource)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n- %s: %v", a.URL, a.Err)
	}
	return b.String()
}

// Unwrap exposes the individual attempt errors to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// InvalidRangeError is returned when a date range starts after it ends.
type InvalidRangeError struct {
	From string
	To   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s is after %s", e.From, e.To)
}
