package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrUnsupportedDomain is returned when the URL is not on the marketplace host.
	ErrUnsupportedDomain = errors.New("unsupported domain")
	// ErrRedirectResolutionFailed is returned when a short link cannot be followed.
	ErrRedirectResolutionFailed = errors.New("redirect resolution failed")
	// ErrIdentifierNotFound is returned when no product-detail path shape matches.
	ErrIdentifierNotFound = errors.New("identifier not found")
	// ErrNetworkTimeout marks a failure caused by an outbound call running out of time.
	ErrNetworkTimeout = errors.New("network timeout")
)

// StrategyError records why one strategy produced nothing usable.
type StrategyError struct {
	Strategy string
	Cause    error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed: %v", e.Strategy, e.Cause)
}

func (e *StrategyError) Unwrap() error { return e.Cause }

// AllStrategiesFailedError carries every recorded strategy failure, in order.
type AllStrategiesFailedError struct {
	Attempts []*StrategyError
}

func (e *AllStrategiesFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("all %d strategies failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AllStrategiesFailedError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a)
	}
	return out
}

// TimedOut reports whether every attempt failed because of a timeout.
func (e *AllStrategiesFailedError) TimedOut() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if !errors.Is(a, ErrNetworkTimeout) {
			return false
		}
	}
	return true
}

// ResolveError is the terminal Failed state: the phase that failed and why.
type ResolveError struct {
	Phase Phase
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve failed during %s: %v", e.Phase, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// classifyFetchError tags deadline and net timeouts with ErrNetworkTimeout.
func classifyFetchError(err error) error {
	if err == nil || errors.Is(err, ErrNetworkTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	if strings.Contains(err.Error(), "Client.Timeout exceeded") {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	return err
}
