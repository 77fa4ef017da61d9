package middlewares

import (
	"fmt"
	"net/http"
	"time"
)

// PanicError is returned by Recover in place of a panic.
type PanicError struct {
	Value any    // The panic value
	Stack []byte // Stack trace (nil if disabled)
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) StatusCode() int { return http.StatusInternalServerError }

// TimeoutError is returned by Timeout when the action outlived its deadline.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

func (e *TimeoutError) StatusCode() int { return http.StatusGatewayTimeout }
