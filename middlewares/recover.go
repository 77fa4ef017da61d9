package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/anvil/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	logger     *slog.Logger
	stackSize  int
	printStack bool
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithRecoverLogger sets the logger panics are reported to.
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(cfg *recoverConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithRecoverDisablePrintStack leaves the stack trace out of logs and errors.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.printStack = false
	}
}

// Recover turns a panic in a later pipe or the action into a *PanicError,
// which the exception handler renders as 500.
func Recover(opts ...RecoverOption) internal.PipeFunc[*internal.Request] {
	cfg := &recoverConfig{
		logger:     slog.New(slog.DiscardHandler),
		stackSize:  DefaultStackSize,
		printStack: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(req *internal.Request, next internal.Next[*internal.Request]) (result any, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			attrs := []any{
				slog.Any("panic", r),
				slog.String("method", req.Method()),
				slog.String("path", req.Path()),
			}
			var stack []byte
			if cfg.printStack {
				stack = make([]byte, cfg.stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				attrs = append(attrs, slog.String("stack", string(stack)))
			}
			cfg.logger.ErrorContext(req.Context(), "panic recovered", attrs...)

			result, err = nil, &PanicError{Value: r, Stack: stack}
		}()

		return next(req)
	}
}
