// Package middlewares provides request pipes for the kernel.
//
// Each constructor returns a pipe that can be registered globally or in a
// named route pipe group:
//
//	app, err := anvil.New(
//	    anvil.WithPipes(
//	        middlewares.Recover(middlewares.WithRecoverLogger(log)),
//	        middlewares.RequestID(),
//	    ),
//	    anvil.WithRoutePipes("web", middlewares.SanitizeInput()),
//	)
//
// Recover turns panics into *PanicError (500). RequestID stores an ID in the
// request context; RequestIDExtractor adds it to log records. Timeout puts a
// deadline on the request context and reports *TimeoutError (504).
// SanitizeInput trims and strips HTML from request input.
package middlewares
