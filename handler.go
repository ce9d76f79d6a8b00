package foyer

import (
	"context"
	"net/http"
)

// HandlerFunc is the function signature our handlers use to process requests. Errors made by the
// caller should be handled by returning a client error response. Errors in execution or in foyer
// itself should be passed back and will be written as a server error.
type HandlerFunc func(ctx context.Context, r *http.Request) (*Response, error)

// Handler is the interface all handlers must satisfy
type Handler interface {
	Initialize(Server) error
	Name() string
}

// RegisterHandler adds a new handler, this is called by individual handlers when their package is loaded
func RegisterHandler(handler Handler) {
	registeredHandlers = append(registeredHandlers, handler)
}

var registeredHandlers []Handler
