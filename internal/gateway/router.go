package gateway

import (
	"net/http"
)

// Middleware wraps a handler with cross-cutting behaviour
type Middleware func(http.Handler) http.Handler

// Router wraps http.ServeMux with a middleware chain
type Router struct {
	mux   *http.ServeMux
	chain []Middleware
}

// NewRouter creates a new router
func NewRouter() *Router {
	return &Router{
		mux: http.NewServeMux(),
	}
}

// Mux returns the underlying http.ServeMux, without middleware
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

// Use appends middleware. The first one added sees the request first.
func (r *Router) Use(mw ...Middleware) {
	r.chain = append(r.chain, mw...)
}

// Handler returns the mux wrapped in the registered middleware
func (r *Router) Handler() http.Handler {
	var h http.Handler = r.mux
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](h)
	}
	return h
}

// Handle registers a handler for the given pattern
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a handler function for the given pattern
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}
