package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter registers "METHOD /path" patterns on an [http.ServeMux], so a
// request with the wrong method is answered with 405 by the mux itself.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      []string
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first middleware added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path behind the middleware chain.
// Middleware added after Handle does not apply to the route.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := strings.ToUpper(method) + " " + path
	r.routes = append(r.routes, pattern)
	r.mux.Handle(pattern, r.chain(handler))
}

func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Routes lists the registered patterns in sorted order.
func (r *BasicRouter) Routes() []string {
	out := slices.Clone(r.routes)
	slices.Sort(out)
	return out
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *BasicRouter) chain(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.middlewares) {
		handler = mw(handler)
	}
	return handler
}
