package server

import "net/http"

// CallbackRouter serves the sign-in routes behind a middleware chain.
//
// Routes are registered as method patterns on an [http.ServeMux], so a request with the wrong method gets a
// 405 and an unknown path a 404. Middleware wraps the whole mux and sees those responses too.
type CallbackRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewCallbackRouter creates a router with middlewares applied in the order given.
func NewCallbackRouter(middlewares ...Middleware) *CallbackRouter {
	return &CallbackRouter{mux: http.NewServeMux(), middlewares: middlewares}
}

// Use appends middleware. The first middleware added runs first.
func (r *CallbackRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Mount registers h for every route it reports.
func (r *CallbackRouter) Mount(h Handler) {
	for _, route := range h.Routes() {
		r.mux.Handle(route.Pattern(), h)
	}
}

func (r *CallbackRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var handler http.Handler = r.mux
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	handler.ServeHTTP(w, req)
}
