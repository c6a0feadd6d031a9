// Package router wraps julienschmidt/httprouter behind small method
// helpers so handlers stay plain http.Handler values.
package router

import (
	"context"
	"net/http"

	jshttprouter "github.com/julienschmidt/httprouter"
)

type Router struct {
	rt *jshttprouter.Router
}

func New() *Router {
	return &Router{rt: jshttprouter.New()}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.rt.ServeHTTP(w, req)
}

func (r *Router) Get(path string, handler http.Handler) {
	r.rt.Handler(http.MethodGet, path, handler)
}

func (r *Router) Post(path string, handler http.Handler) {
	r.rt.Handler(http.MethodPost, path, handler)
}

func (r *Router) Patch(path string, handler http.Handler) {
	r.rt.Handler(http.MethodPatch, path, handler)
}

// Param returns the named path parameter of the matched route, or ""
// when the route has none.
func Param(ctx context.Context, name string) string {
	params := jshttprouter.ParamsFromContext(ctx)
	return params.ByName(name)
}
