package server

import "net/http"

// NewCallbackRouter serves h on each of its [Handler.Routes]. Browsers arrive
// at the callback with a redirect, so anything other than GET or HEAD is
// rejected before it can consume the one-shot handler.
//
// Middleware is applied in the order given, the first one outermost.
func NewCallbackRouter(h Handler, middleware ...Middleware) http.Handler {
	var wrapped http.Handler = getOnly(h)
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.Handle(route, wrapped)
	}
	return mux
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
