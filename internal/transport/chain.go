// Package transport implements the outbound request pipeline as an explicit,
// statically ordered chain of http.RoundTripper middlewares: tracing, loading
// tracking, workspace scoping, bearer injection with single-flight 401
// refresh, and response envelope normalization. Ordering is a visible
// property of the Chain call, not framework wiring.
package transport

import "net/http"

// Middleware wraps a RoundTripper with one cross-cutting transform.
type Middleware func(next http.RoundTripper) http.RoundTripper

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain composes middlewares around base. The first middleware is the
// outermost: Chain(base, a, b) runs a(b(base)).
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}
