// Package requestid assigns a correlation id to every request.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"termo/pkg/requestcontext"
)

// Header is the header echoed back (and honored when set by a proxy).
const Header = "X-Request-ID"

// New returns a fresh request id.
func New() string { return "req_" + uuid.NewString() }

// Middleware stores the request id in the context and response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = New()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
