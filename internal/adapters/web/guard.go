package web

import (
	"net/http"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

// redirector answers the request with a 302 the first time the guard asks
// for a navigation.
type redirector struct {
	w    http.ResponseWriter
	r    *http.Request
	done bool
}

var _ ports.Navigator = (*redirector)(nil)

func (n *redirector) Redirect(path string) {
	if n.done {
		return
	}
	n.done = true
	http.Redirect(n.w, n.r, path, http.StatusFound)
}

func (s *Server) requireKind(kind domain.AccountKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nav := &redirector{w: w, r: r}
			guard, err := serviceFrom(r.Context()).Session().Guard(kind, nav)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			defer guard.Unmount()

			if !guard.Mount() {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
