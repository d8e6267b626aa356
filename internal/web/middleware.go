package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/chronique-jdr/chronique/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// requireAuth wraps a handler with bearer-token verification. The verified
// identity is stored on the request context for identityFrom.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, s.logger, auth.ErrInvalidToken)
			return
		}
		ident, err := s.tokens.Verify(token)
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, ident)
		next(w, r.WithContext(ctx))
	}
}

// identityFrom returns the identity stored by requireAuth.
//
// Precondition: the request must have passed through requireAuth.
func identityFrom(r *http.Request) auth.Identity {
	ident, _ := r.Context().Value(identityKey).(auth.Identity)
	return ident
}
