package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BITS4/babyshop/internal/authn"
	"github.com/BITS4/babyshop/internal/checkout"
	"github.com/BITS4/babyshop/internal/domain"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	cartIDKey  contextKey = "cart_id"
)

const (
	sessionCookie = "session"
	cartCookie    = "cart_id"
)

// TokenParser validates a session token. Consumers define this interface.
type TokenParser interface {
	ParseToken(token string) (*domain.Session, error)
}

// SessionMiddleware resolves the session token from the Authorization header
// or the session cookie. An absent or invalid token is not an error here;
// handlers that need a session use RequireSession.
func SessionMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
				token = strings.TrimPrefix(ah, "Bearer ")
			}
			if token == "" {
				if c, err := r.Cookie(sessionCookie); err == nil {
					token = c.Value
				}
			}

			if token != "" {
				if session, err := parser.ParseToken(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), sessionKey, session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CartIDMiddleware pins a cart id to the request: the user id for a signed-in
// session, otherwise a generated id kept in a cookie so an anonymous cart
// survives reloads.
func CartIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cartID string
		if session := SessionFrom(r.Context()); session != nil {
			cartID = session.UID
		} else if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
			cartID = c.Value
		} else {
			cartID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookie,
				Value:    cartID,
				Path:     "/",
				MaxAge:   90 * 24 * 3600,
				HttpOnly: true,
			})
		}

		ctx := context.WithValue(r.Context(), cartIDKey, cartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			respondError(w, authn.ErrNoSession)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())
		if session == nil {
			respondError(w, authn.ErrNoSession)
			return
		}
		if !session.IsAdmin {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFrom(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionKey).(*domain.Session)
	return session
}

func cartIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cartIDKey).(string)
	return id
}

// mustSession is used behind RequireSession.
func mustSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	session := SessionFrom(r.Context())
	if session == nil {
		respondError(w, checkout.ErrNoSession)
		return nil, false
	}
	return session, true
}
