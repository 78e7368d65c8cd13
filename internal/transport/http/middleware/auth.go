package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/logging"
	"github.com/parentingo/parentingo/internal/service"
)

type contextKey string

const (
	UserKey    contextKey = "user"
	SessionKey contextKey = "session"
)

const msgAuthRequired = "User authentication required"

// Auth attaches the user of a valid bearer token to the request. Requests
// without a valid token continue anonymously; RequireUser rejects them
// where an account is needed.
func Auth(auth service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, sess, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				if apperror.KindOf(err) != apperror.KindUnauthenticated {
					logging.FromContext(r.Context()).WithError(err).Error("authenticating request")
					writeMessage(w, http.StatusInternalServerError, "Something went wrong")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, SessionKey, sess)
			ctx = logging.WithEntry(ctx, logging.FromContext(ctx).WithField("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser answers 401 unless Auth found a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			writeMessage(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser returns the authenticated user, or nil.
func GetUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(UserKey).(*domain.User)
	return u
}

func GetSession(ctx context.Context) service.Session {
	s, _ := ctx.Value(SessionKey).(service.Session)
	return s
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
