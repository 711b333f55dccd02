package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"drivent/internal/domain"
)

type ctxKey struct{}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserIDFrom returns the id stored by Authenticator.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

// Authenticator accepts an HS256 bearer token carrying a numeric userId claim
// and requires a session row for that exact token.
type Authenticator struct {
	secret   []byte
	sessions domain.SessionRepository
}

func NewAuthenticator(secret string, sessions domain.SessionRepository) *Authenticator {
	return &Authenticator{secret: []byte(secret), sessions: sessions}
}

// SignToken issues a token the middleware accepts; used by seeding tools and tests.
func SignToken(secret string, userID int64) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID})
	return t.SignedString([]byte(secret))
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

		userID, err := a.parse(raw)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		sess, err := a.sessions.FindSessionByToken(r.Context(), raw)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && sess.UserID != userID) {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "no session for token")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("session lookup failed")
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (a *Authenticator) parse(raw string) (int64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return 0, domain.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	// JSON numbers decode as float64
	v, ok := claims["userId"].(float64)
	if !ok || v <= 0 || v != float64(int64(v)) {
		return 0, domain.ErrUnauthorized
	}
	return int64(v), nil
}
