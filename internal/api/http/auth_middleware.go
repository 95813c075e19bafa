package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// TokenVerifier validates HS256 bearer tokens issued by the marketplace auth service.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues a token for actor. Used by tooling and tests.
func (v *TokenVerifier) Sign(actor user.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}

// Verify parses raw and returns the actor it identifies.
func (v *TokenVerifier) Verify(raw string) (user.Actor, error) {
	if raw == "" {
		return user.Actor{}, errors.New("missing token")
	}
	parsed, err := jwt.ParseWithClaims(raw, &actorClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return user.Actor{}, err
	}
	claims, ok := parsed.Claims.(*actorClaims)
	if !ok || !parsed.Valid {
		return user.Actor{}, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return user.Actor{}, fmt.Errorf("parse sub: %w", err)
	}
	role, ok := user.ParseRole(claims.Role)
	if !ok {
		return user.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return user.Actor{UserID: userID, Role: role}, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.tokens.Verify(extractToken(r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorFromContext(r.Context())
			if actor.UserID == uuid.Nil {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
				return
			}
			if _, ok := allowed[string(actor.Role)]; !ok {
				respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}
