package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// AuthManager mints and checks the short lived dashboard tokens. A token is
// obtained by presenting the admin API key once.
type AuthManager struct {
	apiKey []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthManager(apiKey, secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{apiKey: []byte(apiKey), secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled is false when no API key or signing secret is configured; the dashboard then refuses everything.
func (a *AuthManager) Enabled() bool {
	return len(a.apiKey) > 0 && len(a.secret) > 0
}

func (a *AuthManager) CheckAPIKey(key string) bool {
	if !a.Enabled() || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), a.apiKey) == 1
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthManager) Mint() (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   "dashboard",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseFromRequest reads "Authorization: Bearer <jwt>".
func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	hdr := strings.TrimSpace(r.Header.Get("Authorization"))
	if hdr == "" {
		return nil, errMissingToken
	}
	scheme, tok, ok := strings.Cut(hdr, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return nil, errInvalidToken
	}
	return a.parse(strings.TrimSpace(tok))
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid || claims.Role != "admin" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			s.log.Error().Msg("dashboard auth is not configured")
			writeJSON(w, http.StatusForbidden, errorBody{Error: "dashboard disabled"})
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
