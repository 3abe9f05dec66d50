package runtime

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/resonance/config"
)

// ScopeRunsWrite allows starting research runs through the API.
const ScopeRunsWrite = "runs:write"

// ErrNoJWTSecret is returned when a token is requested but no secret is set.
var ErrNoJWTSecret = errors.New("jwt secret not configured (server.jwt_secret)")

// LoadJWTSecret returns server.jwt_secret. A nil secret means auth is off.
func LoadJWTSecret(cfg *config.Config) []byte {
	if cfg == nil || cfg.Server.JWTSecret == "" {
		return nil
	}
	return []byte(cfg.Server.JWTSecret)
}

// SignJWT issues a signed token with the provided subject and TTL.
func SignJWT(subject string, secret []byte, ttl time.Duration, scopes ...string) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoJWTSecret
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	if len(scopes) > 0 {
		claims["scopes"] = scopes
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// EchoAuthMiddleware validates HS256 bearer tokens and stores the subject and
// scopes on both the echo context and the request context.
func EchoAuthMiddleware(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := extractToken(c)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			parsed, err := parser.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := parsed.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			sub, ok := claims["sub"].(string)
			if !ok || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			reqCtx := context.WithValue(c.Request().Context(), subjectKey{}, sub)
			if scopes := extractScopes(claims); len(scopes) > 0 {
				reqCtx = context.WithValue(reqCtx, scopeKey{}, scopes)
				c.Set("scopes", scopes)
			}
			c.Set("user_id", sub)
			c.SetRequest(c.Request().WithContext(reqCtx))
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type subjectKey struct{}

// SubjectFromContext returns the JWT subject if stored in context via middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok
}

type scopeKey struct{}

// ScopesFromContext returns scopes associated with the request context.
func ScopesFromContext(ctx context.Context) ([]string, bool) {
	if ctx == nil {
		return nil, false
	}
	scopes, ok := ctx.Value(scopeKey{}).([]string)
	return scopes, ok
}

// RequireScopes ensures the caller token includes all required scopes.
func RequireScopes(required ...string) echo.MiddlewareFunc {
	reqSet := make([]string, 0, len(required))
	for _, scope := range required {
		if scope = strings.TrimSpace(scope); scope != "" {
			reqSet = append(reqSet, scope)
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			existing, _ := ScopesFromContext(c.Request().Context())
			for _, scope := range reqSet {
				if !slices.Contains(existing, scope) {
					return echo.NewHTTPError(http.StatusForbidden, "missing scope: "+scope)
				}
			}
			return next(c)
		}
	}
}

func extractScopes(claims jwt.MapClaims) []string {
	if raw, ok := claims["scopes"]; ok {
		return normaliseScopes(raw)
	}
	if raw, ok := claims["scope"]; ok {
		return normaliseScopes(raw)
	}
	return nil
}

func normaliseScopes(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = v
	case string:
		parts = strings.Fields(v)
	default:
		return nil
	}
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
