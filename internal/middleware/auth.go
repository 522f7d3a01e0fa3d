package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/auth"
	"google.golang.org/api/option"
)

// TokenVerifier is the part of the Firebase auth client the middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type AuthMiddleware struct {
	verifier   TokenVerifier
	authorizer auth.Authorizer
}

// NewFirebaseAuth builds the Firebase auth client for projectID.
func NewFirebaseAuth(ctx context.Context, projectID, credentialsFile string) (*fbauth.Client, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase auth")
	}
	return client, nil
}

func NewAuthMiddleware(verifier TokenVerifier, authorizer auth.Authorizer) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, authorizer: authorizer}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		email, _ := token.Claims["email"].(string)
		c.Set("uid", token.UID)
		c.Set("email", strings.ToLower(email))
		return next(c)
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			return next(c)
		}
		token, err := m.verifier.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			return next(c)
		}
		email, _ := token.Claims["email"].(string)
		email = strings.ToLower(email)
		c.Set("uid", token.UID)
		c.Set("email", email)
		if m.IsAdmin(c.Request().Context(), email) {
			c.Set("admin", true)
		}
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		email, _ := c.Get("email").(string)
		if m.authorizer == nil || !m.authorizer.IsAuthorized(c.Request().Context(), email) {
			zlog.Ctx(c.Request().Context()).Warn().Str("email", email).Str("path", c.Path()).Msg("admin access denied")
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		c.Set("admin", true)
		return next(c)
	}
}

// IsAdmin reports whether the signed-in caller is on the moderation allowlist.
func (m *AuthMiddleware) IsAdmin(ctx context.Context, email string) bool {
	return m.authorizer != nil && m.authorizer.IsAuthorized(ctx, email)
}
