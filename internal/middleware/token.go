package middleware

import (
	jwtPkg "PoseCoach/pkg/jwt"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	tokenQueryKey     = "token"
)

var errInvalidClaims = errors.New("invalid token claims")

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware(secretEnvKey string) *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: secretEnvKey}
}

// accessToken reads the bearer token. Browsers cannot set headers on a
// WebSocket handshake, so upgrade requests may pass it as ?token= instead.
func (t *tokenMiddleware) accessToken(ctx *fiber.Ctx) (string, error) {
	header := ctx.Get(fiber.HeaderAuthorization)
	if header == "" && websocket.IsWebSocketUpgrade(ctx) {
		if token := ctx.Query(tokenQueryKey); token != "" {
			return token, nil
		}
	}
	return jwtPkg.BearerToken(header)
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	fields := logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"path":       ctx.Path(),
		"method":     ctx.Method(),
		"client_ip":  ctx.IP(),
	}

	accessToken, err := m.token.accessToken(ctx)
	if err != nil {
		fields["error"] = err.Error()
		m.log.WithFields(fields).Warn("Authorization header check")
		return unauthorized(ctx)
	}

	userToken, err := jwtPkg.VerifyToken(accessToken, m.token.secretEnvKey)
	if err != nil {
		fields["error"] = err.Error()
		m.log.WithFields(fields).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		fields["error"] = errInvalidClaims.Error()
		m.log.WithFields(fields).Warn("Token claims check")
		return unauthorized(ctx)
	}

	user, err := jwtPkg.UserFromClaims(claims)
	if err != nil {
		fields["error"] = err.Error()
		m.log.WithFields(fields).Warn("Token claims check")
		return unauthorized(ctx)
	}

	ctx.Locals(jwtPkg.UserLocalsKey, user)

	fields["user_id"] = user.ID
	m.log.WithFields(fields).Debug("Authentication successful")
	return ctx.Next()
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
	})
}
