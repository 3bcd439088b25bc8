package authHandler

import (
	"PoseCoach/internal/api/auth"
	authService "PoseCoach/internal/api/auth/service"
	"PoseCoach/internal/entity"
	jwtPkg "PoseCoach/pkg/jwt"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type fakeMiddleware struct{}

func (fakeMiddleware) NewRateLimiter(ctx *fiber.Ctx) error { return ctx.Next() }

func (fakeMiddleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	ctx.Locals(jwtPkg.UserLocalsKey, entity.UserLoginData{ID: "user-1", Email: "a@b.co"})
	return ctx.Next()
}

func (fakeMiddleware) NewRequestIDMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error { return ctx.Next() }
}

func (fakeMiddleware) NewLoggingMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error { return ctx.Next() }
}

func (fakeMiddleware) GetRequestID(ctx *fiber.Ctx) string { return "test-request" }

type fakeUserDomain struct{}

func (fakeUserDomain) RegisterUser(c context.Context, req auth.CreateUserRequest) (auth.UserResponse, error) {
	if req.Password != req.ConfirmPassword {
		return auth.UserResponse{}, auth.ErrPasswordMismatch
	}
	return auth.UserResponse{ID: "user-1", Email: req.Email}, nil
}

func (fakeUserDomain) GetByID(c context.Context, id string) (auth.UserResponse, error) {
	return auth.UserResponse{ID: id, Email: "a@b.co"}, nil
}

type fakeAuthDomain struct{}

func (fakeAuthDomain) Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error) {
	if req.Email != "a@b.co" {
		return auth.LoginUserResponse{}, auth.ErrUserNotFound
	}
	return auth.LoginUserResponse{AccessToken: "token", ExpiresInMinutes: 60}, nil
}

type fakeAuthService struct{}

func (fakeAuthService) User() authService.UserDomain { return fakeUserDomain{} }

func (fakeAuthService) Auth() authService.AuthDomain { return fakeAuthDomain{} }

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func newTestApp() *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := fiber.New()
	New(logger, fakeAuthService{}, validator.New(), fakeMiddleware{}).Start(app.Group("/api/v1"))
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestAuthRoutes(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"register", "/api/v1/users", `{"email":"a@b.co","password":"password1","confirm_password":"password1"}`, http.StatusCreated},
		{"register mismatch", "/api/v1/users", `{"email":"a@b.co","password":"password1","confirm_password":"password2"}`, http.StatusBadRequest},
		{"register invalid email", "/api/v1/users", `{"email":"nope","password":"password1","confirm_password":"password1"}`, http.StatusBadRequest},
		{"login", "/api/v1/auth/login", `{"email":"a@b.co","password":"password1"}`, http.StatusOK},
		{"login unknown user", "/api/v1/auth/login", `{"email":"x@b.co","password":"password1"}`, http.StatusNotFound},
		{"login missing password", "/api/v1/auth/login", `{"email":"a@b.co"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, app, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Errorf("Expected %d, got %d (%v)", tt.wantStatus, status, body)
			}
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
