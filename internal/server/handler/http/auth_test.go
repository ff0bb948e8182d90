package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		service        *fakeAuthService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "empty email",
			body:           `{"email":"","password":"pw"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "bad credentials",
			body:           `{"email":"agent@chaabi.com","password":"wrong"}`,
			service:        &fakeAuthService{err: service.ErrBadCredentials},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "Bad credentials",
		},
		{
			name:           "unknown user",
			body:           `{"email":"nobody@chaabi.com","password":"pw"}`,
			service:        &fakeAuthService{err: service.ErrUserNotFound},
			expectedCode:   http.StatusUnauthorized,
			expectedSubstr: "User not found",
		},
		{
			name:         "success",
			body:         `{"email":"agent@chaabi.com","password":"password"}`,
			service:      &fakeAuthService{token: "issued-token"},
			expectedCode: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := &AuthHandler{AuthService: tc.service, Log: zap.NewNop()}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tc.expectedCode {
				t.Errorf("status = %d; want %d", rec.Code, tc.expectedCode)
			}
			if tc.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tc.expectedSubstr) {
				t.Errorf("body = %q; want substring %q", rec.Body.String(), tc.expectedSubstr)
			}
			if tc.expectedCode == http.StatusOK {
				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp["token"] != "issued-token" {
					t.Errorf("token = %q; want issued-token", resp["token"])
				}
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	handler := &AuthHandler{AuthService: &fakeAuthService{}, Log: zap.NewNop()}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d; want 204", rec.Code)
	}
}
