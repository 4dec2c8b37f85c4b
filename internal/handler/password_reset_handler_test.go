package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ophrus/backend/internal/repository"
	"github.com/ophrus/backend/internal/service"
)

// ---------------------------------------------------------------------------
// mockPasswordResetService : PasswordResetService のモック
// ---------------------------------------------------------------------------

type mockPasswordResetService struct {
	requestResetFunc  func(ctx context.Context, email string) error
	verifyCodeFunc    func(ctx context.Context, email, code string) error
	resetPasswordFunc func(ctx context.Context, email, code, newPassword string) error
}

func (m *mockPasswordResetService) RequestReset(ctx context.Context, email string) error {
	if m.requestResetFunc != nil {
		return m.requestResetFunc(ctx, email)
	}
	return nil
}

func (m *mockPasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	if m.verifyCodeFunc != nil {
		return m.verifyCodeFunc(ctx, email, code)
	}
	return nil
}

func (m *mockPasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if m.resetPasswordFunc != nil {
		return m.resetPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func bodyMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %s", rec.Body.String())
	}
	return resp["message"]
}

// ---------------------------------------------------------------------------
// POST /api/users/reset-request
// ---------------------------------------------------------------------------

func TestPasswordResetHandler_ResetRequest_Success(t *testing.T) {
	var capturedEmail string
	mock := &mockPasswordResetService{
		requestResetFunc: func(_ context.Context, email string) error {
			capturedEmail = email
			return nil
		},
	}
	h := NewPasswordResetHandler(mock)

	rec := postJSON(t, h.ResetRequest, "/api/users/reset-request", `{"email":"  A@Example.COM "}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d, body: %s", rec.Code, rec.Body.String())
	}
	// メールアドレスは小文字化・トリムされる
	if capturedEmail != "a@example.com" {
		t.Errorf("expected normalized email, got %q", capturedEmail)
	}
}

func TestPasswordResetHandler_ResetRequest_UnknownEmail(t *testing.T) {
	mock := &mockPasswordResetService{
		requestResetFunc: func(_ context.Context, _ string) error {
			return repository.ErrNotFound
		},
	}
	h := NewPasswordResetHandler(mock)

	rec := postJSON(t, h.ResetRequest, "/api/users/reset-request", `{"email":"ghost@example.com"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPasswordResetHandler_ResetRequest_Cooldown(t *testing.T) {
	mock := &mockPasswordResetService{
		requestResetFunc: func(_ context.Context, _ string) error {
			return &service.CooldownError{Remaining: 7}
		},
	}
	h := NewPasswordResetHandler(mock)

	rec := postJSON(t, h.ResetRequest, "/api/users/reset-request", `{"email":"a@example.com"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if msg := bodyMessage(t, rec); !strings.Contains(msg, "7 minute(s)") {
		t.Errorf("expected remaining minutes in message, got %q", msg)
	}
}

func TestPasswordResetHandler_ResetRequest_MissingEmail(t *testing.T) {
	h := NewPasswordResetHandler(&mockPasswordResetService{})

	rec := postJSON(t, h.ResetRequest, "/api/users/reset-request", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/users/reset-verify
// ---------------------------------------------------------------------------

func TestPasswordResetHandler_ResetVerify_Success(t *testing.T) {
	h := NewPasswordResetHandler(&mockPasswordResetService{})

	rec := postJSON(t, h.ResetVerify, "/api/users/reset-verify", `{"email":"a@example.com","code":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestPasswordResetHandler_ResetVerify_InvalidCode(t *testing.T) {
	mock := &mockPasswordResetService{
		verifyCodeFunc: func(_ context.Context, _, _ string) error {
			return service.ErrInvalidResetCode
		},
	}
	h := NewPasswordResetHandler(mock)

	rec := postJSON(t, h.ResetVerify, "/api/users/reset-verify", `{"email":"a@example.com","code":"000000"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := bodyMessage(t, rec); msg != "Code invalide ou expiré." {
		t.Errorf("unexpected message: %q", msg)
	}
}

// ---------------------------------------------------------------------------
// POST /api/users/reset-password
// ---------------------------------------------------------------------------

func TestPasswordResetHandler_ResetPassword_Success(t *testing.T) {
	var gotPassword string
	mock := &mockPasswordResetService{
		resetPasswordFunc: func(_ context.Context, _, _, newPassword string) error {
			gotPassword = newPassword
			return nil
		},
	}
	h := NewPasswordResetHandler(mock)

	rec := postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"email":"a@example.com","code":"123456","newPassword":"newsecret"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d, body: %s", rec.Code, rec.Body.String())
	}
	if gotPassword != "newsecret" {
		t.Errorf("expected newPassword forwarded, got %q", gotPassword)
	}
}

func TestPasswordResetHandler_ResetPassword_ShortPassword(t *testing.T) {
	h := NewPasswordResetHandler(&mockPasswordResetService{})

	rec := postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"email":"a@example.com","code":"123456","newPassword":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Errors []fieldError `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Errors) == 0 {
		t.Errorf("expected validation errors payload, got %s", rec.Body.String())
	}
}
