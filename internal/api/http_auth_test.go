package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestRegistrationAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"a@x.com","display_name":"Alice","password":"password1"}`
	w := doRequest(env.router, http.MethodPost, "/api/v1/rest/registration", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for registration, got %d: %s", w.Code, w.Body.String())
	}

	// duplicate registration is reported without detail
	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/registration", "", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate registration, got %d", w.Code)
	}

	login := `{"email":"a@x.com","password":"password1"}`

	// pending activation: the login denial is indistinguishable from bad
	// credentials on the wire
	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/login", "", login)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before activation, got %d", w.Code)
	}
	notActivatedBody := w.Body.String()

	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/login", "", `{"email":"a@x.com","password":"wrong-pass"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong password, got %d", w.Code)
	}
	if w.Body.String() != notActivatedBody {
		t.Fatalf("expected identical denial bodies, got %q vs %q", notActivatedBody, w.Body.String())
	}

	code := env.mailer.activationCode("a@x.com")
	if code == "" {
		t.Fatal("expected activation code to be mailed")
	}

	w = doRequest(env.router, http.MethodGet, "/api/v1/rest/activate/wrong-code", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong activation code, got %d", w.Code)
	}

	w = doRequest(env.router, http.MethodGet, "/api/v1/rest/activate/"+code, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for activation, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/login", "", login)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for login after activation, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal login response: %v", err)
	}
	if resp["email"] != "a@x.com" || resp["role"] != "USER" || resp["token"] == "" {
		t.Fatalf("unexpected login response: %v", resp)
	}
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerActivated(t, "a@x.com", "password1", nil)

	w := doRequest(env.router, http.MethodPost, "/api/v1/rest/forgot", "", `{"email":"unknown@x.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown email, got %d", w.Code)
	}

	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/forgot", "", `{"email":"a@x.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for known email, got %d: %s", w.Code, w.Body.String())
	}
	if env.mailer.resetCode("a@x.com") == "" {
		t.Fatal("expected reset code to be mailed")
	}
}

func TestPasswordResetEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.registerActivated(t, "a@x.com", "old-pass1", nil)

	w := doRequest(env.router, http.MethodPost, "/api/v1/rest/forgot", "", `{"email":"a@x.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 requesting reset, got %d", w.Code)
	}
	code := env.mailer.resetCode("a@x.com")

	w = doRequest(env.router, http.MethodGet, "/api/v1/rest/reset/bogus", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid reset code, got %d", w.Code)
	}

	w = doRequest(env.router, http.MethodGet, "/api/v1/rest/reset/"+code, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid reset code, got %d: %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "empty confirmation",
			body:      `{"email":"a@x.com","password":"new-pass1","password2":""}`,
			wantField: "password2Error",
		},
		{
			name:      "mismatched confirmation",
			body:      `{"email":"a@x.com","password":"new-pass1","password2":"other"}`,
			wantField: "passwordError",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(env.router, http.MethodPost, "/api/v1/rest/reset", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var fields map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &fields); err != nil {
				t.Fatalf("failed to unmarshal field errors: %v", err)
			}
			if fields[tt.wantField] == "" {
				t.Fatalf("expected field error %s, got %v", tt.wantField, fields)
			}
		})
	}

	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/reset", "", `{"email":"a@x.com","password":"new-pass1","password2":"new-pass1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching reset, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/login", "", `{"email":"a@x.com","password":"old-pass1"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected old password to be rejected, got %d", w.Code)
	}
	w = doRequest(env.router, http.MethodPost, "/api/v1/rest/login", "", `{"email":"a@x.com","password":"new-pass1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected new password to log in, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSetUserRoles(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.registerActivated(t, "admin@x.com", "password1", []string{"ADMIN"})
	env.registerActivated(t, "user@x.com", "password1", nil)

	user, err := env.repo.GetUserByEmail(context.Background(), "user@x.com")
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}

	path := fmt.Sprintf("/api/v1/rest/admin/user/%d/roles", user.ID)
	w := doRequest(env.router, http.MethodPut, path, adminToken, `{"roles":["ADMIN","ROOT"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 updating roles, got %d: %s", w.Code, w.Body.String())
	}

	updated, _ := env.repo.GetUserByID(context.Background(), user.ID)
	if len(updated.Roles) != 1 || updated.Roles[0] != "ADMIN" {
		t.Fatalf("expected roles [ADMIN], got %v", updated.Roles)
	}

	w = doRequest(env.router, http.MethodPut, "/api/v1/rest/admin/user/9999/roles", adminToken, `{"roles":["USER"]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerActivated(t, "a@x.com", "password1", nil)

	w := doRequest(env.router, http.MethodPut, "/api/v1/rest/user/profile", token, `{"email":"b@x.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 updating profile, got %d: %s", w.Code, w.Body.String())
	}

	// the identity behind the old token is now locked pending re-activation
	w = doRequest(env.router, http.MethodGet, "/api/v1/rest/user/me", token, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after email change, got %d", w.Code)
	}
	if env.mailer.activationCode("b@x.com") == "" {
		t.Fatal("expected activation code for the new address")
	}
}

func TestUpdateProfileRejectsInvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerActivated(t, "a@x.com", "password1", nil)

	w := doRequest(env.router, http.MethodPut, "/api/v1/rest/user/profile", token, `{"email":"not an email!!"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid email, got %d: %s", w.Code, w.Body.String())
	}

	user, err := env.repo.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error loading user: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected stored email to stay a@x.com, got %q", user.Email)
	}
}
