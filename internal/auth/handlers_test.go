package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chain-calculator/internal/auth"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestSignup(t *testing.T) {
	store := setupTest(t)
	h := auth.NewHandlers(store)

	tests := []struct {
		name         string
		body         any
		expectedCode int
	}{
		{"Valid signup", map[string]string{"username": "newuser", "password": "newpassword"}, http.StatusCreated},
		{"Empty username", map[string]string{"username": "", "password": "newpassword"}, http.StatusBadRequest},
		{"Missing password", map[string]string{"username": "newuser2"}, http.StatusBadRequest},
		{"Duplicate user", map[string]string{"username": "newuser", "password": "other"}, http.StatusBadRequest},
		{"Malformed JSON", `{"username":`, http.StatusBadRequest},
		{"Unknown field", map[string]string{"username": "x", "password": "y", "role": "admin"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, h.Signup, "/signup", tt.body)
			if rr.Code != tt.expectedCode {
				t.Fatalf("status = %d, want %d, body: %s", rr.Code, tt.expectedCode, rr.Body.String())
			}

			if rr.Code == http.StatusCreated {
				var resp auth.SignupResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Message != "User created successfully" || resp.UserID <= 0 {
					t.Errorf("unexpected signup response %+v", resp)
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := setupTest(t)
	h := auth.NewHandlers(store)

	if rr := postJSON(t, h.Signup, "/signup", map[string]string{"username": "testuser", "password": "testpassword"}); rr.Code != http.StatusCreated {
		t.Fatalf("signup failed: %s", rr.Body.String())
	}

	tests := []struct {
		name         string
		body         any
		expectedCode int
	}{
		{"Valid credentials", map[string]string{"username": "testuser", "password": "testpassword"}, http.StatusOK},
		{"Wrong password", map[string]string{"username": "testuser", "password": "wrong"}, http.StatusBadRequest},
		{"Unknown user", map[string]string{"username": "nobody", "password": "testpassword"}, http.StatusBadRequest},
		{"Empty body", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, h.Login, "/login", tt.body)
			if rr.Code != tt.expectedCode {
				t.Fatalf("status = %d, want %d, body: %s", rr.Code, tt.expectedCode, rr.Body.String())
			}
			if rr.Code != http.StatusOK {
				return
			}

			var resp auth.LoginResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Username != "testuser" || resp.UserID <= 0 {
				t.Errorf("unexpected login response %+v", resp)
			}
			claims, err := auth.ValidateToken(resp.Token)
			if err != nil {
				t.Fatalf("issued token does not validate: %v", err)
			}
			if claims.UserID != resp.UserID {
				t.Errorf("token user %d, response user %d", claims.UserID, resp.UserID)
			}
		})
	}
}
