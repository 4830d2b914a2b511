package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRegisterRoutes_EndToEnd(t *testing.T) {
	env := newTestEnv(t)

	r := chi.NewRouter()
	RegisterRoutes(r, Handlers{
		Auth:        env.authHandler,
		Reference:   env.reference,
		Registrants: env.registrants,
		Admin:       env.admin,
		APIKeys:     NewAPIKeyHandler(env.db, env.authHandler),
	})

	token, _ := env.authHandler.GenerateToken(env.owner.ID)
	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	if rr := do(http.MethodGet, "/health", nil); rr.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rr.Code)
	}

	rr := do(http.MethodPost, "/registrants", map[string]any{
		"registration_type":    "overnight_attender",
		"first_name":           "Lucretia",
		"last_name":            "Mott",
		"age":                  30,
		"days_attending":       env.dayIDs[:3],
		"accommodation_fee_id": env.dormitoryID,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var created RegistrantView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode registrant: %v", err)
	}
	if created.Fee.Fee != "225.00" {
		t.Errorf("expected fee 225.00, got %s", created.Fee.Fee)
	}

	rr = do(http.MethodGet, "/registrants", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}

	rr = do(http.MethodPost, "/registrants", map[string]any{
		"first_name": "Negative",
		"last_name":  "Age",
		"age":        -3,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for negative age, got %d", rr.Code)
	}

	rr = do(http.MethodGet, "/admin/registrants", nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rr.Code)
	}
}
