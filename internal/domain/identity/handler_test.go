package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/auth"
)

var testKey = []byte("identity-handler-test-signing-key-32b")

func newTestHandler() (*Handler, *echo.Echo) {
	tokens := auth.NewTokenIssuer(testKey, "frontdesk-test", time.Hour)
	h := NewHandler(newTestService(), tokens, auth.NewRevocationList(), zerolog.Nop())
	e := echo.New()
	return h, e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func asPrincipal(req *http.Request, username string, role auth.Role) *http.Request {
	ctx := auth.WithPrincipal(req.Context(), auth.Principal{Username: username, Role: role})
	return req.WithContext(ctx)
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler()
	req := jsonRequest(http.MethodPost, "/auth/register", `{"username":"Dr. Rao","password":"cardio-pass","role":"Doctor","specialization":"Cardiology"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "$2") || strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks credential material: %s", rec.Body.String())
	}
	var p auth.Principal
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Username != "Dr. Rao" || p.Role != auth.RoleDoctor || p.Specialization != "Cardiology" {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	body := `{"username":"desk","password":"front-desk-1","role":"Receptionist"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
	if err := h.Register(c); err != nil {
		t.Fatalf("first register: %v", err)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
	err := h.Register(c)
	expectHTTPStatus(t, err, http.StatusConflict)
}

func TestHandler_Register_BadRole(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"desk","password":"front-desk-1","role":"Janitor"}`), httptest.NewRecorder())
	expectHTTPStatus(t, h.Register(c), http.StatusBadRequest)
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Register(context.Background(), RegisterRequest{Username: "desk", Password: "front-desk-1", Role: "Receptionist"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"desk","password":"front-desk-1"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp LoginResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Token == "" || resp.TokenType != "Bearer" {
		t.Fatalf("expected bearer token, got %+v", resp)
	}
	claims, err := h.tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != "desk" || claims.Role != auth.RoleReceptionist {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestHandler_Login_WrongPasswordAndUnknownUser(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Register(context.Background(), RegisterRequest{Username: "desk", Password: "front-desk-1", Role: "Receptionist"})

	wrong := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"desk","password":"nope-nope"}`), httptest.NewRecorder()))
	unknown := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"ghost","password":"front-desk-1"}`), httptest.NewRecorder()))

	expectHTTPStatus(t, wrong, http.StatusUnauthorized)
	expectHTTPStatus(t, unknown, http.StatusUnauthorized)
	if wrong.(*echo.HTTPError).Message != unknown.(*echo.HTTPError).Message {
		t.Error("expected identical responses for wrong password and unknown user")
	}
}

func TestHandler_Logout_RevokesToken(t *testing.T) {
	h, e := newTestHandler()
	token, _, err := h.tokens.Issue(auth.Principal{Username: "desk", Role: auth.RoleReceptionist})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)
	c.Set("token_claims", claims)
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !h.revoked.IsRevoked(claims.ID) {
		t.Error("expected token to be revoked")
	}
}

func TestHandler_Logout_Unauthenticated(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), httptest.NewRecorder())
	expectHTTPStatus(t, h.Logout(c), http.StatusUnauthorized)
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestHandler()
	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "desk", auth.RoleReceptionist)
	rec := httptest.NewRecorder()
	if err := h.Me(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"role":"Receptionist"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	req := asPrincipal(jsonRequest(http.MethodPost, "/api/v1/patients", `{"id":77,"name":"Asha Verma","age":34,"gender":"Female","phone":"98450","address":"MG Road"}`), "desk", auth.RoleReceptionist)
	rec := httptest.NewRecorder()
	if err := h.CreatePatient(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != 1 {
		t.Errorf("expected server-assigned id 1, got %d", p.ID)
	}
	if p.CreatedBy != "desk" {
		t.Errorf("expected created_by desk, got %q", p.CreatedBy)
	}
}

func TestHandler_CreatePatient_InvalidAge(t *testing.T) {
	h, e := newTestHandler()
	req := jsonRequest(http.MethodPost, "/api/v1/patients", `{"name":"Asha","age":0}`)
	expectHTTPStatus(t, h.CreatePatient(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest)
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreatePatient(context.Background(), &Patient{Name: "Asha", Age: 34})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFoundAndBadID(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")
	expectHTTPStatus(t, h.GetPatient(c), http.StatusNotFound)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	expectHTTPStatus(t, h.GetPatient(c), http.StatusBadRequest)
}

func TestHandler_ListPatients_EmptyIsArray(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	if err := h.ListPatients(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rec.Body.String())
	}
}

func TestHandler_ListPatients_Paginated(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 3; i++ {
		h.svc.CreatePatient(context.Background(), &Patient{Name: "P", Age: 20 + i})
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=2", nil), rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Data) != 2 || resp.Total != 3 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
	if resp.Data[0].ID != 1 || resp.Data[1].ID != 2 {
		t.Errorf("expected ascending ids, got %d, %d", resp.Data[0].ID, resp.Data[1].ID)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAuthRoutes(e.Group("/auth"), AuthRouteOptions{})

	routes := e.Routes()
	if len(routes) == 0 {
		t.Fatal("expected routes to be registered")
	}

	want := map[string]bool{
		"GET:/api/v1/me":           false,
		"GET:/api/v1/patients":     false,
		"GET:/api/v1/patients/:id": false,
		"POST:/api/v1/patients":    false,
		"POST:/auth/register":      false,
		"POST:/auth/login":         false,
		"POST:/auth/logout":        false,
	}
	for _, r := range routes {
		key := r.Method + ":" + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, v := range want {
		if !v {
			t.Errorf("missing route: %s", k)
		}
	}
}

func expectHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != status {
		t.Errorf("expected %d, got %d", status, he.Code)
	}
}
