package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"loadsheet/infrastructure/audit"
	"loadsheet/infrastructure/identity"
	"loadsheet/infrastructure/metrics"
	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sheetstore"
	"loadsheet/infrastructure/sqlite"
	"loadsheet/models"
)

const testPassword = "Dock-Four-2026!"

var cheapHash = identity.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type integrationEnv struct {
	server  *httptest.Server
	db      *sqlite.DB
	metrics *metrics.Metrics
	audit   *audit.Service
}

func setupIntegrationServer(t *testing.T) *integrationEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	users := identity.NewDirectory(db).WithHashParams(cheapHash)
	for _, u := range []struct{ name, display, role string }{
		{"admin", "Ana Admin", string(sheet.RoleAdmin)},
		{"stager", "Sam Stager", string(sheet.RoleStagingSupervisor)},
		{"loader", "Lee Loader", string(sheet.RoleLoadingSupervisor)},
	} {
		if _, err := users.AddUser(context.Background(), u.name, u.display, u.role, testPassword); err != nil {
			t.Fatalf("seed %s: %v", u.name, err)
		}
	}

	auditSvc := audit.NewService(db, nil)
	store := sheetstore.New(db).WithAudit(auditSvc)
	m := metrics.New()
	controller := sheet.NewController(store,
		sheet.WithImageStore(store),
		sheet.WithNotifier(auditSvc))

	s := NewServer("127.0.0.1:0", Deps{
		DB:      db,
		Store:   store,
		Sheets:  controller,
		Audit:   auditSvc,
		Users:   users,
		Rbac:    rbac.New(),
		Metrics: m,
	})
	env := &integrationEnv{server: httptest.NewServer(s.Handler()), db: db, metrics: m, audit: auditSvc}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})
	return env
}

func (e *integrationEnv) call(t *testing.T, user, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, testPassword)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

type sheetEnvelope struct {
	Sheet  sheet.SheetData `json:"sheet"`
	Totals sheet.Totals    `json:"totals"`
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	env := setupIntegrationServer(t)

	resp := env.call(t, "", http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers on every response")
	}
	resp = env.call(t, "", http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
}

func TestAPIRequiresCredentials(t *testing.T) {
	env := setupIntegrationServer(t)

	resp := env.call(t, "", http.MethodGet, "/api/sheets", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Basic") {
		t.Fatalf("expected basic auth challenge")
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/sheets", nil)
	req.SetBasicAuth("admin", "wrong-password")
	bad, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_ = bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", bad.StatusCode)
	}
}

func TestRouteRBACDeniesWrongRole(t *testing.T) {
	env := setupIntegrationServer(t)

	create := map[string]any{"header": map[string]string{"destination": "Muscat"}}
	if resp := env.call(t, "loader", http.MethodPost, "/api/sheets", create); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("loader create: expected 403, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "stager", http.MethodGet, "/exports/sheets.csv", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stager summary export: expected 403, got %d", resp.StatusCode)
	}
	if got := testutil.ToFloat64(env.metrics.RequestErrors.WithLabelValues("403")); got < 2 {
		t.Fatalf("expected 403s counted, got %v", got)
	}
}

func TestSheetLifecycleOverHTTP(t *testing.T) {
	env := setupIntegrationServer(t)

	draft := map[string]any{
		"header": map[string]string{"destination": "Muscat", "loadingDockNo": "7", "shift": "B"},
		"stagingItems": []map[string]any{
			{"srNo": 1, "skuName": "Water 500ml", "casesPerPlt": 10, "fullPlt": 5},
		},
	}
	resp := env.call(t, "stager", http.MethodPost, "/api/sheets", draft)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[sheetEnvelope](t, resp)
	id := created.Sheet.ID
	if created.Sheet.CreatedBy != "Sam Stager" {
		t.Fatalf("expected actor display name on sheet, got %q", created.Sheet.CreatedBy)
	}

	if resp := env.call(t, "stager", http.MethodPost, "/api/sheets/"+id+"/lock", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("lock: expected 200, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "stager", http.MethodPost, "/api/sheets/"+id+"/lock", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second lock: expected 409, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "stager", http.MethodPost, "/api/sheets/"+id+"/complete", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stager complete: expected 403, got %d", resp.StatusCode)
	}

	cell := map[string]any{"skuSrNo": 1, "row": 0, "col": 0, "value": "9", "commit": true}
	if resp := env.call(t, "loader", http.MethodPut, "/api/sheets/"+id+"/loading/cells", cell); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad cell: expected 422, got %d", resp.StatusCode)
	}
	cell["value"] = "10"
	if resp := env.call(t, "loader", http.MethodPut, "/api/sheets/"+id+"/loading/cells", cell); resp.StatusCode != http.StatusOK {
		t.Fatalf("cell: expected 200, got %d", resp.StatusCode)
	}
	resp = env.call(t, "loader", http.MethodPut, "/api/sheets/"+id+"/loading/loose", map[string]any{"skuSrNo": 1, "value": "5"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("loose: expected 200, got %d", resp.StatusCode)
	}
	loaded := decodeBody[sheetEnvelope](t, resp)
	if loaded.Totals.Loaded != 15 || loaded.Totals.Balance != 35 {
		t.Fatalf("unexpected totals %+v", loaded.Totals)
	}

	resp = env.call(t, "loader", http.MethodPost, "/api/sheets/"+id+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp.StatusCode)
	}
	done := decodeBody[sheetEnvelope](t, resp)
	if done.Sheet.Status != sheet.StatusCompleted || done.Sheet.History[0].Details != "completed with shortage of 35 cases" {
		t.Fatalf("unexpected completed sheet %+v", done.Sheet.History[0])
	}

	resp = env.call(t, "admin", http.MethodGet, "/api/sheets/"+id+"/audit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", resp.StatusCode)
	}
	trail := decodeBody[[]models.AuditLog](t, resp)
	if len(trail) != 3 || trail[0].Action != sheet.StatusChangeAction(sheet.StatusCompleted) || trail[2].Action != sheet.ActionCreated {
		t.Fatalf("unexpected audit trail %+v", trail)
	}

	resp = env.call(t, "loader", http.MethodGet, "/exports/sheets/"+id+"/csv", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Water 500ml") {
		t.Fatalf("expected sku in export, got %s", body)
	}

	resp = env.call(t, "admin", http.MethodGet, "/sheets/"+id, nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("page: expected html 200, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	if resp := env.call(t, "admin", http.MethodDelete, "/api/sheets/"+id, map[string]string{"reason": "test run"}); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "admin", http.MethodGet, "/api/sheets/"+id, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted: expected 404, got %d", resp.StatusCode)
	}
	deleted, err := env.audit.Trail(context.Background(), id)
	if err != nil {
		t.Fatalf("trail after delete: %v", err)
	}
	if len(deleted) == 0 || deleted[0].Action != sheet.ActionDeleted || deleted[0].Details != "reason: test run" {
		t.Fatalf("expected deletion at the head of the trail, got %+v", deleted)
	}
}

func TestAdminManagesUsers(t *testing.T) {
	env := setupIntegrationServer(t)

	if resp := env.call(t, "stager", http.MethodGet, "/api/admin/users", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stager: expected 403, got %d", resp.StatusCode)
	}
	weak := map[string]string{"username": "dock2", "role": "LOADING_SUPERVISOR", "password": "short"}
	if resp := env.call(t, "admin", http.MethodPost, "/api/admin/users", weak); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: expected 422, got %d", resp.StatusCode)
	}
	good := map[string]string{"username": "dock2", "displayName": "Dock Two", "role": "loading_supervisor", "password": testPassword}
	if resp := env.call(t, "admin", http.MethodPost, "/api/admin/users", good); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	resp := env.call(t, "admin", http.MethodGet, "/api/admin/users", nil)
	users := decodeBody[[]map[string]any](t, resp)
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	for _, u := range users {
		if _, leaked := u["PasswordHash"]; leaked {
			t.Fatalf("password hash must not be exposed")
		}
	}
	if resp := env.call(t, "dock2", http.MethodGet, "/api/sheets", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("new user: expected 200, got %d", resp.StatusCode)
	}
}
