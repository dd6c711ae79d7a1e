package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/devmarket/api"
	dbfs "github.com/garnizeh/devmarket/db"
	"github.com/garnizeh/devmarket/internal/config"
	dbpkg "github.com/garnizeh/devmarket/internal/db"
	"github.com/garnizeh/devmarket/internal/identity"
	sqlite "github.com/garnizeh/devmarket/internal/repository/sqlite"
	"github.com/garnizeh/devmarket/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	t   *testing.T
	ids *identity.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	api.SetLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx := context.Background()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	d, err := dbpkg.New(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Addr:           ":0",
		JWTSecret:      secret,
		APITimeout:     5 * time.Second,
		DatabasePath:   dsn,
		TokenDuration:  time.Hour,
		UploadDir:      filepath.Join(t.TempDir(), "uploads"),
		MaxUploadBytes: 1 << 10,
		BcryptCost:     bcrypt.MinCost,
	}
	router, err := api.SetupRoutes(cfg, "test", "now", d)
	if err != nil {
		t.Fatalf("SetupRoutes: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	// admins cannot self-register; provision one directly
	ids, err := identity.NewService(sqlite.New(d, nil), identity.NewTokenCodec(secret, time.Hour), bcrypt.MinCost, nil)
	if err != nil {
		t.Fatalf("identity.NewService: %v", err)
	}

	return &testServer{Server: srv, t: t, ids: ids}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, s.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req, out)
}

func (s *testServer) send(req *http.Request, out any) int {
	s.t.Helper()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			s.t.Fatalf("%s %s: decode %s: %v", req.Method, req.URL.Path, data, err)
		}
	}
	return res.StatusCode
}

func (s *testServer) signup(email string, role models.Role) string {
	s.t.Helper()
	var reg models.User
	if code := s.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"email": email, "password": "pw", "role": string(role)}, &reg); code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d", email, code)
	}
	if reg.ID <= 0 || reg.Created == 0 || reg.Email != email || reg.Role != role {
		s.t.Fatalf("register %s: unexpected user %+v", email, reg)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if code := s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": "pw"}, &tok); code != http.StatusOK {
		s.t.Fatalf("login %s: status %d", email, code)
	}
	return tok.AccessToken
}

func (s *testServer) submit(token string, taskID int64, hours string, payload []byte) int {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("hours", hours)
	if payload != nil {
		fw, _ := mw.CreateFormFile("file", "solution.zip")
		_, _ = fw.Write(payload)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/tasks/%d/submit", s.URL, taskID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.send(req, nil)
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)

	buyer := s.signup("buyer@example.com", models.RoleBuyer)
	dev := s.signup("dev@example.com", models.RoleDeveloper)
	other := s.signup("dev2@example.com", models.RoleDeveloper)

	var me models.User
	if code := s.do(http.MethodGet, "/v1/users/me", dev, nil, &me); code != http.StatusOK || me.Role != models.RoleDeveloper {
		t.Fatalf("me: %d %+v", code, me)
	}

	var devs []models.User
	if code := s.do(http.MethodGet, "/v1/users/developers", buyer, nil, &devs); code != http.StatusOK || len(devs) != 2 {
		t.Fatalf("developers: %d %+v", code, devs)
	}

	var project models.Project
	if code := s.do(http.MethodPost, "/v1/projects", buyer, map[string]string{"title": "Website"}, &project); code != http.StatusCreated {
		t.Fatalf("create project: %d", code)
	}
	if code := s.do(http.MethodPost, "/v1/projects", dev, map[string]string{"title": "Nope"}, nil); code != http.StatusForbidden {
		t.Fatalf("developer create project: want 403 got %d", code)
	}

	var task models.Task
	body := map[string]any{"project_id": project.ID, "title": "Header", "hourly_rate": 20, "developer_id": me.ID}
	if code := s.do(http.MethodPost, "/v1/tasks", buyer, body, &task); code != http.StatusCreated {
		t.Fatalf("create task: %d", code)
	}
	if task.Status != models.StatusTodo {
		t.Fatalf("new task status %s", task.Status)
	}

	path := fmt.Sprintf("/v1/tasks/%d", task.ID)
	if code := s.do(http.MethodGet, path, other, nil, nil); code != http.StatusNotFound {
		t.Fatalf("unassigned developer get: want 404 got %d", code)
	}
	if code := s.do(http.MethodPatch, path+"/start", dev, nil, &task); code != http.StatusOK || task.Status != models.StatusInProgress {
		t.Fatalf("start: %d %s", code, task.Status)
	}
	if code := s.do(http.MethodDelete, path, buyer, nil, nil); code != http.StatusConflict {
		t.Fatalf("delete in_progress: want 409 got %d", code)
	}

	if code := s.submit(dev, task.ID, "3", nil); code != http.StatusBadRequest {
		t.Fatalf("submit without file: want 400 got %d", code)
	}
	if code := s.submit(dev, task.ID, "3", bytes.Repeat([]byte("x"), 2<<10)); code != http.StatusBadRequest {
		t.Fatalf("oversized submit: want 400 got %d", code)
	}
	payload := []byte("PK-solution")
	if code := s.submit(dev, task.ID, "3", payload); code != http.StatusOK {
		t.Fatalf("submit: %d", code)
	}

	if code := s.do(http.MethodGet, path+"/download", buyer, nil, nil); code != http.StatusPaymentRequired {
		t.Fatalf("download before pay: want 402 got %d", code)
	}

	var pay struct {
		Message string `json:"message"`
		Amount  string `json:"amount"`
		TaskID  int64  `json:"task_id"`
	}
	if code := s.do(http.MethodPost, "/v1/payments", buyer, map[string]any{"task_id": task.ID}, &pay); code != http.StatusCreated {
		t.Fatalf("pay: %d", code)
	}
	if pay.Amount != "60" || pay.TaskID != task.ID {
		t.Fatalf("unexpected payment %+v", pay)
	}
	if code := s.do(http.MethodPost, "/v1/payments", buyer, map[string]any{"task_id": task.ID}, nil); code != http.StatusConflict {
		t.Fatalf("second pay: want 409 got %d", code)
	}

	var recorded struct {
		Amount string `json:"amount"`
		TaskID int64  `json:"task_id"`
	}
	if code := s.do(http.MethodGet, path+"/payment", dev, nil, &recorded); code != http.StatusOK || recorded.Amount != "60" || recorded.TaskID != task.ID {
		t.Fatalf("task payment: %d %+v", code, recorded)
	}
	if code := s.do(http.MethodGet, path+"/payment", other, nil, nil); code != http.StatusNotFound {
		t.Fatalf("task payment for unassigned developer: want 404 got %d", code)
	}

	req, _ := http.NewRequest(http.MethodGet, s.URL+path+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+buyer)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || !bytes.Equal(got, payload) {
		t.Fatalf("download: %d %q", res.StatusCode, got)
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	if code := s.do(http.MethodGet, "/v1/admin/stats", buyer, nil, nil); code != http.StatusForbidden {
		t.Fatalf("buyer stats: want 403 got %d", code)
	}
	if _, err := s.ids.Provision(context.Background(), "admin@example.com", "pw", models.RoleAdmin); err != nil {
		t.Fatalf("provision admin: %v", err)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "pw"}, &tok)

	var stats map[string]any
	if code := s.do(http.MethodGet, "/v1/admin/stats", tok.AccessToken, nil, &stats); code != http.StatusOK {
		t.Fatalf("stats: %d", code)
	}
	if stats["total_revenue"] != "60" || stats["total_payments_completed"] != float64(1) || stats["total_developers"] != float64(2) {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, p := range []string{"/v1/users/me", "/v1/projects", "/v1/tasks", "/v1/payments", "/v1/admin/stats"} {
		var e struct {
			Error string `json:"error"`
		}
		if code := s.do(http.MethodGet, p, "", nil, &e); code != http.StatusUnauthorized || e.Error == "" {
			t.Fatalf("%s: want 401 with error body, got %d %+v", p, code, e)
		}
	}

	if code := s.do(http.MethodGet, "/health", "", nil, nil); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	buyer := s.signup("b@example.com", models.RoleBuyer)

	var project models.Project
	s.do(http.MethodPost, "/v1/projects", buyer, map[string]string{"title": "P"}, &project)

	cases := []struct {
		name string
		path string
		body any
	}{
		{"EmptyTitle", "/v1/projects", map[string]string{"title": ""}},
		{"ZeroRate", "/v1/tasks", map[string]any{"project_id": project.ID, "title": "T", "hourly_rate": 0}},
		{"RateNotNumber", "/v1/tasks", map[string]any{"project_id": project.ID, "title": "T", "hourly_rate": "lots"}},
		{"PaymentWithoutTask", "/v1/payments", map[string]any{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if code := s.do(http.MethodPost, c.path, buyer, c.body, nil); code != http.StatusBadRequest {
				t.Fatalf("want 400 got %d", code)
			}
		})
	}

	if code := s.do(http.MethodGet, "/v1/projects/999", buyer, nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing project: want 404 got %d", code)
	}
}
