package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task_service/internal/auth"
	"task_service/internal/models"
	"task_service/internal/service"
	"task_service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	testPassword = "Passw0rd"
	adminEmail   = "root@example.com"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     "handler-test-secret",
		Algorithm:  "HS256",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	lgr := slog.New(slog.NewTextHandler(io.Discard, nil))
	srvc := service.NewService(storage.NewMemoryStorage(), tokens, lgr)

	if _, err := srvc.EnsureAdmin(context.Background(), "Root", adminEmail, testPassword); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	return NewHandler(srvc, lgr).InitRoutes()
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, status, w.Body.String())
	}
}

func wantMessage(t *testing.T, w *httptest.ResponseRecorder, msg string) {
	t.Helper()

	if got := decode[errorResponse](t, w).Message; got != msg {
		t.Errorf("message = %q, want %q", got, msg)
	}
}

// signup registers a user and returns it with an access token.
func signup(t *testing.T, r http.Handler, name, email string) (models.User, string) {
	t.Helper()

	w := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": name, "email": email, "password": testPassword})
	wantStatus(t, w, http.StatusCreated)

	return decode[models.User](t, w), login(t, r, email)
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()

	w := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": testPassword})
	wantStatus(t, w, http.StatusOK)

	return decode[models.TokenPair](t, w).AccessToken
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	wantStatus(t, w, http.StatusOK)

	if got := decode[map[string]string](t, w)["status"]; got != "healthy" {
		t.Errorf("status = %q, want healthy", got)
	}
}

func TestRegister(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Alice", "email": "alice@example.com", "password": testPassword, "role": "admin",
	})
	wantStatus(t, w, http.StatusCreated)

	body := decode[map[string]any](t, w)
	if body["role"] != string(models.RoleUser) {
		t.Errorf("role = %v, registration must not grant admin", body["role"])
	}
	if _, ok := body["password_hash"]; ok {
		t.Error("response must not contain the password hash")
	}

	w = do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Alice", "email": "alice@example.com", "password": testPassword})
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "email already registered")

	w = do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bob@example.com"})
	wantStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Bob", "email": "bob@example.com", "password": "short"})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestLoginAndRefresh(t *testing.T) {
	r := newTestRouter(t)
	signup(t, r, "Alice", "alice@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "Wr0ngpass"})
	wantStatus(t, w, http.StatusUnauthorized)
	wantMessage(t, w, "invalid email or password")

	w = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": testPassword})
	wantStatus(t, w, http.StatusOK)
	pair := decode[models.TokenPair](t, w)
	if pair.TokenType != "bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	w = do(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	wantStatus(t, w, http.StatusOK)
	if decode[models.TokenPair](t, w).User.Email != "alice@example.com" {
		t.Error("refresh should return the user")
	}

	w = do(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": pair.AccessToken})
	wantStatus(t, w, http.StatusUnauthorized)
	wantMessage(t, w, "invalid or expired refresh token")

	w = do(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(t)
	user, token := signup(t, r, "Alice", "alice@example.com")

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "empty authorization header"},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized, "invalid authorization header"},
		{"no token", "Bearer ", http.StatusUnauthorized, "invalid authorization header"},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
		{"valid", "Bearer " + token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			wantStatus(t, w, tt.status)
			if tt.msg != "" {
				wantMessage(t, w, tt.msg)
				return
			}
			if got := decode[models.User](t, w); got.ID != user.ID {
				t.Errorf("me = %s, want %s", got.ID, user.ID)
			}
		})
	}

	w := do(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[messageResponse](t, w).Message; got != "successfully logged out" {
		t.Errorf("logout message = %q", got)
	}
}

func TestTaskLifecycle(t *testing.T) {
	r := newTestRouter(t)
	_, aliceToken := signup(t, r, "Alice", "alice@example.com")
	bob, bobToken := signup(t, r, "Bob", "bob@example.com")
	_, carolToken := signup(t, r, "Carol", "carol@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/tasks", aliceToken, gin.H{
		"title": "write report", "priority": "high", "assigned_to": bob.ID.String(),
	})
	wantStatus(t, w, http.StatusCreated)
	task := decode[models.Task](t, w)
	if task.Status != models.StatusPending || task.Priority != models.PriorityHigh {
		t.Errorf("unexpected task: %+v", task)
	}
	path := "/api/v1/tasks/" + task.ID.String()

	w = do(t, r, http.MethodPost, "/api/v1/tasks", aliceToken, gin.H{"title": ""})
	wantStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodGet, path, bobToken, nil)
	wantStatus(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, path, carolToken, nil)
	wantStatus(t, w, http.StatusForbidden)
	wantMessage(t, w, "not authorized to access this task")

	w = do(t, r, http.MethodGet, "/api/v1/tasks/"+uuid.Must(uuid.NewV4()).String(), carolToken, nil)
	wantStatus(t, w, http.StatusNotFound)
	wantMessage(t, w, "task not found")

	w = do(t, r, http.MethodGet, "/api/v1/tasks/not-a-uuid", aliceToken, nil)
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "invalid task id")

	w = do(t, r, http.MethodPut, path, bobToken, gin.H{"status": "in_progress"})
	wantStatus(t, w, http.StatusOK)
	if got := decode[models.Task](t, w).Status; got != models.StatusInProgress {
		t.Errorf("status = %q, want in_progress", got)
	}

	w = do(t, r, http.MethodPut, path, bobToken, gin.H{"title": "mine now"})
	wantStatus(t, w, http.StatusForbidden)
	wantMessage(t, w, "assignee can only update status")

	w = do(t, r, http.MethodPut, path, aliceToken, gin.H{"description": "details", "due_date": "2030-06-01T12:00:00Z"})
	wantStatus(t, w, http.StatusOK)
	updated := decode[models.Task](t, w)
	if updated.Description == nil || *updated.Description != "details" || updated.DueDate == nil {
		t.Errorf("unexpected task after update: %+v", updated)
	}

	w = do(t, r, http.MethodPut, path, aliceToken, gin.H{"title": nil})
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "title cannot be null")

	w = do(t, r, http.MethodGet, "/api/v1/tasks?search=REPORT", bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[[]models.Task](t, w); len(got) != 1 {
		t.Errorf("bob sees %d tasks, want 1", len(got))
	}

	w = do(t, r, http.MethodGet, "/api/v1/tasks", carolToken, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[[]models.Task](t, w); len(got) != 0 {
		t.Errorf("carol sees %d tasks, want 0", len(got))
	}

	w = do(t, r, http.MethodGet, "/api/v1/tasks?status=done", aliceToken, nil)
	wantStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodGet, "/api/v1/tasks/statistics", aliceToken, nil)
	wantStatus(t, w, http.StatusOK)
	stats := decode[models.TaskStatistics](t, w)
	if stats.TotalTasks != 1 || stats.InProgressTasks != 1 || stats.HighPriority != 1 {
		t.Errorf("unexpected statistics: %+v", stats)
	}

	w = do(t, r, http.MethodDelete, path, bobToken, nil)
	wantStatus(t, w, http.StatusForbidden)

	w = do(t, r, http.MethodDelete, path, aliceToken, nil)
	wantStatus(t, w, http.StatusNoContent)

	w = do(t, r, http.MethodDelete, path, aliceToken, nil)
	wantStatus(t, w, http.StatusNotFound)
}

func TestTasksRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/tasks/statistics"},
		{http.MethodDelete, "/api/v1/tasks/" + uuid.Must(uuid.NewV4()).String()},
		{http.MethodGet, "/api/v1/admin/users"},
	} {
		w := do(t, r, route.method, route.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", route.method, route.path, w.Code)
		}
	}
}

func TestAdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	adminToken := login(t, r, adminEmail)
	alice, aliceToken := signup(t, r, "Alice", "alice@example.com")
	bob, bobToken := signup(t, r, "Bob", "bob@example.com")

	w := do(t, r, http.MethodGet, "/api/v1/admin/users", aliceToken, nil)
	wantStatus(t, w, http.StatusForbidden)
	wantMessage(t, w, "admin access required")

	w = do(t, r, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[[]models.User](t, w); len(got) != 3 {
		t.Errorf("listed %d users, want 3", len(got))
	}

	w = do(t, r, http.MethodGet, "/api/v1/auth/me", adminToken, nil)
	wantStatus(t, w, http.StatusOK)
	admin := decode[models.User](t, w)

	w = do(t, r, http.MethodPut, "/api/v1/admin/users/"+admin.ID.String()+"/role", adminToken, gin.H{"role": "user"})
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "cannot change own role")

	w = do(t, r, http.MethodPut, "/api/v1/admin/users/"+alice.ID.String()+"/role", aliceToken, gin.H{"role": "admin"})
	wantStatus(t, w, http.StatusForbidden)

	w = do(t, r, http.MethodPut, "/api/v1/admin/users/"+alice.ID.String()+"/role", adminToken, gin.H{"role": "owner"})
	wantStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPut, "/api/v1/admin/users/"+alice.ID.String()+"/role", adminToken, gin.H{})
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "role is required")

	w = do(t, r, http.MethodPut, "/api/v1/admin/users/"+alice.ID.String()+"/role", adminToken, gin.H{"role": "admin"})
	wantStatus(t, w, http.StatusOK)
	if got := decode[models.User](t, w).Role; got != models.RoleAdmin {
		t.Errorf("role = %q, want admin", got)
	}

	// Role changes take effect on the next request with the same token.
	w = do(t, r, http.MethodGet, "/api/v1/admin/users", aliceToken, nil)
	wantStatus(t, w, http.StatusOK)

	w = do(t, r, http.MethodDelete, "/api/v1/admin/users/"+admin.ID.String(), adminToken, nil)
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "cannot delete self")

	w = do(t, r, http.MethodDelete, "/api/v1/admin/users/"+uuid.Must(uuid.NewV4()).String(), adminToken, nil)
	wantStatus(t, w, http.StatusNotFound)

	w = do(t, r, http.MethodDelete, "/api/v1/admin/users/bad-id", adminToken, nil)
	wantStatus(t, w, http.StatusBadRequest)
	wantMessage(t, w, "invalid user id")

	w = do(t, r, http.MethodDelete, "/api/v1/admin/users/"+bob.ID.String(), adminToken, nil)
	wantStatus(t, w, http.StatusNoContent)

	// A deleted user's token no longer authenticates.
	w = do(t, r, http.MethodGet, "/api/v1/auth/me", bobToken, nil)
	wantStatus(t, w, http.StatusUnauthorized)
}
