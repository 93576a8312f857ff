package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskhub/internal/middleware"
	"github.com/hitoshi/taskhub/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, name, email, password string) (*model.User, *model.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, *model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockTaskService struct {
	createFn   func(ctx context.Context, userID, title, description string) (*model.Task, error)
	listFn     func(ctx context.Context, userID string) ([]*model.Task, error)
	updateFn   func(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error)
	completeFn func(ctx context.Context, userID, id string, completed bool) (*model.Task, error)
	deleteFn   func(ctx context.Context, userID, id string) error
	countFn    func(ctx context.Context, userID string) (int, error)
}

func (m *mockTaskService) Create(ctx context.Context, userID, title, description string) (*model.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, title, description)
	}
	return &model.Task{}, nil
}

func (m *mockTaskService) List(ctx context.Context, userID string) ([]*model.Task, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []*model.Task{}, nil
}

func (m *mockTaskService) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return &model.Task{}, nil
}

func (m *mockTaskService) Complete(ctx context.Context, userID, id string, completed bool) (*model.Task, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, userID, id, completed)
	}
	return &model.Task{}, nil
}

func (m *mockTaskService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockTaskService) Count(ctx context.Context, userID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID)
	}
	return 0, nil
}

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockMetricsRecorder struct {
	sessionsIssued int
	authFailures   int
	tasksCreated   int
	tasksDeleted   int
}

func (m *mockMetricsRecorder) RecordSessionIssued() { m.sessionsIssued++ }
func (m *mockMetricsRecorder) RecordAuthFailure()   { m.authFailures++ }
func (m *mockMetricsRecorder) RecordTaskCreated()   { m.tasksCreated++ }
func (m *mockMetricsRecorder) RecordTaskDeleted()   { m.tasksDeleted++ }

// --- compile-time interface checks ---
var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ TaskServiceInterface = (*mockTaskService)(nil)
var _ middleware.SessionFinder = (*mockSessionFinder)(nil)
var _ MetricsRecorder = (*mockMetricsRecorder)(nil)

// newTestGateway はテスト用のGatewayを生成する。
func newTestGateway(auth AuthServiceInterface, task TaskServiceInterface, sessions middleware.SessionFinder) *Gateway {
	if auth == nil {
		auth = &mockAuthService{}
	}
	if task == nil {
		task = &mockTaskService{}
	}
	if sessions == nil {
		sessions = &mockSessionFinder{}
	}
	return NewGateway(auth, task, sessions, GatewayConfig{SessionMaxAge: 86400}, nil)
}

// decodeErrorBody はエラーレスポンスのエンベロープをデコードする。
func decodeErrorBody(t *testing.T, body *bytes.Buffer) middleware.ErrorBody {
	t.Helper()
	var resp middleware.ErrorResponseBody
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

// --- テスト ---

func TestHandle_UnknownProcedure_Panics(t *testing.T) {
	g := newTestGateway(nil, nil, nil)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unknown procedure name")
		}
	}()

	g.Handle("task.explode")
}

func TestHandle_AuthRequired_WithoutUserID_Returns401(t *testing.T) {
	g := newTestGateway(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/rpc/task.create", bytes.NewBufferString(`{"title":"x"}`))
	rec := httptest.NewRecorder()

	g.Handle("task.create")(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	errBody := decodeErrorBody(t, rec.Body)
	if errBody.Code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", errBody.Code, model.ErrCodeUnauthorized)
	}
}

func TestHandle_InvalidJSONBody_Returns400(t *testing.T) {
	g := newTestGateway(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/rpc/auth.login", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	g.Handle("auth.login")(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	errBody := decodeErrorBody(t, rec.Body)
	if errBody.Code != model.ErrCodeValidation {
		t.Errorf("error code = %q, want %q", errBody.Code, model.ErrCodeValidation)
	}
}

func TestBatch_ExecutesCallsInOrder(t *testing.T) {
	taskSvc := &mockTaskService{
		createFn: func(ctx context.Context, userID, title, description string) (*model.Task, error) {
			return &model.Task{ID: "task-1", UserID: userID, Title: title}, nil
		},
		countFn: func(ctx context.Context, userID string) (int, error) {
			return 1, nil
		},
	}
	sessions := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	g := newTestGateway(nil, taskSvc, sessions)

	body := `[
		{"procedure": "task.create", "input": {"title": "Buy milk"}},
		{"procedure": "task.getTasksCount"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()

	g.Batch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var results []struct {
		Result json.RawMessage       `json:"result"`
		Error  *middleware.ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	// 1件目: 作成されたタスク
	if results[0].Error != nil {
		t.Errorf("results[0].Error = %+v, want nil", results[0].Error)
	}
	var created model.Task
	if err := json.Unmarshal(results[0].Result, &created); err != nil {
		t.Fatalf("failed to decode created task: %v", err)
	}
	if created.Title != "Buy milk" {
		t.Errorf("created title = %q, want %q", created.Title, "Buy milk")
	}

	// 2件目: タスク数
	var count taskCountResponse
	if err := json.Unmarshal(results[1].Result, &count); err != nil {
		t.Fatalf("failed to decode count: %v", err)
	}
	if count.Count != 1 {
		t.Errorf("count = %d, want 1", count.Count)
	}
}

func TestBatch_PartialFailure_ReturnsPerCallErrors(t *testing.T) {
	sessions := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	g := newTestGateway(nil, nil, sessions)

	body := `[
		{"procedure": "task.getTasksCount"},
		{"procedure": "nonexistent.procedure"},
		{"procedure": "task.create", "input": {"title": ""}}
	]`
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()

	g.Batch(rec, req)

	// 個別の失敗があってもバッチ全体は200
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var results []batchResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if results[0].Error != nil {
		t.Errorf("results[0].Error = %+v, want nil", results[0].Error)
	}
	if results[1].Error == nil || results[1].Error.Code != model.ErrCodeNotFound {
		t.Errorf("results[1].Error = %+v, want NOT_FOUND", results[1].Error)
	}
	if results[2].Error == nil || results[2].Error.Code != model.ErrCodeValidation {
		t.Errorf("results[2].Error = %+v, want VALIDATION_ERROR", results[2].Error)
	}
}

func TestBatch_WithoutSession_AuthRequiredCallsFail(t *testing.T) {
	g := newTestGateway(nil, nil, nil)

	body := `[{"procedure": "task.getTasksCount"}]`
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	g.Batch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var results []batchResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Error == nil || results[0].Error.Code != model.ErrCodeUnauthorized {
		t.Errorf("results[0].Error = %+v, want UNAUTHORIZED", results[0].Error)
	}
}

func TestBatch_NonArrayBody_Returns400(t *testing.T) {
	g := newTestGateway(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(`{"procedure": "task.create"}`))
	rec := httptest.NewRecorder()

	g.Batch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReadInput_EmptyBody_ReturnsEmptyObject(t *testing.T) {
	input, err := readInput(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if string(input) != "{}" {
		t.Errorf("input = %q, want %q", string(input), "{}")
	}
}

func TestReadInput_InvalidJSON_ReturnsError(t *testing.T) {
	_, err := readInput(bytes.NewBufferString(`{broken`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
