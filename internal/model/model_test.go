package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestUserPublic_OmitsPasswordHash(t *testing.T) {
	user := &User{
		ID:           "user-1",
		Name:         "Ann Smith",
		Email:        "ann@example.com",
		PasswordHash: "$2a$10$secret-hash",
	}

	data, err := json.Marshal(user.Public())
	if err != nil {
		t.Fatalf("failed to marshal public user: %v", err)
	}

	body := string(data)
	if strings.Contains(body, "secret-hash") {
		t.Errorf("public user must not contain the password hash: %s", body)
	}
	if !strings.Contains(body, `"id":"user-1"`) {
		t.Errorf("public user missing id: %s", body)
	}
	if !strings.Contains(body, `"email":"ann@example.com"`) {
		t.Errorf("public user missing email: %s", body)
	}
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	if !(TaskPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}

	title := "x"
	if (TaskPatch{Title: &title}).IsEmpty() {
		t.Error("patch with title should not be empty")
	}

	completed := false
	// falseへの更新も有効な変更として扱う
	if (TaskPatch{Completed: &completed}).IsEmpty() {
		t.Error("patch with completed=false should not be empty")
	}
}

func TestAPIError_ImplementsError(t *testing.T) {
	apiErr := NewTaskNotFoundError("task-1")

	var err error = apiErr
	var target *APIError
	if !errors.As(err, &target) {
		t.Fatal("errors.As should match *APIError")
	}
	if target.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", target.Code, ErrCodeNotFound)
	}
	if !strings.Contains(err.Error(), ErrCodeNotFound) {
		t.Errorf("Error() = %q, should contain code", err.Error())
	}
}

func TestNewAuthenticationError_IsStable(t *testing.T) {
	// ユーザー不明とパスワード不一致で同一メッセージを返すため、
	// このコンストラクタの出力は常に同一でなければならない
	e1 := NewAuthenticationError()
	e2 := NewAuthenticationError()
	if e1.Message != e2.Message || e1.Code != e2.Code {
		t.Error("authentication errors must be identical")
	}
}
