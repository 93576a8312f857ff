// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントへ公開するコードとメッセージ、ログ分類用のカテゴリを持つ。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
	}
}

// NewEmailConflictError はメールアドレス重複エラーを生成する。
func NewEmailConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
	}
}

// NewAuthenticationError は認証失敗エラーを生成する。
// メールアドレス不明とパスワード不一致の区別をクライアントへ漏らさないため、
// どちらの場合も必ずこのエラーを使用すること。
func NewAuthenticationError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthentication,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。ログインしてください。",
		Category: "auth",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザー所有のタスクも存在しないタスクと同一に扱い、存在を確認させない。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。しばらく待ってから再度お試しください。",
		Category: "system",
	}
}
