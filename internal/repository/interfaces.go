// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskhub/internal/model"
)

// ErrDuplicateEmail は登録済みメールアドレスでユーザーを作成しようとした場合に返される。
// メールアドレスの一意性はDBのユニークインデックスで担保される。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。
	// 比較は大文字小文字を区別しない。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。
	// 期限切れまたは存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての読み書きは所有ユーザーのスコープ内で行われる。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// FindByIDAndOwner は指定IDかつ指定所有者のタスクを取得する。
	// 存在しない、または所有者が異なる場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, id, userID string) (*model.Task, error)

	// ListByOwner は所有者のタスク一覧を作成日時昇順（同時刻はID昇順）で返す。
	ListByOwner(ctx context.Context, userID string) ([]*model.Task, error)

	// UpdateByIDAndOwner はタスクを単一のUPDATE文で部分更新し、更新後のタスクを返す。
	// nilフィールドは変更しない。対象が存在しないか所有者が異なる場合はnilを返す。
	UpdateByIDAndOwner(ctx context.Context, id, userID string, patch model.TaskPatch) (*model.Task, error)

	// DeleteByIDAndOwner はタスクを削除し、削除できたかどうかを返す。
	// 対象が存在しないか所有者が異なる場合は(false, nil)を返す。
	DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error)

	// CountByOwner は所有者のタスク数を返す。
	CountByOwner(ctx context.Context, userID string) (int, error)
}
