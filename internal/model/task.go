package model

import "time"

// Task はユーザーが所有するタスクを表す。
// 所有者以外からの参照・更新・削除は許可されない。
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPatch はタスクの部分更新を表す。
// nilフィールドは変更しない。
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// IsEmpty は更新対象フィールドが1つも指定されていない場合にtrueを返す。
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}
