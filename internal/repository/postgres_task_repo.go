package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskhub/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// すべてのクエリはuser_idでスコープされ、所有者以外の行には触れない。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Description, task.Completed,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindByIDAndOwner は指定IDかつ指定所有者のタスクを取得する。
// 存在しない、または所有者が異なる場合はnilを返す。
func (r *PostgresTaskRepo) FindByIDAndOwner(ctx context.Context, id, userID string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, completed, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed,
		&task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// ListByOwner は所有者のタスク一覧を作成日時昇順（同時刻はID昇順）で返す。
// 順序を決定的にするためIDを第2ソートキーにする。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, completed, created_at, updated_at
		 FROM tasks WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
			&task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateByIDAndOwner はタスクを単一のUPDATE文で部分更新し、更新後のタスクを返す。
// nilのフィールドはCOALESCEにより現在値を維持する。同一タスクへの同時更新は
// last-write-winsとなる（行単位の原子性のみに依存する）。
// 対象が存在しないか所有者が異なる場合はnilを返す。
func (r *PostgresTaskRepo) UpdateByIDAndOwner(ctx context.Context, id, userID string, patch model.TaskPatch) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title       = COALESCE($3, title),
		     description = COALESCE($4, description),
		     completed   = COALESCE($5, completed),
		     updated_at  = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, description, completed, created_at, updated_at`,
		id, userID, patch.Title, patch.Description, patch.Completed,
	).Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed,
		&task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteByIDAndOwner はタスクを削除し、削除できたかどうかを返す。
func (r *PostgresTaskRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByOwner は所有者のタスク数を返す。
func (r *PostgresTaskRepo) CountByOwner(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
