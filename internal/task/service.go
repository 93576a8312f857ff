// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskhub/internal/model"
	"github.com/hitoshi/taskhub/internal/repository"
)

// Service はタスクCRUDのサービス層。
// すべての操作は呼び出しユーザーの所有スコープ内で実行される。
// 他ユーザー所有のタスクは存在しないタスクとして扱い、NOT_FOUNDを返す。
type Service struct {
	taskRepo repository.TaskRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(taskRepo repository.TaskRepository) *Service {
	return &Service{taskRepo: taskRepo}
}

// Create はタスクを作成する。completedは常にfalseで初期化される。
func (s *Service) Create(ctx context.Context, userID, title, description string) (*model.Task, error) {
	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// List は呼び出しユーザーのタスク一覧を作成日時昇順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update はタスクを部分更新する。nilフィールドは変更しない。
// 対象が存在しないか所有者が異なる場合はNOT_FOUNDエラーを返す。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.taskRepo.UpdateByIDAndOwner(ctx, id, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(id)
	}
	return task, nil
}

// Complete はタスクの完了フラグを設定する。
func (s *Service) Complete(ctx context.Context, userID, id string, completed bool) (*model.Task, error) {
	return s.Update(ctx, userID, id, model.TaskPatch{Completed: &completed})
}

// Delete はタスクを削除する。
// 対象が存在しないか所有者が異なる場合はNOT_FOUNDエラーを返す。
// 同じIDを二度削除すると二度目はNOT_FOUNDになる。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.taskRepo.DeleteByIDAndOwner(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(id)
	}
	return nil
}

// Count は呼び出しユーザーのタスク数を返す。
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	count, err := s.taskRepo.CountByOwner(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}
