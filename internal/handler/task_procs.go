package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskhub/internal/model"
)

// TaskServiceInterface はタスクプロシージャが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Create(ctx context.Context, userID, title, description string) (*model.Task, error)
	List(ctx context.Context, userID string) ([]*model.Task, error)
	Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error)
	Complete(ctx context.Context, userID, id string, completed bool) (*model.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int, error)
}

// taskCreateRequest は task.create の入力。descriptionは省略可能。
type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// taskUpdateRequest は task.update の入力。nilフィールドは変更しない。
type taskUpdateRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// taskCompleteRequest は task.complete の入力。
type taskCompleteRequest struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// taskIDRequest はタスクIDのみを取る入力。
type taskIDRequest struct {
	ID string `json:"id"`
}

// taskCountResponse は task.getTasksCount の出力。
type taskCountResponse struct {
	Count int `json:"count"`
}

// procTaskCreate は task.create を処理する。
func (g *Gateway) procTaskCreate(_ http.ResponseWriter, r *http.Request, userID string, input json.RawMessage) (any, *model.APIError) {
	var req taskCreateRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if apiErr := validateTitle(req.Title); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateDescription(req.Description); apiErr != nil {
		return nil, apiErr
	}

	task, err := g.task.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		return nil, toAPIError(err)
	}

	if g.metrics != nil {
		g.metrics.RecordTaskCreated()
	}

	return task, nil
}

// procTaskList は task.getAll / task.list を処理する。
// 作成日時昇順の有限な一覧を返す。
func (g *Gateway) procTaskList(_ http.ResponseWriter, r *http.Request, userID string, _ json.RawMessage) (any, *model.APIError) {
	tasks, err := g.task.List(r.Context(), userID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return tasks, nil
}

// procTaskCount は task.getTasksCount を処理する。
func (g *Gateway) procTaskCount(_ http.ResponseWriter, r *http.Request, userID string, _ json.RawMessage) (any, *model.APIError) {
	count, err := g.task.Count(r.Context(), userID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return taskCountResponse{Count: count}, nil
}

// procTaskUpdate は task.update を処理する。
// 指定されたフィールドのみを検証・更新する。
func (g *Gateway) procTaskUpdate(_ http.ResponseWriter, r *http.Request, userID string, input json.RawMessage) (any, *model.APIError) {
	var req taskUpdateRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if req.ID == "" {
		return nil, model.NewValidationError("タスクIDを指定してください。")
	}

	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if patch.IsEmpty() {
		return nil, model.NewValidationError("更新対象のフィールドを1つ以上指定してください。")
	}

	if patch.Title != nil {
		if apiErr := validateTitle(*patch.Title); apiErr != nil {
			return nil, apiErr
		}
	}
	if patch.Description != nil {
		if apiErr := validateDescription(*patch.Description); apiErr != nil {
			return nil, apiErr
		}
	}

	task, err := g.task.Update(r.Context(), userID, req.ID, patch)
	if err != nil {
		return nil, toAPIError(err)
	}

	return task, nil
}

// procTaskComplete は task.complete を処理する。
func (g *Gateway) procTaskComplete(_ http.ResponseWriter, r *http.Request, userID string, input json.RawMessage) (any, *model.APIError) {
	var req taskCompleteRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if req.ID == "" {
		return nil, model.NewValidationError("タスクIDを指定してください。")
	}

	task, err := g.task.Complete(r.Context(), userID, req.ID, req.Completed)
	if err != nil {
		return nil, toAPIError(err)
	}

	return task, nil
}

// procTaskDelete は task.delete を処理する。
// 同じIDを二度削除すると二度目はNOT_FOUNDになる。
func (g *Gateway) procTaskDelete(_ http.ResponseWriter, r *http.Request, userID string, input json.RawMessage) (any, *model.APIError) {
	var req taskIDRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if req.ID == "" {
		return nil, model.NewValidationError("タスクIDを指定してください。")
	}

	if err := g.task.Delete(r.Context(), userID, req.ID); err != nil {
		return nil, toAPIError(err)
	}

	if g.metrics != nil {
		g.metrics.RecordTaskDeleted()
	}

	return struct{}{}, nil
}
