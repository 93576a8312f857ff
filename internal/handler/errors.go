package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskhub/internal/model"
)

// toAPIError はエラーをクライアント公開可能なAPIErrorに変換する。
// APIError以外のエラーは詳細をログのみに残し、クライアントには一般的な
// INTERNAL_ERRORを返す。
func toAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	return model.NewInternalError()
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeAuthentication, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
