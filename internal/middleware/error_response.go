package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskhub/internal/model"
)

// ErrorBody はクライアントへ公開するエラー内容。
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// すべてのエンドポイントがこのエンベロープでエラーを返す。
type ErrorResponseBody struct {
	Error ErrorBody `json:"error"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error: ErrorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
