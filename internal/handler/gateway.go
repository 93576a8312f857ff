// Package handler はRPCゲートウェイのHTTPハンドラーを提供する。
//
// すべての操作は POST /rpc/<procedure> の名前付きプロシージャとして公開され、
// POST /rpc ではバッチ呼び出し（JSON配列）を受け付ける。
// 入力のスキーマ検証はこの層で1回だけ行い、サービス層には検証済みの値のみを渡す。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hitoshi/taskhub/internal/middleware"
	"github.com/hitoshi/taskhub/internal/model"
)

// MetricsRecorder はゲートウェイが記録するドメインメトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。nilの場合は何も記録しない。
type MetricsRecorder interface {
	RecordSessionIssued()
	RecordAuthFailure()
	RecordTaskCreated()
	RecordTaskDeleted()
}

// GatewayConfig はゲートウェイの設定。
type GatewayConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// Gateway は全プロシージャのルーティングと入出力変換を担うRPCゲートウェイ。
// 呼び出し間で状態を持たない。
type Gateway struct {
	auth     AuthServiceInterface
	task     TaskServiceInterface
	sessions middleware.SessionFinder
	config   GatewayConfig
	metrics  MetricsRecorder

	procedures map[string]procedure
}

// procedure は名前付きプロシージャの実装と認証要否を表す。
type procedure struct {
	fn           procFunc
	requiresAuth bool
}

// procFunc はプロシージャ本体。userIDは認証済みの場合のみ非空。
// 戻り値はJSONエンコード可能な結果、またはクライアント公開用エラー。
type procFunc func(w http.ResponseWriter, r *http.Request, userID string, input json.RawMessage) (any, *model.APIError)

// NewGateway はGatewayを生成し、プロシージャテーブルを構築する。
func NewGateway(
	auth AuthServiceInterface,
	task TaskServiceInterface,
	sessions middleware.SessionFinder,
	config GatewayConfig,
	rec MetricsRecorder,
) *Gateway {
	g := &Gateway{
		auth:     auth,
		task:     task,
		sessions: sessions,
		config:   config,
		metrics:  rec,
	}

	g.procedures = map[string]procedure{
		"auth.register":      {fn: g.procRegister},
		"auth.login":         {fn: g.procLogin},
		"auth.logout":        {fn: g.procLogout},
		"task.create":        {fn: g.procTaskCreate, requiresAuth: true},
		"task.getAll":        {fn: g.procTaskList, requiresAuth: true},
		"task.list":          {fn: g.procTaskList, requiresAuth: true}, // getAllの別名
		"task.getTasksCount": {fn: g.procTaskCount, requiresAuth: true},
		"task.update":        {fn: g.procTaskUpdate, requiresAuth: true},
		"task.complete":      {fn: g.procTaskComplete, requiresAuth: true},
		"task.delete":        {fn: g.procTaskDelete, requiresAuth: true},
	}

	return g
}

// Handle は指定された名前のプロシージャを実行するhttp.HandlerFuncを返す。
// 認証必須プロシージャはSessionMiddleware配下に配置される前提だが、
// コンテキストにユーザーIDがない場合はここでもUNAUTHORIZEDを返す。
func (g *Gateway) Handle(name string) http.HandlerFunc {
	proc, ok := g.procedures[name]
	if !ok {
		// ルーティング構築時のプログラミングエラー
		panic("handler: unknown procedure " + name)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		if proc.requiresAuth && userID == "" {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}

		input, err := readInput(r.Body)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("リクエストボディの解析に失敗しました。"))
			return
		}

		result, apiErr := proc.fn(w, r, userID, input)
		if apiErr != nil {
			middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}

		writeJSON(w, result)
	}
}

// batchCall はバッチ呼び出しの1要素。
type batchCall struct {
	Procedure string          `json:"procedure"`
	Input     json.RawMessage `json:"input"`
}

// batchResult はバッチ呼び出し1件分の結果。結果かエラーのどちらかを持つ。
type batchResult struct {
	Result any                   `json:"result,omitempty"`
	Error  *middleware.ErrorBody `json:"error,omitempty"`
}

// Batch はバッチ呼び出しを処理する。
// POST /rpc にJSON配列 [{"procedure": ..., "input": ...}, ...] を受け取り、
// 各呼び出しを順番に実行して結果の配列を返す。
// 個々の呼び出しの失敗はその要素のエラーとして返し、バッチ全体は200で応答する。
func (g *Gateway) Batch(w http.ResponseWriter, r *http.Request) {
	var calls []batchCall
	if err := json.NewDecoder(r.Body).Decode(&calls); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	// セッションはバッチ全体で1回だけ解決する
	userID := g.resolveSession(r)

	results := make([]batchResult, len(calls))
	for i, call := range calls {
		results[i] = g.dispatch(w, r, userID, call)
	}

	writeJSON(w, results)
}

// dispatch はバッチ内の1呼び出しを実行する。
func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request, userID string, call batchCall) batchResult {
	proc, ok := g.procedures[call.Procedure]
	if !ok {
		return batchResult{Error: &middleware.ErrorBody{
			Code:    model.ErrCodeNotFound,
			Message: "指定されたプロシージャが見つかりません: " + call.Procedure,
		}}
	}

	if proc.requiresAuth && userID == "" {
		apiErr := model.NewUnauthorizedError()
		return batchResult{Error: &middleware.ErrorBody{Code: apiErr.Code, Message: apiErr.Message}}
	}

	input := call.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	result, apiErr := proc.fn(w, r, userID, input)
	if apiErr != nil {
		return batchResult{Error: &middleware.ErrorBody{Code: apiErr.Code, Message: apiErr.Message}}
	}

	return batchResult{Result: result}
}

// resolveSession はセッションCookieからユーザーIDを解決する。
// Cookieがない・セッションが無効な場合は空文字を返す。
func (g *Gateway) resolveSession(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	session, err := g.sessions.FindByID(r.Context(), cookie.Value)
	if err != nil || session == nil {
		return ""
	}

	return session.UserID
}

// readInput はリクエストボディを読み取る。空ボディは空オブジェクトとして扱う。
func readInput(body io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON body")
	}
	return json.RawMessage(data), nil
}

// writeJSON は結果をJSONで書き込む。
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// decodeInput は入力JSONを型付きリクエスト構造体にデコードする。
func decodeInput(input json.RawMessage, v any) *model.APIError {
	if err := json.Unmarshal(input, v); err != nil {
		return model.NewValidationError("リクエストボディの解析に失敗しました。")
	}
	return nil
}
