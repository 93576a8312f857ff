package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskhub/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがこれを満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	CSRFEnabled       bool
	HTTPMetrics       middleware.HTTPRecorder

	// サービス
	AuthService AuthServiceInterface
	TaskService TaskServiceInterface

	// ゲートウェイ設定・メトリクス
	GatewayConfig  GatewayConfig
	DomainMetrics  MetricsRecorder
	MetricsHandler http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全プロシージャのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (CSRF) → Session → RateLimit
//
// 認証プロシージャ（auth.*）はSessionMiddlewareの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	g := NewGateway(deps.AuthService, deps.TaskService, deps.SessionFinder, deps.GatewayConfig, deps.DomainMetrics)

	// --- 運用系エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- RPCエンドポイント ---

	r.Route("/rpc", func(r chi.Router) {
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		}

		// 認証プロシージャ（未認証で呼び出し可能、IP単位のレート制限）
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.AuthMiddleware())
			}
			r.Post("/auth.register", g.Handle("auth.register"))
			r.Post("/auth.login", g.Handle("auth.login"))
		})

		// ログアウトは冪等のため、セッションの有無にかかわらず受け付ける
		r.Post("/auth.logout", g.Handle("auth.logout"))

		// タスクプロシージャ（要認証、ユーザー単位のレート制限）
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.GeneralMiddleware())
			}
			r.Post("/task.create", g.Handle("task.create"))
			r.Post("/task.getAll", g.Handle("task.getAll"))
			r.Post("/task.list", g.Handle("task.list"))
			r.Post("/task.getTasksCount", g.Handle("task.getTasksCount"))
			r.Post("/task.update", g.Handle("task.update"))
			r.Post("/task.complete", g.Handle("task.complete"))
			r.Post("/task.delete", g.Handle("task.delete"))
		})

		// バッチ呼び出し（セッション解決はゲートウェイ内で行う）
		r.Post("/", g.Batch)
	})

	return r
}
