package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskhub/internal/middleware"
	"github.com/hitoshi/taskhub/internal/model"
)

// AuthServiceInterface は認証プロシージャが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*model.User, *model.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// registerRequest は auth.register の入力。
type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// loginRequest は auth.login の入力。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は auth.register / auth.login の出力。
type authResponse struct {
	User model.PublicUser `json:"user"`
}

// procRegister は auth.register を処理する。
// 入力検証 → ユーザー作成 → セッション発行 → セッションCookie設定。
func (g *Gateway) procRegister(w http.ResponseWriter, r *http.Request, _ string, input json.RawMessage) (any, *model.APIError) {
	var req registerRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if apiErr := validateName(req.Name); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateEmail(req.Email); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validatePassword(req.Password); apiErr != nil {
		return nil, apiErr
	}
	if req.Password != req.ConfirmPassword {
		return nil, model.NewValidationError("確認用パスワードが一致しません。")
	}

	user, session, err := g.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return nil, toAPIError(err)
	}

	g.setSessionCookie(w, session)
	g.recordSessionIssued()

	return authResponse{User: user.Public()}, nil
}

// procLogin は auth.login を処理する。
// ユーザー不明とパスワード不一致は同一のエラーとしてクライアントへ返る。
func (g *Gateway) procLogin(w http.ResponseWriter, r *http.Request, _ string, input json.RawMessage) (any, *model.APIError) {
	var req loginRequest
	if apiErr := decodeInput(input, &req); apiErr != nil {
		return nil, apiErr
	}

	if apiErr := validateEmail(req.Email); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validatePassword(req.Password); apiErr != nil {
		return nil, apiErr
	}

	user, session, err := g.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apiErr := toAPIError(err)
		if apiErr.Code == model.ErrCodeAuthentication {
			g.recordAuthFailure()
		}
		return nil, apiErr
	}

	g.setSessionCookie(w, session)
	g.recordSessionIssued()

	return authResponse{User: user.Public()}, nil
}

// procLogout は auth.logout を処理する。冪等であり、セッションCookieが
// ない場合やセッションが既に破棄されている場合も成功を返す。
func (g *Gateway) procLogout(w http.ResponseWriter, r *http.Request, _ string, _ json.RawMessage) (any, *model.APIError) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := g.auth.Logout(r.Context(), cookie.Value); logoutErr != nil {
			return nil, toAPIError(logoutErr)
		}
	}

	g.clearSessionCookie(w)

	return struct{}{}, nil
}

// setSessionCookie はセッションCookieを設定する。
// httpOnly、本番ではSecure、SameSite=Strict、アプリ全体にパススコープ。
func (g *Gateway) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   g.config.CookieDomain,
		MaxAge:   g.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   g.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie はセッションCookieを無効化する。
func (g *Gateway) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   g.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// recordSessionIssued はメトリクスが設定されている場合にセッション発行を記録する。
func (g *Gateway) recordSessionIssued() {
	if g.metrics != nil {
		g.metrics.RecordSessionIssued()
	}
}

// recordAuthFailure はメトリクスが設定されている場合に認証失敗を記録する。
func (g *Gateway) recordAuthFailure() {
	if g.metrics != nil {
		g.metrics.RecordAuthFailure()
	}
}
