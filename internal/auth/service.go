// Package auth はパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskhub/internal/model"
	"github.com/hitoshi/taskhub/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // bcryptコストファクタ（10以上）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
// BcryptCostが未指定（0以下）の場合はbcrypt.DefaultCostを使用する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	if config.BcryptCost <= 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Register は新規ユーザーを登録し、セッションを発行する。
// 入力のスキーマ検証はゲートウェイで完了している前提で、ここでは
// メールアドレスの一意性のみを検証する。重複時はConflictエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, *model.Session, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailConflictError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 事前チェックとINSERTの間に同じメールで登録された場合
		if err == repository.ErrDuplicateEmail {
			return nil, nil, model.NewEmailConflictError()
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザー不明とパスワード不一致は区別せず、同一の認証エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewAuthenticationError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewAuthenticationError()
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// Logout はセッションを破棄する。冪等であり、セッションIDが空または
// 既に存在しない場合もエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションIDから現在のユーザーを取得する。
// セッションが無効・期限切れの場合はnilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// issueSession はセッションを作成し永続化する。
// 同一ユーザーの既存セッションを先に破棄する（last-login-wins）。
func (s *Service) issueSession(ctx context.Context, userID string) (*model.Session, error) {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to revoke previous sessions: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
