package handler

import (
	"regexp"
	"unicode/utf8"

	"github.com/hitoshi/taskhub/internal/model"
)

// 入力検証はゲートウェイ境界で1回だけ行う。
// ここを通過した値はサービス層で再検証しない。
const (
	nameMinLen        = 3
	nameMaxLen        = 50
	emailMaxLen       = 100
	passwordMinLen    = 8
	passwordMaxLen    = 32
	titleMaxLen       = 100
	descriptionMaxLen = 1000
)

// emailRegexp はメールアドレス形式の検証パターン。
var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// validateName はユーザー名の長さを検証する。
func validateName(name string) *model.APIError {
	n := utf8.RuneCountInString(name)
	if n < nameMinLen || n > nameMaxLen {
		return model.NewValidationError("名前は3文字以上50文字以下で入力してください。")
	}
	return nil
}

// validateEmail はメールアドレスの形式と長さを検証する。
func validateEmail(email string) *model.APIError {
	if email == "" {
		return model.NewValidationError("メールアドレスを入力してください。")
	}
	if utf8.RuneCountInString(email) > emailMaxLen {
		return model.NewValidationError("メールアドレスは100文字以下で入力してください。")
	}
	if !emailRegexp.MatchString(email) {
		return model.NewValidationError("メールアドレスの形式が正しくありません。")
	}
	return nil
}

// validatePassword はパスワードの長さを検証する。
func validatePassword(password string) *model.APIError {
	n := len(password)
	if n < passwordMinLen || n > passwordMaxLen {
		return model.NewValidationError("パスワードは8文字以上32文字以下で入力してください。")
	}
	return nil
}

// validateTitle はタスクタイトルを検証する。空は許可しない。
func validateTitle(title string) *model.APIError {
	n := utf8.RuneCountInString(title)
	if n < 1 || n > titleMaxLen {
		return model.NewValidationError("タイトルは1文字以上100文字以下で入力してください。")
	}
	return nil
}

// validateDescription はタスク説明を検証する。説明は省略可能で、
// 指定された場合のみ長さ上限を検証する。
func validateDescription(description string) *model.APIError {
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		return model.NewValidationError("説明は1000文字以下で入力してください。")
	}
	return nil
}
