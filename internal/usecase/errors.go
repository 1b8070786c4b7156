package usecase

import "errors"

var (
	// ErrIdentityUnavailable は初回リンク時に IdP から ID 情報を取得できなかった場合のエラー。
	// 資格情報自体は有効なため、呼び出し側は 5xx として扱う。
	ErrIdentityUnavailable = errors.New("identity provider unavailable")

	// ErrInvalidProfileID はプロフィール ID が不正な場合のエラー。
	ErrInvalidProfileID = errors.New("invalid profile id")

	// ErrValidation は入力値の検証に失敗した場合のエラー。
	ErrValidation = errors.New("validation failed")
)
