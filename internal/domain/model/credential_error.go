package model

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedCredentials は資格情報がトークンとして解釈できない、
	// または署名鍵を解決できないことを表す。HTTP では 401 に対応する。
	ErrMalformedCredentials = errors.New("malformed credentials")
	// ErrInvalidCredentials は形式は正しいが検証またはスコープ判定に失敗したことを表す。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrKeyResolution は署名鍵を解決できなかったことを表す。
	ErrKeyResolution = errors.New("signing key resolution failed")
	// ErrIdentityFetch は IdP からの ID 情報取得に失敗したことを表す。
	ErrIdentityFetch = errors.New("identity fetch failed")
)

// CredentialKind は資格情報エラーの分類。
type CredentialKind int

const (
	// KindMalformed は ErrMalformedCredentials に対応する。
	KindMalformed CredentialKind = iota + 1
	// KindInvalid は ErrInvalidCredentials に対応する。
	KindInvalid
)

// String は分類名を返す。
func (k CredentialKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FailureReason は検証失敗の具体的な理由を表す安定したコード。
// 呼び出し側はこれを見て 401 と 403 を選択する。
type FailureReason string

const (
	ReasonMissingToken         FailureReason = "missing_token"
	ReasonMalformedToken       FailureReason = "malformed_token"
	ReasonKeyUnresolved        FailureReason = "key_unresolved"
	ReasonUnsupportedAlgorithm FailureReason = "unsupported_algorithm"
	ReasonInvalidSignature     FailureReason = "invalid_signature"
	ReasonTokenExpired         FailureReason = "token_expired"
	ReasonTokenNotYetValid     FailureReason = "token_not_yet_valid"
	ReasonInvalidIssuer        FailureReason = "invalid_issuer"
	ReasonInvalidAudience      FailureReason = "invalid_audience"
	ReasonInvalidClaims        FailureReason = "invalid_claims"
	ReasonInsufficientScope    FailureReason = "insufficient_scope"
)

// CredentialError は認証コアが返す分類済みのエラー。
// Message は利用者に返してよい文言で、鍵素材などの内部情報を含まない。
type CredentialError struct {
	Kind          CredentialKind
	Reason        FailureReason
	Message       string
	MissingScopes []string
	Err           error
}

// NewMalformedCredentials は KindMalformed の CredentialError を作成する。
func NewMalformedCredentials(reason FailureReason, message string, err error) *CredentialError {
	return &CredentialError{Kind: KindMalformed, Reason: reason, Message: message, Err: err}
}

// NewInvalidCredentials は KindInvalid の CredentialError を作成する。
func NewInvalidCredentials(reason FailureReason, message string, err error) *CredentialError {
	return &CredentialError{Kind: KindInvalid, Reason: reason, Message: message, Err: err}
}

// NewInsufficientScope は不足スコープを保持した CredentialError を作成する。
func NewInsufficientScope(missing []string) *CredentialError {
	return &CredentialError{
		Kind:          KindInvalid,
		Reason:        ReasonInsufficientScope,
		Message:       "Missing scopes: " + strings.Join(missing, ", "),
		MissingScopes: missing,
	}
}

// Error は error インターフェースを実装する。
func (e *CredentialError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap は原因となったエラーを返す。
func (e *CredentialError) Unwrap() error {
	return e.Err
}

// Is は分類に対応する番兵エラーとの比較を可能にする。
func (e *CredentialError) Is(target error) bool {
	switch target {
	case ErrMalformedCredentials:
		return e.Kind == KindMalformed
	case ErrInvalidCredentials:
		return e.Kind == KindInvalid
	}
	return false
}

// IsScopeFailure はスコープ不足による失敗かどうかを返す。
func (e *CredentialError) IsScopeFailure() bool {
	return e.Reason == ReasonInsufficientScope
}
