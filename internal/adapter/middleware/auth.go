package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/presenter"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

const accessTokenKey = "access_token"

// 認証失敗時のエラーコード。
const (
	CodeUnauthenticated = "PROFILE_AUTH_UNAUTHENTICATED"
	CodeInvalidToken    = "PROFILE_AUTH_INVALID_TOKEN"
	CodeForbidden       = "PROFILE_AUTH_FORBIDDEN"
)

// Authenticator はベアラートークンを検証しスコープを認可する。
type Authenticator interface {
	Execute(ctx context.Context, rawToken string, required model.ScopeSet) (*model.AccessToken, error)
}

// AuthFailureObserver は認証失敗を計測する。
type AuthFailureObserver interface {
	ObserveAuthFailure(kind, reason string)
}

// RequireAuth は Authorization ヘッダーのベアラートークンを検証し、
// 要求スコープを満たす場合のみ後続のハンドラーを実行するミドルウェア。
// observer は nil でもよい。
func RequireAuth(auth Authenticator, observer AuthFailureObserver, scopes ...string) gin.HandlerFunc {
	required := model.NewScopeSet(scopes...)
	return func(c *gin.Context) {
		token, err := auth.Execute(c.Request.Context(), BearerToken(c.GetHeader("Authorization")), required)
		if err != nil {
			status, code, details := CredentialErrorStatus(err)
			var credErr *model.CredentialError
			if observer != nil && errors.As(err, &credErr) {
				observer.ObserveAuthFailure(credErr.Kind.String(), string(credErr.Reason))
			}
			c.AbortWithStatusJSON(status, presenter.NewErrorResponse(code, authMessage(err), RequestIDFrom(c), details))
			return
		}
		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// AccessTokenFrom は RequireAuth が格納した検証済みトークンを返す。
func AccessTokenFrom(c *gin.Context) (*model.AccessToken, bool) {
	v, ok := c.Get(accessTokenKey)
	if !ok {
		return nil, false
	}
	token, ok := v.(*model.AccessToken)
	return token, ok && token != nil
}

// BearerToken は "Bearer <token>" 形式のヘッダー値からトークンを取り出す。
// 形式が一致しない場合は空文字列を返す。
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CredentialErrorStatus は認証エラーを HTTP ステータスとエラーコードに変換する。
func CredentialErrorStatus(err error) (int, string, []string) {
	var credErr *model.CredentialError
	if !errors.As(err, &credErr) {
		return http.StatusUnauthorized, CodeUnauthenticated, nil
	}
	switch {
	case credErr.IsScopeFailure():
		return http.StatusForbidden, CodeForbidden, credErr.MissingScopes
	case credErr.Kind == model.KindInvalid:
		return http.StatusUnauthorized, CodeInvalidToken, nil
	default:
		return http.StatusUnauthorized, CodeUnauthenticated, nil
	}
}

func authMessage(err error) string {
	var credErr *model.CredentialError
	if errors.As(err, &credErr) && credErr.Message != "" {
		return credErr.Message
	}
	return "authentication failed"
}
