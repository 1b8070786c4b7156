package service

import (
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// ScopeAuthorizer はトークンのスコープがエンドポイントの要求を満たすかを判定する
// ドメインサービス。I/O を持たない。
type ScopeAuthorizer struct{}

// NewScopeAuthorizer は新しい ScopeAuthorizer を作成する。
func NewScopeAuthorizer() *ScopeAuthorizer {
	return &ScopeAuthorizer{}
}

// Authorize は required が token のスコープの部分集合かどうかを判定する。
// 満たさない場合は不足スコープ（集合差）を保持した *model.CredentialError を返す。
func (s *ScopeAuthorizer) Authorize(token *model.AccessToken, required model.ScopeSet) error {
	missing := token.Scopes.Missing(required)
	if len(missing) == 0 {
		return nil
	}
	return model.NewInsufficientScope(missing)
}
