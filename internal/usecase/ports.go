package usecase

import (
	"context"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// TokenDecoder は生の JWT を検証し AccessToken を返すインターフェース。
// infra 層の JWKS 検証器がこのインターフェースを実装する。
// 失敗時は *model.CredentialError を返す。
type TokenDecoder interface {
	Decode(ctx context.Context, rawToken string) (*model.AccessToken, error)
}

// IdentityFetcher は検証済みトークンを IdP の userinfo エンドポイントに提示し、
// 正規化された ID 情報を返すインターフェース。
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, token *model.AccessToken) (model.Identity, error)
}

// ProfileEventPublisher はプロフィールイベントの非同期配信インターフェース。
type ProfileEventPublisher interface {
	Publish(ctx context.Context, event *model.ProfileEvent) error
}

// LinkRecorder はプロフィールリンク結果を計測するインターフェース。
type LinkRecorder interface {
	ObserveLink(outcome string)
}
