package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// UserInfoConfig は UserInfoClient の設定。
type UserInfoConfig struct {
	Issuer      string
	UserInfoURL string
	Timeout     time.Duration
}

// IdentityFetchObserver は userinfo 取得結果を計測するインターフェース。
type IdentityFetchObserver interface {
	ObserveIdentityFetch(result string)
}

// UserInfoClient は IdP の userinfo エンドポイントから ID 情報を取得するゲートウェイ。
// usecase.IdentityFetcher インターフェースを実装する。
type UserInfoClient struct {
	provider    *oidc.Provider
	userInfoURL string
	httpClient  *http.Client
	observer    IdentityFetchObserver
}

// UserInfoOption は UserInfoClient のオプション。
type UserInfoOption func(*UserInfoClient)

// WithHTTPClient は利用する HTTP クライアントを差し替える。
func WithHTTPClient(client *http.Client) UserInfoOption {
	return func(c *UserInfoClient) {
		c.httpClient = client
	}
}

// WithIdentityFetchObserver は取得結果の計測先を設定する。
func WithIdentityFetchObserver(observer IdentityFetchObserver) UserInfoOption {
	return func(c *UserInfoClient) {
		c.observer = observer
	}
}

// NewUserInfoClient は新しい UserInfoClient を作成する。
// Discovery は行わず、設定された userinfo URL を直接使う。
func NewUserInfoClient(cfg UserInfoConfig, opts ...UserInfoOption) *UserInfoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &UserInfoClient{
		provider: (&oidc.ProviderConfig{
			IssuerURL:   cfg.Issuer,
			UserInfoURL: cfg.UserInfoURL,
		}).NewProvider(context.Background()),
		userInfoURL: cfg.UserInfoURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchIdentity は token.Raw をベアラーとして userinfo を取得し、正規化した ID 情報を返す。
// 失敗時は model.ErrIdentityFetch をラップして返す。
func (c *UserInfoClient) FetchIdentity(ctx context.Context, token *model.AccessToken) (model.Identity, error) {
	ctx = oidc.ClientContext(ctx, c.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.Raw,
		TokenType:   "Bearer",
	})

	info, err := c.provider.UserInfo(ctx, src)
	if err != nil {
		c.observe("error")
		return nil, fmt.Errorf("%w: userinfo request: %v", model.ErrIdentityFetch, err)
	}

	fields := make(map[string]any)
	if err := info.Claims(&fields); err != nil {
		c.observe("error")
		return nil, fmt.Errorf("%w: decode userinfo: %v", model.ErrIdentityFetch, err)
	}
	if info.Subject != token.Subject {
		c.observe("error")
		return nil, fmt.Errorf("%w: userinfo subject does not match token subject", model.ErrIdentityFetch)
	}

	identity, err := model.NormalizeIdentity(model.RawIdentity{
		Subject: info.Subject,
		Fields:  fields,
	})
	if err != nil {
		c.observe("invalid")
		return nil, fmt.Errorf("%w: %w", model.ErrIdentityFetch, err)
	}

	c.observe("success")
	return identity, nil
}

// Healthy は userinfo エンドポイントへの到達性を確認する。
// 認証なしのリクエストに対する 4xx は到達可能とみなす。
func (c *UserInfoClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}
	return nil
}

func (c *UserInfoClient) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveIdentityFetch(result)
	}
}
