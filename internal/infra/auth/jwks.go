package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// JWKSFetcher は JWKS エンドポイントからの鍵取得を抽象化するインターフェース。
// テスト時にモックに差し替え可能。
type JWKSFetcher interface {
	FetchKeys(ctx context.Context, jwksURL string) (jwk.Set, error)
}

// HTTPJWKSFetcher は HTTP 経由で JWKS を取得するデフォルト実装。
type HTTPJWKSFetcher struct {
	client *http.Client
}

// NewHTTPJWKSFetcher は新しい HTTPJWKSFetcher を作成する。client が nil の場合は http.DefaultClient を使う。
func NewHTTPJWKSFetcher(client *http.Client) *HTTPJWKSFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPJWKSFetcher{client: client}
}

// FetchKeys は指定 URL から JWKS を HTTP GET で取得する。
func (f *HTTPJWKSFetcher) FetchKeys(ctx context.Context, jwksURL string) (jwk.Set, error) {
	return jwk.Fetch(ctx, jwksURL, jwk.WithHTTPClient(f.client))
}

// FetchObserver は JWKS 取得結果を計測するインターフェース。
type FetchObserver interface {
	ObserveJWKSFetch(result string)
}

// KeyResolver は kid をキーに署名鍵をキャッシュし、未知の kid の場合のみ JWKS を再取得する。
// キャッシュは追記のみで、期限切れによる破棄は行わない。
type KeyResolver struct {
	jwksURL  string
	fetcher  JWKSFetcher
	observer FetchObserver

	mu    sync.RWMutex
	keys  map[string]jwk.Key
	group singleflight.Group
}

// KeyResolverOption は KeyResolver のオプション。
type KeyResolverOption func(*KeyResolver)

// WithFetchObserver は JWKS 取得結果の計測先を設定する。
func WithFetchObserver(observer FetchObserver) KeyResolverOption {
	return func(r *KeyResolver) {
		r.observer = observer
	}
}

// NewKeyResolver は新しい KeyResolver を作成する。
func NewKeyResolver(jwksURL string, fetcher JWKSFetcher, opts ...KeyResolverOption) *KeyResolver {
	r := &KeyResolver{
		jwksURL: jwksURL,
		fetcher: fetcher,
		keys:    make(map[string]jwk.Key),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve は kid に対応する公開鍵を返す。キャッシュに無い場合は JWKS を一度だけ再取得する。
// 再取得後も見つからない場合や取得に失敗した場合は model.ErrKeyResolution をラップして返す。
func (r *KeyResolver) Resolve(ctx context.Context, kid string) (jwk.Key, error) {
	if key, ok := r.lookup(kid); ok {
		return key, nil
	}

	// 同時に発生したキャッシュミスは 1 回の取得にまとめる。
	// 共有の取得は呼び出し元のキャンセルに影響されず、打ち切りは HTTP クライアントのタイムアウトに任せる。
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(r.jwksURL, func() (any, error) {
		return nil, r.refresh(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", model.ErrKeyResolution, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
	}

	if key, ok := r.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: no key with kid %q", model.ErrKeyResolution, kid)
}

// Warmup は JWKS を事前に取得してキャッシュを温める。
func (r *KeyResolver) Warmup(ctx context.Context) error {
	return r.refresh(ctx)
}

// CachedKeyCount はキャッシュ済みの鍵の数を返す。
func (r *KeyResolver) CachedKeyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

func (r *KeyResolver) lookup(kid string) (jwk.Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[kid]
	return key, ok
}

// refresh は JWKS を取得し、kid を持つ全ての鍵をキャッシュに追加する。
func (r *KeyResolver) refresh(ctx context.Context) error {
	set, err := r.fetcher.FetchKeys(ctx, r.jwksURL)
	if err != nil {
		r.observe("error")
		return fmt.Errorf("%w: fetch jwks: %v", model.ErrKeyResolution, err)
	}
	r.observe("success")

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok || key.KeyID() == "" {
			continue
		}
		r.keys[key.KeyID()] = key
	}
	return nil
}

func (r *KeyResolver) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveJWKSFetch(result)
	}
}
