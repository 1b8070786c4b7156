package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

type recordingFetchObserver struct {
	results []string
}

func (o *recordingFetchObserver) ObserveJWKSFetch(result string) {
	o.results = append(o.results, result)
}

func TestHTTPJWKSFetcher_FetchKeys(t *testing.T) {
	key := newSigningKey(t, testKID)
	body, err := json.Marshal(keySetOf(t, key))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/jwks.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	resolver := NewKeyResolver(srv.URL+"/.well-known/jwks.json", NewHTTPJWKSFetcher(srv.Client()))

	got, err := resolver.Resolve(context.Background(), testKID)

	require.NoError(t, err)
	assert.Equal(t, testKID, got.KeyID())
	assert.Equal(t, 1, resolver.CachedKeyCount())
}

func TestHTTPJWKSFetcher_MalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"keys": "not-an-array"`))
	}))
	defer srv.Close()

	observer := &recordingFetchObserver{}
	resolver := NewKeyResolver(srv.URL, NewHTTPJWKSFetcher(nil), WithFetchObserver(observer))

	_, err := resolver.Resolve(context.Background(), testKID)

	assert.ErrorIs(t, err, model.ErrKeyResolution)
	assert.Equal(t, []string{"error"}, observer.results)
}

func TestKeyResolver_CachesAllKeysFromDocument(t *testing.T) {
	first := newSigningKey(t, "key-a")
	second := newSigningKey(t, "key-b")
	fetcher := &countingFetcher{set: keySetOf(t, first, second)}
	observer := &recordingFetchObserver{}
	resolver := NewKeyResolver(testJWKSURL, fetcher, WithFetchObserver(observer))

	_, err := resolver.Resolve(context.Background(), "key-a")
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), "key-b")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls())
	assert.Equal(t, 2, resolver.CachedKeyCount())
	assert.Equal(t, []string{"success"}, observer.results)
}

func TestKeyResolver_Warmup(t *testing.T) {
	key := newSigningKey(t, testKID)
	fetcher := &countingFetcher{set: keySetOf(t, key)}
	resolver := NewKeyResolver(testJWKSURL, fetcher)

	require.NoError(t, resolver.Warmup(context.Background()))
	_, err := resolver.Resolve(context.Background(), testKID)

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls())
}

// gatedFetcher は release が閉じられるまで取得を止める JWKSFetcher。
type gatedFetcher struct {
	set     jwk.Set
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *gatedFetcher) FetchKeys(ctx context.Context, _ string) (jwk.Set, error) {
	f.once.Do(func() { close(f.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.release:
		return f.set, nil
	}
}

func TestKeyResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	key := newSigningKey(t, testKID)
	fetcher := &gatedFetcher{
		set:     keySetOf(t, key),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	resolver := NewKeyResolver(testJWKSURL, fetcher)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(cancelledCtx, testKID)
		firstErr <- err
	}()
	<-fetcher.started

	type result struct {
		key jwk.Key
		err error
	}
	second := make(chan result, 1)
	go func() {
		got, err := resolver.Resolve(context.Background(), testKID)
		second <- result{key: got, err: err}
	}()

	cancel()
	err := <-firstErr
	assert.ErrorIs(t, err, model.ErrKeyResolution)
	assert.ErrorIs(t, err, context.Canceled)

	// 2 番目の呼び出しが同じ取得に合流するのを待ってから解放する
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)

	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, testKID, res.key.KeyID())
	case <-time.After(5 * time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, 1, resolver.CachedKeyCount())
}
