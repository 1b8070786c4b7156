package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveIdentityFetch(result string) {
	o.results = append(o.results, result)
}

func newUserInfoServer(t *testing.T, status int, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer raw-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestClient(srv *httptest.Server, observer IdentityFetchObserver) *UserInfoClient {
	return NewUserInfoClient(
		UserInfoConfig{Issuer: srv.URL + "/", UserInfoURL: srv.URL + "/userinfo"},
		WithHTTPClient(srv.Client()),
		WithIdentityFetchObserver(observer),
	)
}

func TestUserInfoClient_FetchIdentity_Direct(t *testing.T) {
	srv := newUserInfoServer(t, http.StatusOK, map[string]any{
		"sub":      "auth0|abc123",
		"email":    "kiri@example.com",
		"name":     "kiri@example.com",
		"nickname": "kiri",
		"picture":  "https://s.gravatar.com/avatar/kiri.png",
	})
	defer srv.Close()
	observer := &recordingObserver{}
	client := newTestClient(srv, observer)

	identity, err := client.FetchIdentity(context.Background(), &model.AccessToken{
		Subject: "auth0|abc123",
		Raw:     "raw-access-token",
	})

	require.NoError(t, err)
	direct, ok := identity.(*model.DirectIdentity)
	require.True(t, ok)
	assert.Equal(t, "auth0|abc123", direct.ExternalID())
	assert.Equal(t, "kiri@example.com", direct.Email())
	assert.Equal(t, "kiri", direct.DisplayName())
	assert.Equal(t, []string{"success"}, observer.results)
}

func TestUserInfoClient_FetchIdentity_Google(t *testing.T) {
	srv := newUserInfoServer(t, http.StatusOK, map[string]any{
		"sub":            "google-oauth2|xyz789",
		"email":          "aroha@example.com",
		"email_verified": true,
		"name":           "Aroha Parata",
		"given_name":     "Aroha",
		"family_name":    "Parata",
		"picture":        "https://lh3.googleusercontent.com/a/aroha",
		"updated_at":     "2026-02-01T09:00:00.000Z",
	})
	defer srv.Close()
	client := newTestClient(srv, nil)

	identity, err := client.FetchIdentity(context.Background(), &model.AccessToken{
		Subject: "google-oauth2|xyz789",
		Raw:     "raw-access-token",
	})

	require.NoError(t, err)
	google, ok := identity.(*model.GoogleIdentity)
	require.True(t, ok)
	assert.Equal(t, "Aroha Parata", google.DisplayName())
	assert.True(t, google.EmailVerified)
	assert.Equal(t, "Parata", google.FamilyName)
}

func TestUserInfoClient_FetchIdentity_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]any
		subject  string
		raw      string
		wantErr  error
		wantStat string
	}{
		{
			name:     "未知のプロバイダ",
			status:   http.StatusOK,
			body:     map[string]any{"sub": "facebook|123", "email": "x@example.com"},
			subject:  "facebook|123",
			raw:      "raw-access-token",
			wantErr:  model.ErrUnknownIdentityProvider,
			wantStat: "invalid",
		},
		{
			name:     "必須フィールド欠落",
			status:   http.StatusOK,
			body:     map[string]any{"sub": "auth0|abc123", "email": "x@example.com"},
			subject:  "auth0|abc123",
			raw:      "raw-access-token",
			wantErr:  model.ErrMissingIdentityField,
			wantStat: "invalid",
		},
		{
			name:     "IdP が拒否",
			status:   http.StatusOK,
			body:     map[string]any{},
			subject:  "auth0|abc123",
			raw:      "revoked-token",
			wantErr:  model.ErrIdentityFetch,
			wantStat: "error",
		},
		{
			name:     "IdP 内部エラー",
			status:   http.StatusBadGateway,
			body:     map[string]any{"error": "upstream"},
			subject:  "auth0|abc123",
			raw:      "raw-access-token",
			wantErr:  model.ErrIdentityFetch,
			wantStat: "error",
		},
		{
			name:     "subject 不一致",
			status:   http.StatusOK,
			body:     map[string]any{"sub": "auth0|someone-else", "email": "x@example.com", "name": "x", "nickname": "x"},
			subject:  "auth0|abc123",
			raw:      "raw-access-token",
			wantErr:  model.ErrIdentityFetch,
			wantStat: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUserInfoServer(t, tt.status, tt.body)
			defer srv.Close()
			observer := &recordingObserver{}
			client := newTestClient(srv, observer)

			identity, err := client.FetchIdentity(context.Background(), &model.AccessToken{
				Subject: tt.subject,
				Raw:     tt.raw,
			})

			assert.Nil(t, identity)
			assert.ErrorIs(t, err, model.ErrIdentityFetch)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{tt.wantStat}, observer.results)
		})
	}
}

func TestUserInfoClient_Healthy(t *testing.T) {
	srv := newUserInfoServer(t, http.StatusOK, nil)
	client := newTestClient(srv, nil)

	// 認証なしの 401 は到達可能とみなす
	assert.NoError(t, client.Healthy(context.Background()))

	srv.Close()
	assert.Error(t, client.Healthy(context.Background()))
}

func TestUserInfoClient_Healthy_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	client := newTestClient(srv, nil)

	assert.Error(t, client.Healthy(context.Background()))
}
