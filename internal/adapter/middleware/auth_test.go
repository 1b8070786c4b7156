package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/presenter"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Execute(ctx context.Context, rawToken string, required model.ScopeSet) (*model.AccessToken, error) {
	args := m.Called(ctx, rawToken, required)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessToken), args.Error(1)
}

type recordingObserver struct {
	failures []string
}

func (r *recordingObserver) ObserveAuthFailure(kind, reason string) {
	r.failures = append(r.failures, kind+"/"+reason)
}

func setupAuthRouter(auth Authenticator, observer AuthFailureObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", RequireAuth(auth, observer, "profile"), func(c *gin.Context) {
		token, ok := AccessTokenFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": token.Subject})
	})
	return r
}

func TestRequireAuth_Success(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("Execute", mock.Anything, "good-token", model.NewScopeSet("profile")).
		Return(&model.AccessToken{Subject: "auth0|abc"}, nil)

	r := setupAuthRouter(auth, nil)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"auth0|abc"}`, w.Body.String())
	auth.AssertExpectations(t)
}

func TestRequireAuth_Failures(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectStatus   int
		expectCode     string
		expectDetails  []string
		expectObserved []string
	}{
		{
			name:           "トークンなし",
			err:            model.NewMalformedCredentials(model.ReasonMissingToken, "missing bearer token", nil),
			expectStatus:   http.StatusUnauthorized,
			expectCode:     CodeUnauthenticated,
			expectDetails:  []string{},
			expectObserved: []string{"malformed/missing_token"},
		},
		{
			name:           "署名不正",
			err:            model.NewInvalidCredentials(model.ReasonInvalidSignature, "invalid signature", nil),
			expectStatus:   http.StatusUnauthorized,
			expectCode:     CodeInvalidToken,
			expectDetails:  []string{},
			expectObserved: []string{"invalid/invalid_signature"},
		},
		{
			name:           "スコープ不足",
			err:            model.NewInsufficientScope([]string{"profile"}),
			expectStatus:   http.StatusForbidden,
			expectCode:     CodeForbidden,
			expectDetails:  []string{"profile"},
			expectObserved: []string{"invalid/insufficient_scope"},
		},
		{
			name:           "分類不能なエラー",
			err:            errors.New("boom"),
			expectStatus:   http.StatusUnauthorized,
			expectCode:     CodeUnauthenticated,
			expectDetails:  []string{},
			expectObserved: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(mockAuthenticator)
			auth.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			observer := &recordingObserver{}

			r := setupAuthRouter(auth, observer)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectStatus, w.Code)
			var resp presenter.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectCode, resp.Error.Code)
			assert.Equal(t, tt.expectDetails, resp.Error.Details)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Equal(t, tt.expectObserved, observer.failures)
		})
	}
}

func TestRequireAuth_MissingHeaderPassesEmptyToken(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("Execute", mock.Anything, "", mock.Anything).
		Return(nil, model.NewMalformedCredentials(model.ReasonMissingToken, "missing bearer token", nil))

	r := setupAuthRouter(auth, nil)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	auth.AssertExpectations(t)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		expect string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expect, BearerToken(tt.header))
		})
	}
}
