package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// SigningKeyResolver は kid から署名検証用の公開鍵を解決するインターフェース。
type SigningKeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwk.Key, error)
}

// DecoderConfig は TokenDecoder の設定。
type DecoderConfig struct {
	Issuer     string
	Audience   string
	Algorithms []string
	// Leeway は exp/nbf/iat 検証時の許容誤差。本番では 0。
	Leeway time.Duration
}

// TokenDecoder は JWKS の公開鍵で JWT を検証し、model.AccessToken を生成する。
type TokenDecoder struct {
	keys       SigningKeyResolver
	issuer     string
	audience   string
	algorithms map[jwa.SignatureAlgorithm]struct{}
	leeway     time.Duration
	clock      func() time.Time
}

// DecoderOption は TokenDecoder のオプション。
type DecoderOption func(*TokenDecoder)

// WithClock は現在時刻の取得関数を差し替える（テスト用）。
func WithClock(now func() time.Time) DecoderOption {
	return func(d *TokenDecoder) {
		d.clock = now
	}
}

// NewTokenDecoder は新しい TokenDecoder を作成する。Algorithms が空の場合は RS256 のみ許可する。
func NewTokenDecoder(keys SigningKeyResolver, cfg DecoderConfig, opts ...DecoderOption) *TokenDecoder {
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{jwa.RS256.String()}
	}
	allowed := make(map[jwa.SignatureAlgorithm]struct{}, len(algs))
	for _, alg := range algs {
		allowed[jwa.SignatureAlgorithm(alg)] = struct{}{}
	}

	d := &TokenDecoder{
		keys:       keys,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		algorithms: allowed,
		leeway:     cfg.Leeway,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode は生の JWT を検証し AccessToken を返す。
// 構文不正と鍵解決失敗は KindMalformed、署名・クレーム検証失敗は KindInvalid の
// *model.CredentialError を返す。
func (d *TokenDecoder) Decode(ctx context.Context, rawToken string) (*model.AccessToken, error) {
	if strings.Count(rawToken, ".") != 2 {
		return nil, model.NewMalformedCredentials(model.ReasonMalformedToken, "token is not a compact JWS", nil)
	}

	// 署名検証前にヘッダーから kid と alg を取り出す
	msg, err := jws.Parse([]byte(rawToken))
	if err != nil {
		return nil, model.NewMalformedCredentials(model.ReasonMalformedToken, "unable to parse token header", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, model.NewMalformedCredentials(model.ReasonMalformedToken, "token must carry exactly one signature", nil)
	}
	headers := sigs[0].ProtectedHeaders()
	kid := headers.KeyID()
	if kid == "" {
		return nil, model.NewMalformedCredentials(model.ReasonMalformedToken, "token header has no kid", nil)
	}
	alg := headers.Algorithm()
	if _, ok := d.algorithms[alg]; !ok {
		return nil, model.NewInvalidCredentials(model.ReasonUnsupportedAlgorithm, "unsupported signing algorithm", nil)
	}

	key, err := d.keys.Resolve(ctx, kid)
	if err != nil {
		return nil, model.NewMalformedCredentials(model.ReasonKeyUnresolved, "unable to find appropriate signing key", err)
	}

	if _, err := jws.Verify([]byte(rawToken), jws.WithKey(alg, key)); err != nil {
		return nil, model.NewInvalidCredentials(model.ReasonInvalidSignature, "invalid token signature", err)
	}

	parsed, err := jwt.Parse([]byte(rawToken), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, model.NewMalformedCredentials(model.ReasonMalformedToken, "unable to parse token claims", err)
	}

	if err := jwt.Validate(parsed,
		jwt.WithIssuer(d.issuer),
		jwt.WithAudience(d.audience),
		jwt.WithAcceptableSkew(d.leeway),
		jwt.WithClock(jwt.ClockFunc(d.clock)),
	); err != nil {
		return nil, classifyValidationError(err)
	}
	if parsed.Subject() == "" {
		return nil, model.NewInvalidCredentials(model.ReasonInvalidClaims, "token has no subject", nil)
	}
	if parsed.Expiration().IsZero() {
		return nil, model.NewInvalidCredentials(model.ReasonInvalidClaims, "token has no expiry", nil)
	}

	return toAccessToken(parsed, rawToken), nil
}

func classifyValidationError(err error) *model.CredentialError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return model.NewInvalidCredentials(model.ReasonTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		return model.NewInvalidCredentials(model.ReasonTokenNotYetValid, "token is not yet valid", err)
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		return model.NewInvalidCredentials(model.ReasonInvalidIssuer, "incorrect issuer", err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		return model.NewInvalidCredentials(model.ReasonInvalidAudience, "incorrect audience", err)
	default:
		return model.NewInvalidCredentials(model.ReasonInvalidClaims, "invalid token claims", err)
	}
}

func toAccessToken(token jwt.Token, raw string) *model.AccessToken {
	at := &model.AccessToken{
		Subject:   token.Subject(),
		Audiences: token.Audience(),
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
		Issuer:    token.Issuer(),
		Scopes:    model.NewScopeSet(),
		Raw:       raw,
	}

	if v, ok := token.Get("azp"); ok {
		if s, ok := v.(string); ok {
			at.AuthorizedParty = s
		}
	}

	// scope は空白区切り文字列。配列で届く IdP にも対応する
	if v, ok := token.Get("scope"); ok {
		switch s := v.(type) {
		case string:
			at.Scopes = model.ParseScopes(s)
		case []any:
			scopes := make([]string, 0, len(s))
			for _, item := range s {
				if str, ok := item.(string); ok {
					scopes = append(scopes, str)
				}
			}
			at.Scopes = model.NewScopeSet(scopes...)
		}
	}

	return at
}
