package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownIdentityProvider は subject の接頭辞に対応する IdP が無い場合のエラー。
var ErrUnknownIdentityProvider = errors.New("unknown identity provider")

// ErrMissingIdentityField は IdP の応答に必須フィールドが無い場合のエラー。
var ErrMissingIdentityField = errors.New("missing identity field")

// IdentityProvider は subject の "|" より前の接頭辞で識別される IdP 種別。
type IdentityProvider string

const (
	// ProviderDirect はユーザー名・パスワードで直接サインインしたアカウント。
	ProviderDirect IdentityProvider = "auth0"
	// ProviderGoogle は Google アカウントでフェデレーションしたアカウント。
	ProviderGoogle IdentityProvider = "google-oauth2"
)

// RawIdentity は userinfo エンドポイントの未検証レスポンス。
type RawIdentity struct {
	Subject string
	Fields  map[string]any
}

// Provider は subject の接頭辞を返す。"|" を含まない場合は subject 全体を返す。
func (r RawIdentity) Provider() IdentityProvider {
	prefix, _, _ := strings.Cut(r.Subject, "|")
	return IdentityProvider(prefix)
}

// Identity は IdP 非依存に正規化された ID 情報。
// 実装は DirectIdentity と GoogleIdentity に限られる。
type Identity interface {
	Provider() IdentityProvider
	ExternalID() string
	Email() string
	DisplayName() string
	isIdentity()
}

// DirectIdentity は IdP に直接サインインしたユーザーの ID 情報。
type DirectIdentity struct {
	Subject   string
	EmailAddr string
	Name      string
	Nickname  string
	Picture   string
}

func (d *DirectIdentity) Provider() IdentityProvider { return ProviderDirect }
func (d *DirectIdentity) ExternalID() string         { return d.Subject }
func (d *DirectIdentity) Email() string              { return d.EmailAddr }

// DisplayName は nickname を返す。name はメールアドレスと同じ値であることが多い。
func (d *DirectIdentity) DisplayName() string { return d.Nickname }
func (d *DirectIdentity) isIdentity()         {}

// GoogleIdentity は Google アカウント経由でサインインしたユーザーの ID 情報。
type GoogleIdentity struct {
	Subject       string
	EmailAddr     string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Nickname      string
	Locale        string
	Picture       string
	UpdatedAt     string
}

func (g *GoogleIdentity) Provider() IdentityProvider { return ProviderGoogle }
func (g *GoogleIdentity) ExternalID() string         { return g.Subject }
func (g *GoogleIdentity) Email() string              { return g.EmailAddr }
func (g *GoogleIdentity) DisplayName() string        { return g.Name }
func (g *GoogleIdentity) isIdentity()                {}

// identityParsers は既知の接頭辞と正規化関数の対応表。
var identityParsers = map[IdentityProvider]func(RawIdentity) (Identity, error){
	ProviderDirect: parseDirectIdentity,
	ProviderGoogle: parseGoogleIdentity,
}

// KnownProviders は登録済みの IdP 接頭辞をソート済みで返す。
func KnownProviders() []IdentityProvider {
	out := make([]IdentityProvider, 0, len(identityParsers))
	for p := range identityParsers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NormalizeIdentity は RawIdentity を接頭辞に応じた Identity に変換する。
func NormalizeIdentity(raw RawIdentity) (Identity, error) {
	if raw.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingIdentityField)
	}
	parse, ok := identityParsers[raw.Provider()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentityProvider, raw.Provider())
	}
	return parse(raw)
}

func parseDirectIdentity(raw RawIdentity) (Identity, error) {
	f := identityFields{fields: raw.Fields}
	id := &DirectIdentity{
		Subject:   raw.Subject,
		EmailAddr: f.required("email"),
		Name:      f.required("name"),
		Nickname:  f.required("nickname"),
		Picture:   f.optional("picture"),
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return id, nil
}

func parseGoogleIdentity(raw RawIdentity) (Identity, error) {
	f := identityFields{fields: raw.Fields}
	id := &GoogleIdentity{
		Subject:       raw.Subject,
		EmailAddr:     f.required("email"),
		Name:          f.required("name"),
		EmailVerified: f.optionalBool("email_verified"),
		GivenName:     f.optional("given_name"),
		FamilyName:    f.optional("family_name"),
		Nickname:      f.optional("nickname"),
		Locale:        f.optional("locale"),
		Picture:       f.optional("picture"),
		UpdatedAt:     f.optional("updated_at"),
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return id, nil
}

// identityFields は必須フィールドの欠落を蓄積しながら値を取り出す。
type identityFields struct {
	fields  map[string]any
	missing []string
}

func (f *identityFields) required(key string) string {
	s, ok := f.fields[key].(string)
	if !ok || s == "" {
		f.missing = append(f.missing, key)
		return ""
	}
	return s
}

func (f *identityFields) optional(key string) string {
	s, _ := f.fields[key].(string)
	return s
}

func (f *identityFields) optionalBool(key string) bool {
	b, _ := f.fields[key].(bool)
	return b
}

func (f *identityFields) err() error {
	if len(f.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingIdentityField, strings.Join(f.missing, ", "))
}
