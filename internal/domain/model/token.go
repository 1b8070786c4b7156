package model

import (
	"sort"
	"strings"
	"time"
)

// AccessToken は署名検証済みのアクセストークンを表す。
// TokenDecoder による検証成功時にのみ生成され、生成後は変更しない。
type AccessToken struct {
	Subject         string
	Audiences       []string
	AuthorizedParty string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	Issuer          string
	Scopes          ScopeSet
	// Raw は userinfo エンドポイントへ再提示するための元のトークン文字列。
	Raw string
}

// ScopeSet はスコープの集合。順序を持たず、重複は畳み込まれる。
type ScopeSet map[string]struct{}

// ParseScopes は空白区切りの scope クレームを ScopeSet に変換する。
func ParseScopes(scope string) ScopeSet {
	set := make(ScopeSet)
	for _, s := range strings.Fields(scope) {
		set[s] = struct{}{}
	}
	return set
}

// NewScopeSet は文字列スライスから ScopeSet を作成する。
func NewScopeSet(scopes ...string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// Has はスコープが含まれるかを返す。
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Missing は required のうち s に含まれないスコープをソート済みで返す。
func (s ScopeSet) Missing(required ScopeSet) []string {
	var missing []string
	for scope := range required {
		if !s.Has(scope) {
			missing = append(missing, scope)
		}
	}
	sort.Strings(missing)
	return missing
}

// Slice はスコープをソート済みのスライスで返す。
func (s ScopeSet) Slice() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// String は空白区切りの scope 表現を返す。
func (s ScopeSet) String() string {
	return strings.Join(s.Slice(), " ")
}

// HasAudience は aud に指定値が含まれるかを返す。
func (t *AccessToken) HasAudience(aud string) bool {
	for _, a := range t.Audiences {
		if a == aud {
			return true
		}
	}
	return false
}
