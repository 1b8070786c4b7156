package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScopes_CollapsesDuplicates(t *testing.T) {
	scopes := ParseScopes("profile  read profile\twrite")

	assert.Len(t, scopes, 3)
	assert.True(t, scopes.Has("profile"))
	assert.True(t, scopes.Has("read"))
	assert.True(t, scopes.Has("write"))
	assert.Equal(t, "profile read write", scopes.String())
}

func TestParseScopes_Empty(t *testing.T) {
	assert.Empty(t, ParseScopes(""))
	assert.Empty(t, ParseScopes("   "))
}

func TestScopeSet_Missing(t *testing.T) {
	granted := ParseScopes("profile read")

	assert.Equal(t, []string{"write"}, granted.Missing(NewScopeSet("profile", "write")))
	assert.Empty(t, granted.Missing(NewScopeSet("read")))
	assert.Empty(t, granted.Missing(NewScopeSet()))
	assert.Equal(t, []string{"a", "b"}, ScopeSet{}.Missing(NewScopeSet("b", "a")))
}

func TestAccessToken_HasAudience(t *testing.T) {
	tok := &AccessToken{Audiences: []string{"https://api.example.com", "https://tenant.auth0.com/userinfo"}}

	assert.True(t, tok.HasAudience("https://api.example.com"))
	assert.False(t, tok.HasAudience("other"))
}
