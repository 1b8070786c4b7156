package presenter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginationResponse(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		pageSize   int
		expectNext bool
	}{
		{"次ページあり", 45, 1, 20, true},
		{"最終ページ", 45, 3, 20, false},
		{"ちょうど境界", 40, 2, 20, false},
		{"空", 0, 1, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPaginationResponse(tt.total, tt.page, tt.pageSize)
			assert.Equal(t, tt.expectNext, resp.HasNext)
			assert.Equal(t, tt.total, resp.TotalCount)
		})
	}
}

func TestNewProfileListResponse_NilProfiles(t *testing.T) {
	resp := NewProfileListResponse(nil, 0, 1, 20)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"profiles":[]`)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("PROFILE_NOT_FOUND", "not found", "req_123", nil)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"error":{"code":"PROFILE_NOT_FOUND","message":"not found","request_id":"req_123","details":[]}}`,
		string(data))
}
