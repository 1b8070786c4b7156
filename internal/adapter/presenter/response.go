package presenter

import "github.com/k1s0-platform/system-server-go-profile/internal/domain/model"

// PaginationResponse はページネーション情報のレスポンス表現。
type PaginationResponse struct {
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	HasNext    bool `json:"has_next"`
}

// NewPaginationResponse はページネーションレスポンスを作成する。
func NewPaginationResponse(totalCount, page, pageSize int) PaginationResponse {
	return PaginationResponse{
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		HasNext:    page*pageSize < totalCount,
	}
}

// ProfileListResponse はプロフィール一覧のレスポンス表現。
type ProfileListResponse struct {
	Profiles   []*model.Profile   `json:"profiles"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewProfileListResponse はプロフィール一覧レスポンスを作成する。nil のスライスは空配列として返す。
func NewProfileListResponse(profiles []*model.Profile, totalCount, page, pageSize int) ProfileListResponse {
	if profiles == nil {
		profiles = []*model.Profile{}
	}
	return ProfileListResponse{
		Profiles:   profiles,
		Pagination: NewPaginationResponse(totalCount, page, pageSize),
	}
}

// ErrorResponse は統一エラーレスポンス（API設計.md D-007 準拠）。
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail はエラーの詳細情報。
type ErrorDetail struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id"`
	Details   []string `json:"details"`
}

// NewErrorResponse はエラーレスポンスを作成する。
func NewErrorResponse(code, message, requestID string, details []string) ErrorResponse {
	if details == nil {
		details = []string{}
	}
	return ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	}
}
