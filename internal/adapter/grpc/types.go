package grpc

import (
	"time"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// proto 生成コードが未生成のため、profile_service.proto と common/types.proto に
// 対応する Go 構造体を手動定義する。buf generate 後にこのファイルは生成コードに置き換える。

// --- Common Types ---

// Pagination はページネーションパラメータ。
type Pagination struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

// PaginationResult はページネーション結果。
type PaginationResult struct {
	TotalCount int32 `json:"total_count"`
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
	HasNext    bool  `json:"has_next"`
}

// Timestamp は protobuf Timestamp 互換型。
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

func toTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// --- Profile ---

// PbProfile は proto の Profile に対応する構造体。パスワードは含めない。
type PbProfile struct {
	Id            int64      `json:"id"`
	Username      string     `json:"username"`
	Gender        string     `json:"gender"`
	FullName      string     `json:"full_name"`
	StreetAddress string     `json:"street_address"`
	Email         string     `json:"email"`
	ExternalId    string     `json:"external_id,omitempty"`
	Awards        []*PbAward `json:"awards"`
}

// PbAward は proto の Award に対応する構造体。
type PbAward struct {
	Id        int64      `json:"id"`
	Title     string     `json:"title"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// PbProfileInput は proto の ProfileInput に対応する構造体。
type PbProfileInput struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Gender        string `json:"gender"`
	FullName      string `json:"full_name"`
	StreetAddress string `json:"street_address"`
	Email         string `json:"email"`
}

func toPbProfile(p *model.Profile) *PbProfile {
	if p == nil {
		return nil
	}
	pb := &PbProfile{
		Id:            p.ID,
		Username:      p.Username,
		Gender:        p.Gender,
		FullName:      p.FullName,
		StreetAddress: p.StreetAddress,
		Email:         p.Email,
		Awards:        make([]*PbAward, 0, len(p.Awards)),
	}
	if p.ExternalID != nil {
		pb.ExternalId = *p.ExternalID
	}
	for _, a := range p.Awards {
		pb.Awards = append(pb.Awards, &PbAward{
			Id:        a.ID,
			Title:     a.Title,
			CreatedAt: toTimestamp(a.CreatedAt),
		})
	}
	return pb
}

// --- GetProfile ---

// GetProfileRequest はプロフィール取得リクエスト。
type GetProfileRequest struct {
	Id int64 `json:"id"`
}

// GetProfileResponse はプロフィール取得レスポンス。
type GetProfileResponse struct {
	Profile *PbProfile `json:"profile"`
}

// --- GetOwnProfile ---

// GetOwnProfileRequest は呼び出し元自身のプロフィール取得リクエスト。
// ベアラートークンは authorization メタデータで渡す。
type GetOwnProfileRequest struct{}

// --- ListProfiles ---

// ListProfilesRequest はプロフィール一覧取得リクエスト。
type ListProfilesRequest struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ListProfilesResponse はプロフィール一覧取得レスポンス。
type ListProfilesResponse struct {
	Profiles   []*PbProfile      `json:"profiles"`
	Pagination *PaginationResult `json:"pagination"`
}

// --- CreateProfile / EditProfile ---

// CreateProfileRequest はプロフィール作成リクエスト。
type CreateProfileRequest struct {
	Profile *PbProfileInput `json:"profile"`
}

// EditProfileRequest はプロフィール更新リクエスト。
type EditProfileRequest struct {
	Id      int64           `json:"id"`
	Profile *PbProfileInput `json:"profile"`
}

// --- BestowAward ---

// BestowAwardRequest は受賞登録リクエスト。
type BestowAwardRequest struct {
	ProfileId int64  `json:"profile_id"`
	Title     string `json:"title"`
}
