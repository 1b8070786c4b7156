package usecase

import (
	"context"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListProfilesUseCase はプロフィール一覧取得ユースケース。
type ListProfilesUseCase struct {
	profileRepo repository.ProfileRepository
}

// NewListProfilesUseCase は新しい ListProfilesUseCase を作成する。
func NewListProfilesUseCase(profileRepo repository.ProfileRepository) *ListProfilesUseCase {
	return &ListProfilesUseCase{
		profileRepo: profileRepo,
	}
}

// ListProfilesInput はプロフィール一覧取得の入力パラメータ。
type ListProfilesInput struct {
	Page     int
	PageSize int
}

// ListProfilesOutput はプロフィール一覧取得の出力。
type ListProfilesOutput struct {
	Profiles   []*model.Profile
	TotalCount int
	Page       int
	PageSize   int
	HasNext    bool
}

// Execute はプロフィール一覧をページネーション付きで取得する。
func (uc *ListProfilesUseCase) Execute(ctx context.Context, input ListProfilesInput) (*ListProfilesOutput, error) {
	// デフォルト値の設定
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = defaultPageSize
	}
	if input.PageSize > maxPageSize {
		input.PageSize = maxPageSize
	}

	profiles, totalCount, err := uc.profileRepo.List(ctx, repository.ProfileListParams{
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &ListProfilesOutput{
		Profiles:   profiles,
		TotalCount: totalCount,
		Page:       input.Page,
		PageSize:   input.PageSize,
		HasNext:    input.Page*input.PageSize < totalCount,
	}, nil
}
