package usecase

import (
	"context"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

// GetProfileUseCase はプロフィール取得ユースケース。
type GetProfileUseCase struct {
	profileRepo repository.ProfileRepository
}

// NewGetProfileUseCase は新しい GetProfileUseCase を作成する。
func NewGetProfileUseCase(profileRepo repository.ProfileRepository) *GetProfileUseCase {
	return &GetProfileUseCase{
		profileRepo: profileRepo,
	}
}

// Execute は ID からプロフィールを受賞歴付きで取得する。
func (uc *GetProfileUseCase) Execute(ctx context.Context, id int64) (*model.Profile, error) {
	if id <= 0 {
		return nil, ErrInvalidProfileID
	}
	return uc.profileRepo.GetByID(ctx, id)
}
