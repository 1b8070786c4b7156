package usecase

import (
	"context"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

// EditAwardInput は受賞登録の入力パラメータ。
type EditAwardInput struct {
	Title string `json:"title" validate:"required"`
}

// BestowAwardUseCase はプロフィールへの受賞登録ユースケース。
type BestowAwardUseCase struct {
	profileRepo repository.ProfileRepository
	publisher   ProfileEventPublisher
}

// NewBestowAwardUseCase は新しい BestowAwardUseCase を作成する。
func NewBestowAwardUseCase(profileRepo repository.ProfileRepository, publisher ProfileEventPublisher) *BestowAwardUseCase {
	return &BestowAwardUseCase{
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Execute は受賞を追加し、更新後のプロフィールを返す。
func (uc *BestowAwardUseCase) Execute(ctx context.Context, profileID int64, input EditAwardInput) (*model.Profile, error) {
	if profileID <= 0 {
		return nil, ErrInvalidProfileID
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	if _, err := uc.profileRepo.AddAward(ctx, profileID, input.Title); err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	publishProfileEvent(ctx, uc.publisher, model.EventAwardBestowed, profile, input.Title)

	return profile, nil
}
