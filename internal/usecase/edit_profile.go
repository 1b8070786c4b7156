package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

// EditProfileInput はプロフィール作成・更新の入力パラメータ。
// 連携で作成されたプロフィールは password, gender, full_name, street_address が空のまま残るため、空文字を許容する。
type EditProfileInput struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password"`
	Gender        string `json:"gender"`
	FullName      string `json:"full_name"`
	StreetAddress string `json:"street_address"`
	Email         string `json:"email" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateInput は構造体の validate タグに従って入力を検証する。
func ValidateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

func (in EditProfileInput) apply(p *model.Profile) {
	p.Username = in.Username
	p.Password = in.Password
	p.Gender = in.Gender
	p.FullName = in.FullName
	p.StreetAddress = in.StreetAddress
	p.Email = in.Email
}

// CreateProfileUseCase はプロフィール作成ユースケース。
type CreateProfileUseCase struct {
	profileRepo repository.ProfileRepository
	publisher   ProfileEventPublisher
}

// NewCreateProfileUseCase は新しい CreateProfileUseCase を作成する。
func NewCreateProfileUseCase(profileRepo repository.ProfileRepository, publisher ProfileEventPublisher) *CreateProfileUseCase {
	return &CreateProfileUseCase{
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Execute は外部 ID を持たないプロフィールを作成する。
func (uc *CreateProfileUseCase) Execute(ctx context.Context, input EditProfileInput) (*model.Profile, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	profile := &model.Profile{Awards: []*model.Award{}}
	input.apply(profile)

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	publishProfileEvent(ctx, uc.publisher, model.EventProfileCreated, profile, "")

	return profile, nil
}

// EditProfileUseCase はプロフィール更新ユースケース。
type EditProfileUseCase struct {
	profileRepo repository.ProfileRepository
	publisher   ProfileEventPublisher
}

// NewEditProfileUseCase は新しい EditProfileUseCase を作成する。
func NewEditProfileUseCase(profileRepo repository.ProfileRepository, publisher ProfileEventPublisher) *EditProfileUseCase {
	return &EditProfileUseCase{
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Execute は既存プロフィールの編集可能な項目を置き換える。外部 ID と受賞歴は変更しない。
func (uc *EditProfileUseCase) Execute(ctx context.Context, id int64, input EditProfileInput) (*model.Profile, error) {
	if id <= 0 {
		return nil, ErrInvalidProfileID
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.apply(profile)

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	publishProfileEvent(ctx, uc.publisher, model.EventProfileUpdated, profile, "")

	return profile, nil
}
