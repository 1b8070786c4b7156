package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

// リンク結果のラベル。
const (
	LinkOutcomeExisting       = "existing"
	LinkOutcomeCreated        = "created"
	LinkOutcomeConflictReread = "conflict_reread"
)

// ResolveProfileUseCase は検証済みトークンの subject をローカルのプロフィールに対応付けるユースケース。
// 未知の subject の場合のみ IdP に問い合わせ、プロフィールを作成する。
type ResolveProfileUseCase struct {
	profileRepo repository.ProfileRepository
	fetcher     IdentityFetcher
	publisher   ProfileEventPublisher
	recorder    LinkRecorder
}

// ResolveProfileOption は ResolveProfileUseCase のオプション。
type ResolveProfileOption func(*ResolveProfileUseCase)

// WithLinkRecorder はリンク結果の計測先を設定する。
func WithLinkRecorder(recorder LinkRecorder) ResolveProfileOption {
	return func(uc *ResolveProfileUseCase) {
		uc.recorder = recorder
	}
}

// NewResolveProfileUseCase は新しい ResolveProfileUseCase を作成する。
func NewResolveProfileUseCase(
	profileRepo repository.ProfileRepository,
	fetcher IdentityFetcher,
	publisher ProfileEventPublisher,
	opts ...ResolveProfileOption,
) *ResolveProfileUseCase {
	uc := &ResolveProfileUseCase{
		profileRepo: profileRepo,
		fetcher:     fetcher,
		publisher:   publisher,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute はトークンの subject に対応するプロフィールを返す。存在しなければ作成する。
func (uc *ResolveProfileUseCase) Execute(ctx context.Context, token *model.AccessToken) (*model.Profile, error) {
	profile, err := uc.profileRepo.GetByExternalID(ctx, token.Subject)
	if err == nil {
		uc.observe(LinkOutcomeExisting)
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("lookup profile by external id: %w", err)
	}

	identity, err := uc.fetcher.FetchIdentity(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}

	externalID := token.Subject
	profile = &model.Profile{
		Username:   identity.Email(),
		FullName:   identity.DisplayName(),
		Email:      identity.Email(),
		ExternalID: &externalID,
		Awards:     []*model.Award{},
	}

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if !errors.Is(err, repository.ErrDuplicateExternalID) {
			return nil, fmt.Errorf("create linked profile: %w", err)
		}
		// 同一 subject の並行初回認証に負けた場合は既存行を読み直す
		existing, rerr := uc.profileRepo.GetByExternalID(ctx, token.Subject)
		if rerr != nil {
			return nil, fmt.Errorf("re-read linked profile: %w", rerr)
		}
		uc.observe(LinkOutcomeConflictReread)
		return existing, nil
	}

	uc.observe(LinkOutcomeCreated)
	publishProfileEvent(ctx, uc.publisher, model.EventProfileLinked, profile, "")

	return profile, nil
}

func (uc *ResolveProfileUseCase) observe(outcome string) {
	if uc.recorder != nil {
		uc.recorder.ObserveLink(outcome)
	}
}
