package repository

import (
	"context"
	"errors"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

var (
	// ErrProfileNotFound はプロフィールが存在しない場合のエラー。
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDuplicateExternalID は external_id の一意制約違反を表す。
	ErrDuplicateExternalID = errors.New("profile with external id already exists")
	// ErrDuplicateUsername は username の一意制約違反を表す。
	ErrDuplicateUsername = errors.New("profile with username already exists")
)

// ProfileRepository はプロフィールと賞の永続化インターフェース。
// 返却される Profile は常に Awards を作成順で保持する。
type ProfileRepository interface {
	// GetByID は ID からプロフィールを取得する。
	GetByID(ctx context.Context, id int64) (*model.Profile, error)

	// GetByExternalID は外部 IdP の subject からプロフィールを取得する。
	GetByExternalID(ctx context.Context, externalID string) (*model.Profile, error)

	// Create はプロフィールを作成し、採番された ID を設定する。
	// external_id が重複する場合は ErrDuplicateExternalID を返す。
	Create(ctx context.Context, profile *model.Profile) error

	// Update は編集可能な属性を置き換える。
	Update(ctx context.Context, profile *model.Profile) error

	// AddAward はプロフィールに賞を追加する。プロフィールが存在しない場合は ErrProfileNotFound を返す。
	AddAward(ctx context.Context, profileID int64, title string) (*model.Award, error)

	// List はプロフィール一覧をページネーション付きで取得する。
	List(ctx context.Context, params ProfileListParams) ([]*model.Profile, int, error)

	// Healthy は接続確認を行う。
	Healthy(ctx context.Context) error
}

// ProfileListParams はプロフィール一覧取得のパラメータ。
type ProfileListParams struct {
	Page     int
	PageSize int
}
