package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

const (
	profileColumns = "id, username, password, gender, full_name, street_address, email, external_id"
	awardColumns   = "id, title, created_at, profile_id"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ProfileRepositoryImpl は ProfileRepository の PostgreSQL 実装。
type ProfileRepositoryImpl struct {
	db *DB
}

// NewProfileRepository は新しい ProfileRepositoryImpl を作成する。
func NewProfileRepository(db *DB) *ProfileRepositoryImpl {
	return &ProfileRepositoryImpl{db: db}
}

// GetByID は ID からプロフィールを受賞歴付きで取得する。
func (r *ProfileRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
}

// GetByExternalID は外部 ID からプロフィールを受賞歴付きで取得する。
func (r *ProfileRepositoryImpl) GetByExternalID(ctx context.Context, externalID string) (*model.Profile, error) {
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE external_id = $1", externalID)
}

func (r *ProfileRepositoryImpl) getOne(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.conn.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profiles := []*model.Profile{&p}
	if err := r.loadAwards(ctx, profiles); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create はプロフィールを保存し、採番された ID を設定する。
func (r *ProfileRepositoryImpl) Create(ctx context.Context, p *model.Profile) error {
	query := `INSERT INTO profiles (username, password, gender, full_name, street_address, email, external_id)
	           VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.db.conn.QueryRowxContext(ctx, query,
		p.Username, p.Password, p.Gender, p.FullName, p.StreetAddress, p.Email, p.ExternalID,
	).Scan(&p.ID)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	if p.Awards == nil {
		p.Awards = []*model.Award{}
	}
	return nil
}

// Update は編集可能な属性を置き換える。external_id は変更しない。
func (r *ProfileRepositoryImpl) Update(ctx context.Context, p *model.Profile) error {
	query := `UPDATE profiles SET username = $1, password = $2, gender = $3, full_name = $4,
	           street_address = $5, email = $6 WHERE id = $7`

	result, err := r.db.conn.ExecContext(ctx, query,
		p.Username, p.Password, p.Gender, p.FullName, p.StreetAddress, p.Email, p.ID,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrProfileNotFound
	}
	return nil
}

// AddAward はプロフィールに賞を追加する。created_at は DB が設定する。
func (r *ProfileRepositoryImpl) AddAward(ctx context.Context, profileID int64, title string) (*model.Award, error) {
	query := `INSERT INTO awards (title, profile_id) VALUES ($1, $2) RETURNING ` + awardColumns

	var award model.Award
	if err := r.db.conn.GetContext(ctx, &award, query, title, profileID); err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to insert award: %w", err)
	}
	return &award, nil
}

// List はプロフィール一覧を ID 順にページネーション付きで取得する。
func (r *ProfileRepositoryImpl) List(ctx context.Context, params repository.ProfileListParams) ([]*model.Profile, int, error) {
	var totalCount int
	if err := r.db.conn.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM profiles"); err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var profiles []*model.Profile
	query := "SELECT " + profileColumns + " FROM profiles ORDER BY id LIMIT $1 OFFSET $2"
	if err := r.db.conn.SelectContext(ctx, &profiles, query, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to query profiles: %w", err)
	}

	if err := r.loadAwards(ctx, profiles); err != nil {
		return nil, 0, err
	}
	return profiles, totalCount, nil
}

// Healthy はデータベースへの接続を確認する。
func (r *ProfileRepositoryImpl) Healthy(ctx context.Context) error {
	return r.db.Healthy(ctx)
}

// loadAwards は複数プロフィールの受賞歴を 1 クエリで読み込み、作成順に割り当てる。
func (r *ProfileRepositoryImpl) loadAwards(ctx context.Context, profiles []*model.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Profile, len(profiles))
	ids := make([]int64, 0, len(profiles))
	for _, p := range profiles {
		p.Awards = []*model.Award{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query, args, err := sqlx.In(
		"SELECT "+awardColumns+" FROM awards WHERE profile_id IN (?) ORDER BY created_at, id", ids)
	if err != nil {
		return fmt.Errorf("failed to build award query: %w", err)
	}

	var awards []*model.Award
	if err := r.db.conn.SelectContext(ctx, &awards, r.db.conn.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to query awards: %w", err)
	}
	for _, a := range awards {
		if p, ok := byID[a.ProfileID]; ok {
			p.Awards = append(p.Awards, a)
		}
	}
	return nil
}

// mapConstraintError は PostgreSQL の制約違反をドメインエラーに変換する。
func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		switch pqErr.Constraint {
		case "profiles_external_id_key":
			return repository.ErrDuplicateExternalID
		case "profiles_username_key":
			return repository.ErrDuplicateUsername
		}
	case pgForeignKeyViolation:
		return repository.ErrProfileNotFound
	}
	return nil
}
