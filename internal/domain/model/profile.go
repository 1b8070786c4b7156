package model

import "time"

// Profile はユーザープロフィールを表すドメインエンティティ。
// ExternalID が設定されている場合、外部 IdP の subject と 1 対 1 で紐づく。
type Profile struct {
	ID            int64    `json:"id" db:"id"`
	Username      string   `json:"username" db:"username"`
	Password      string   `json:"password" db:"password"`
	Gender        string   `json:"gender" db:"gender"`
	FullName      string   `json:"full_name" db:"full_name"`
	StreetAddress string   `json:"street_address" db:"street_address"`
	Email         string   `json:"email" db:"email"`
	ExternalID    *string  `json:"external_id" db:"external_id"`
	Awards        []*Award `json:"awards" db:"-"`
}

// Award はプロフィールに授与された賞を表す。
// Award は所有者の Profile なしには存在しない。
type Award struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ProfileID int64     `json:"profile_id" db:"profile_id"`
}

// HasExternalID は外部 ID が紐づいているかを返す。
func (p *Profile) HasExternalID() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}
