package model

import "time"

// ProfileEventType はプロフィールイベントの種別。
type ProfileEventType string

const (
	EventProfileCreated ProfileEventType = "profile.created"
	EventProfileLinked  ProfileEventType = "profile.linked"
	EventProfileUpdated ProfileEventType = "profile.updated"
	EventAwardBestowed  ProfileEventType = "award.bestowed"
)

// ProfileEvent はプロフィールの変更を通知するドメインイベント。
type ProfileEvent struct {
	ID         string           `json:"id"`
	Type       ProfileEventType `json:"type"`
	ProfileID  int64            `json:"profile_id"`
	ExternalID string           `json:"external_id,omitempty"`
	AwardTitle string           `json:"award_title,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
