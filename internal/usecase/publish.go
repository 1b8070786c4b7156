package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
)

// publishProfileEvent はイベントを配信する。DB への書き込みが正であるため、配信エラーはログのみ。
func publishProfileEvent(ctx context.Context, publisher ProfileEventPublisher, eventType model.ProfileEventType, profile *model.Profile, awardTitle string) {
	if publisher == nil {
		return
	}
	event := &model.ProfileEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ProfileID:  profile.ID,
		AwardTitle: awardTitle,
		OccurredAt: time.Now().UTC(),
	}
	if profile.ExternalID != nil {
		event.ExternalID = *profile.ExternalID
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish profile event",
			slog.String("event_type", string(eventType)),
			slog.Int64("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
	}
}
