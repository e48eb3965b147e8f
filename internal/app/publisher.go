// internal/app/publisher.go
package app

import (
	"context"
	"fmt"
	"time"

	"gathering_notification_service/internal/domain/notification"
	idb "gathering_notification_service/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PublishAction is what a publish attempt did to the notification store.
type PublishAction string

const (
	ActionCreated PublishAction = "created"
	ActionUpdated PublishAction = "updated"
	ActionSkipped PublishAction = "skipped"
)

// Publisher is the single dedup/write path both processors converge on. A
// notification for a (ruleKind, gathering, version) key is created at most
// once; later publishes refresh the same record in place. Only gating
// differs between the callers.
type Publisher struct {
	recordRepo notification.RecordRepository
	logger     *logrus.Entry
}

func NewPublisher(rr notification.RecordRepository, logger *logrus.Entry) *Publisher {
	return &Publisher{recordRepo: rr, logger: logger}
}

// Publish writes the payload to the notification store. With bump set (the
// manual path), an updated record also gets its read statuses cleared and
// SentAt moved forward so it surfaces as new.
func (p *Publisher) Publish(ctx context.Context, payload *notification.Payload, bump bool) (PublishAction, *notification.Record, error) {
	existing, err := p.recordRepo.FindByDedupKey(ctx, payload.DedupKey())
	if err != nil && err != idb.ErrNotificationNotFound {
		return "", nil, fmt.Errorf("failed to look up existing notification: %w", err)
	}

	now := time.Now()
	if existing == nil {
		rec := &notification.Record{
			ID:          uuid.NewString(),
			Category:    notification.CategoryGathering,
			Title:       payload.Title(),
			Description: payload.Description(),
			Payload:     payload,
			IsPublic:    true,
			SentAt:      now,
		}
		if err := p.recordRepo.Create(ctx, rec); err != nil {
			return "", nil, fmt.Errorf("failed to create notification record: %w", err)
		}
		p.logger.WithFields(logrus.Fields{
			"record_id":    rec.ID,
			"rule_kind":    payload.RuleKind,
			"gathering_id": payload.GatheringUID,
		}).Info("Notification record created")
		return ActionCreated, rec, nil
	}

	existing.Title = payload.Title()
	existing.Description = payload.Description()
	existing.Payload = payload
	if bump {
		existing.SentAt = now
	}
	if err := p.recordRepo.Update(ctx, existing); err != nil {
		return "", nil, fmt.Errorf("failed to update notification record %s: %w", existing.ID, err)
	}
	if bump {
		if err := p.recordRepo.ClearReadStatuses(ctx, existing.ID); err != nil {
			return "", nil, fmt.Errorf("failed to clear read statuses for %s: %w", existing.ID, err)
		}
	}
	p.logger.WithFields(logrus.Fields{
		"record_id":    existing.ID,
		"rule_kind":    payload.RuleKind,
		"gathering_id": payload.GatheringUID,
		"bumped":       bump,
	}).Info("Notification record updated")
	return ActionUpdated, existing, nil
}
