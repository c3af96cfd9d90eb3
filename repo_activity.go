package identity

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewActivityLogRepository(db *bun.DB) repository.Repository[*ActivityRecord] {
	handlers := repository.ModelHandlers[*ActivityRecord]{
		NewRecord: func() *ActivityRecord {
			return &ActivityRecord{}
		},
		GetID: func(record *ActivityRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ActivityRecord, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

// ActivityLogSink persists activity events through the activity log
// repository. Writes are best-effort from the caller's perspective; failures
// are logged, never fatal.
type ActivityLogSink struct {
	repo   repository.Repository[*ActivityRecord]
	logger Logger
}

var _ ActivitySink = (*ActivityLogSink)(nil)

func NewActivityLogSink(repo repository.Repository[*ActivityRecord]) *ActivityLogSink {
	return &ActivityLogSink{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *ActivityLogSink) WithLogger(logger Logger) *ActivityLogSink {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Record implements ActivitySink.
func (s *ActivityLogSink) Record(ctx context.Context, event ActivityEvent) error {
	record := &ActivityRecord{
		ID:        uuid.New(),
		EventType: string(event.EventType),
		ActorID:   event.Actor.ID,
		ActorType: event.Actor.Type,
		AccountID: event.AccountID,
		Metadata:  event.Metadata,
	}

	if !event.OccurredAt.IsZero() {
		occurredAt := event.OccurredAt
		record.OccurredAt = &occurredAt
	}

	if _, err := s.repo.Create(ctx, record); err != nil {
		s.logger.Warn("failed to persist activity event",
			"event_type", record.EventType,
			"details", print.MaybePrettyJSON(event.Metadata),
			"error", err,
		)
		return err
	}

	return nil
}
