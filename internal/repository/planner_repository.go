package repository

import (
	"context"
	"errors"
	"strings"

	"taskplanner/internal/model"
)

// TimeBlockRepository keeps one block list per calendar date.
type TimeBlockRepository struct {
	kv KV
}

func NewTimeBlockRepository(kv KV) *TimeBlockRepository {
	return &TimeBlockRepository{kv: kv}
}

func (r *TimeBlockRepository) List(ctx context.Context, date string) ([]model.TimeBlock, error) {
	return loadList[model.TimeBlock](ctx, r.kv, TimeBlocksKey(date))
}

func (r *TimeBlockRepository) ReplaceAll(ctx context.Context, date string, blocks []model.TimeBlock) error {
	return r.kv.Save(ctx, TimeBlocksKey(date), blocks)
}

// Dates lists every date that has a stored block list, oldest first.
func (r *TimeBlockRepository) Dates(ctx context.Context) ([]string, error) {
	lister, ok := r.kv.(KeyLister)
	if !ok {
		return nil, errors.New("repository: store cannot list keys")
	}
	keys, err := lister.Keys(ctx, timeBlocksPrefix)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(keys))
	for _, key := range keys {
		dates = append(dates, strings.TrimPrefix(key, timeBlocksPrefix))
	}
	return dates, nil
}

// CalendarEventRepository holds the merged event list across all dates.
type CalendarEventRepository struct {
	kv KV
}

func NewCalendarEventRepository(kv KV) *CalendarEventRepository {
	return &CalendarEventRepository{kv: kv}
}

func (r *CalendarEventRepository) List(ctx context.Context) ([]model.CalendarEvent, error) {
	return loadList[model.CalendarEvent](ctx, r.kv, KeyCalendarEvents)
}

func (r *CalendarEventRepository) ReplaceAll(ctx context.Context, events []model.CalendarEvent) error {
	return r.kv.Save(ctx, KeyCalendarEvents, events)
}
