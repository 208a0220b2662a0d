package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"war_alarm_bot/internal/domain/reminder"
	"war_alarm_bot/internal/infra/storage"
)

// ReminderRepository persists the sent-flags that gate every reminder.
// This is the one collection where a stale read could cause a duplicate
// message, so it always goes through the store (no extra caching here).
type ReminderRepository struct {
	store storage.Store
}

func NewReminderRepository(store storage.Store) *ReminderRepository {
	return &ReminderRepository{store: store}
}

func (r *ReminderRepository) Get(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) (*reminder.State, error) {
	value, err := r.store.Get(ctx, storage.KindReminders, reminderKey(chatID, clanTag, warID, cat))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// A flag that was never written is simply unsent.
			return &reminder.State{}, nil
		}
		return nil, fmt.Errorf("error getting reminder state: %w", err)
	}
	var st reminder.State
	if err := json.Unmarshal(value, &st); err != nil {
		return nil, fmt.Errorf("error unmarshaling reminder state: %w", err)
	}
	return &st, nil
}

func (r *ReminderRepository) MarkSent(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) error {
	return r.put(ctx, chatID, clanTag, warID, cat, true)
}

func (r *ReminderRepository) Reset(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) error {
	return r.put(ctx, chatID, clanTag, warID, cat, false)
}

func (r *ReminderRepository) put(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category, sent bool) error {
	st := reminder.State{Sent: sent, UpdatedAt: time.Now().UTC()}
	value, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("error marshaling reminder state: %w", err)
	}
	if err := r.store.Put(ctx, storage.KindReminders, reminderKey(chatID, clanTag, warID, cat), value); err != nil {
		return fmt.Errorf("error storing reminder state: %w", err)
	}
	return nil
}
