package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/infra/storage"
)

var ErrWatchNotFound = fmt.Errorf("prep watch not found")

type watchRecord struct {
	ChatID      int64     `json:"chat_id"`
	ClanTag     string    `json:"clan_tag"`
	PrepChatID  int64     `json:"prep_chat_id"`
	NotifierIDs []int64   `json:"notifier_ids"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WatchRepository struct {
	store storage.Store
}

func NewWatchRepository(store storage.Store) *WatchRepository {
	return &WatchRepository{store: store}
}

func (r *WatchRepository) Upsert(ctx context.Context, w *clan.PrepWatch) error {
	w.UpdatedAt = time.Now().UTC()
	rec := watchRecord{
		ChatID:      w.ChatID,
		ClanTag:     w.ClanTag,
		PrepChatID:  w.PrepChatID,
		NotifierIDs: w.NotifierIDs,
		UpdatedAt:   w.UpdatedAt,
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error marshaling prep watch: %w", err)
	}
	if err := r.store.Put(ctx, storage.KindPrepWatches, watchKey(w.ChatID, w.ClanTag), value); err != nil {
		return fmt.Errorf("error storing prep watch for clan %s: %w", w.ClanTag, err)
	}
	return nil
}

func (r *WatchRepository) Get(ctx context.Context, chatID int64, clanTag string) (*clan.PrepWatch, error) {
	value, err := r.store.Get(ctx, storage.KindPrepWatches, watchKey(chatID, clanTag))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWatchNotFound
		}
		return nil, fmt.Errorf("error getting prep watch for clan %s: %w", clanTag, err)
	}
	var rec *watchRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("error unmarshaling prep watch: %w", err)
	}
	if rec == nil {
		return nil, ErrWatchNotFound
	}
	return &clan.PrepWatch{
		ChatID:      rec.ChatID,
		ClanTag:     rec.ClanTag,
		PrepChatID:  rec.PrepChatID,
		NotifierIDs: rec.NotifierIDs,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}
