package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/infra/storage"
)

// Custom errors
var ErrClanNotFound = fmt.Errorf("clan not found")

// clanRecord is the persisted form of a monitored clan. Field names are the
// document schema; keep them stable.
type clanRecord struct {
	ChatID         int64     `json:"chat_id"`
	Tag            string    `json:"tag"`
	Name           string    `json:"name"`
	ReminderChatID int64     `json:"reminder_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClanRepository struct {
	store storage.Store
}

func NewClanRepository(store storage.Store) *ClanRepository {
	return &ClanRepository{store: store}
}

func (r *ClanRepository) Upsert(ctx context.Context, c *clan.Clan) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	rec := clanRecord{
		ChatID:         c.ChatID,
		Tag:            c.Tag,
		Name:           c.Name,
		ReminderChatID: c.ReminderChatID,
		CreatedAt:      c.CreatedAt,
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error marshaling clan record: %w", err)
	}
	if err := r.store.Put(ctx, storage.KindClans, clanKey(c.ChatID, c.Tag), value); err != nil {
		return fmt.Errorf("error storing clan %s: %w", c.Tag, err)
	}
	return nil
}

func (r *ClanRepository) Get(ctx context.Context, chatID int64, tag string) (*clan.Clan, error) {
	value, err := r.store.Get(ctx, storage.KindClans, clanKey(chatID, tag))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrClanNotFound
		}
		return nil, fmt.Errorf("error getting clan %s: %w", tag, err)
	}
	return decodeClan(value)
}

func (r *ClanRepository) ListAll(ctx context.Context) ([]*clan.Clan, error) {
	docs, err := r.store.List(ctx, storage.KindClans)
	if err != nil {
		return nil, fmt.Errorf("error listing clans: %w", err)
	}
	clans := make([]*clan.Clan, 0, len(docs))
	for _, value := range docs {
		c, err := decodeClan(value)
		if err != nil {
			// One bad record must not hide the rest.
			continue
		}
		clans = append(clans, c)
	}
	sort.Slice(clans, func(i, j int) bool {
		if clans[i].ChatID != clans[j].ChatID {
			return clans[i].ChatID < clans[j].ChatID
		}
		return clans[i].Tag < clans[j].Tag
	})
	return clans, nil
}

func (r *ClanRepository) ListByChat(ctx context.Context, chatID int64) ([]*clan.Clan, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	clans := make([]*clan.Clan, 0)
	for _, c := range all {
		if c.ChatID == chatID {
			clans = append(clans, c)
		}
	}
	return clans, nil
}

func (r *ClanRepository) ChatsMonitoring(ctx context.Context, tag string) ([]int64, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	chats := make([]int64, 0)
	for _, c := range all {
		if c.Tag == tag {
			chats = append(chats, c.ChatID)
		}
	}
	return chats, nil
}

func (r *ClanRepository) Delete(ctx context.Context, chatID int64, tag string) error {
	// The store has no delete; an empty value marks the record removed and
	// decodeClan filters it out everywhere.
	if err := r.store.Put(ctx, storage.KindClans, clanKey(chatID, tag), []byte("null")); err != nil {
		return fmt.Errorf("error deleting clan %s: %w", tag, err)
	}
	return nil
}

func decodeClan(value []byte) (*clan.Clan, error) {
	var rec *clanRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("error unmarshaling clan record: %w", err)
	}
	if rec == nil || rec.Tag == "" {
		return nil, ErrClanNotFound
	}
	return &clan.Clan{
		ChatID:         rec.ChatID,
		Tag:            rec.Tag,
		Name:           rec.Name,
		ReminderChatID: rec.ReminderChatID,
		CreatedAt:      rec.CreatedAt,
	}, nil
}
