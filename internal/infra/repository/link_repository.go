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

var ErrLinkNotFound = fmt.Errorf("player link not found")

type linkRecord struct {
	ChatID     int64     `json:"chat_id"`
	UserID     int64     `json:"user_id"`
	PlayerTags []string  `json:"player_tags"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LinkRepository struct {
	store storage.Store
}

func NewLinkRepository(store storage.Store) *LinkRepository {
	return &LinkRepository{store: store}
}

func (r *LinkRepository) Upsert(ctx context.Context, l *clan.PlayerLink) error {
	l.UpdatedAt = time.Now().UTC()
	rec := linkRecord{
		ChatID:     l.ChatID,
		UserID:     l.UserID,
		PlayerTags: l.PlayerTags,
		UpdatedAt:  l.UpdatedAt,
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error marshaling player link: %w", err)
	}
	if err := r.store.Put(ctx, storage.KindPlayerLinks, linkKey(l.ChatID, l.UserID), value); err != nil {
		return fmt.Errorf("error storing player link for user %d: %w", l.UserID, err)
	}
	return nil
}

func (r *LinkRepository) Get(ctx context.Context, chatID, userID int64) (*clan.PlayerLink, error) {
	value, err := r.store.Get(ctx, storage.KindPlayerLinks, linkKey(chatID, userID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("error getting player link for user %d: %w", userID, err)
	}
	return decodeLink(value)
}

func (r *LinkRepository) ListByChat(ctx context.Context, chatID int64) ([]*clan.PlayerLink, error) {
	docs, err := r.store.List(ctx, storage.KindPlayerLinks)
	if err != nil {
		return nil, fmt.Errorf("error listing player links: %w", err)
	}
	links := make([]*clan.PlayerLink, 0)
	for key, value := range docs {
		if !hasChatPrefix(key, chatID) {
			continue
		}
		l, err := decodeLink(value)
		if err != nil {
			continue
		}
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].UserID < links[j].UserID })
	return links, nil
}

func (r *LinkRepository) Delete(ctx context.Context, chatID, userID int64) error {
	if err := r.store.Put(ctx, storage.KindPlayerLinks, linkKey(chatID, userID), []byte("null")); err != nil {
		return fmt.Errorf("error deleting player link for user %d: %w", userID, err)
	}
	return nil
}

func decodeLink(value []byte) (*clan.PlayerLink, error) {
	var rec *linkRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("error unmarshaling player link: %w", err)
	}
	if rec == nil || len(rec.PlayerTags) == 0 {
		return nil, ErrLinkNotFound
	}
	return &clan.PlayerLink{
		ChatID:     rec.ChatID,
		UserID:     rec.UserID,
		PlayerTags: rec.PlayerTags,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
