package clan

import "context"

// Repository defines persistence operations for monitored clans.
type Repository interface {
	Upsert(ctx context.Context, c *Clan) error
	Get(ctx context.Context, chatID int64, tag string) (*Clan, error)
	// ListAll returns every monitored clan across all chats, ordered by
	// (chat ID, tag) so a polling pass is deterministic.
	ListAll(ctx context.Context) ([]*Clan, error)
	ListByChat(ctx context.Context, chatID int64) ([]*Clan, error)
	// ChatsMonitoring returns the chat IDs that monitor the given tag.
	// Used only for the duplicate-registration advisory.
	ChatsMonitoring(ctx context.Context, tag string) ([]int64, error)
	Delete(ctx context.Context, chatID int64, tag string) error
}

// LinkRepository defines persistence operations for player links.
type LinkRepository interface {
	Upsert(ctx context.Context, l *PlayerLink) error
	Get(ctx context.Context, chatID, userID int64) (*PlayerLink, error)
	ListByChat(ctx context.Context, chatID int64) ([]*PlayerLink, error)
	Delete(ctx context.Context, chatID, userID int64) error
}

// WatchRepository defines persistence operations for preparation watches.
type WatchRepository interface {
	Upsert(ctx context.Context, w *PrepWatch) error
	Get(ctx context.Context, chatID int64, clanTag string) (*PrepWatch, error)
}
