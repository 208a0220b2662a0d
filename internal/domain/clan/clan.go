package clan

import "time"

// Clan is a monitored clan registered by a chat.
// The registering chat ID scopes every other record for this clan;
// two chats may monitor the same tag independently.
type Clan struct {
	ChatID         int64  // Telegram chat that registered the clan
	Tag            string // Clash of Clans clan tag, e.g. "#2PP0V9LY"
	Name           string
	ReminderChatID int64 // chat that receives war reminders
	CreatedAt      time.Time
}

// PlayerLink maps a Telegram user to the player tags they own, per chat.
// One user may link several accounts; the model does not stop two users
// from claiming the same tag.
type PlayerLink struct {
	ChatID     int64
	UserID     int64
	PlayerTags []string
	UpdatedAt  time.Time
}

// PrepWatch configures preparation-phase reminders for one clan.
// NotifierIDs is a set: assigning an already-assigned user is a no-op.
type PrepWatch struct {
	ChatID      int64
	ClanTag     string
	PrepChatID  int64 // chat that receives preparation reminders
	NotifierIDs []int64
	UpdatedAt   time.Time
}

// HasNotifier reports whether the user is already in the notifier set.
func (w *PrepWatch) HasNotifier(userID int64) bool {
	for _, id := range w.NotifierIDs {
		if id == userID {
			return true
		}
	}
	return false
}
