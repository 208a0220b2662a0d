package reminder

import "context"

// Repository persists reminder sent-flags. Every key carries the owning
// chat ID; identical clan tags under different chats never share state.
type Repository interface {
	// Get returns the state for the given instance and category.
	// A never-written flag comes back as a zero State, not an error.
	Get(ctx context.Context, chatID int64, clanTag, warID string, cat Category) (*State, error)
	// MarkSent sets the flag to true.
	MarkSent(ctx context.Context, chatID int64, clanTag, warID string, cat Category) error
	// Reset clears the flag (administrative use only).
	Reset(ctx context.Context, chatID int64, clanTag, warID string, cat Category) error
}
