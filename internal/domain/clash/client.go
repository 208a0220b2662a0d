package clash

import (
	"context"
	"fmt"
)

// ErrNotFound is returned when the API answers 404 for a tag: the clan has
// no current war, no league group, or the war tag is unknown. It is a final
// answer, not a transient failure, and is never retried.
var ErrNotFound = fmt.Errorf("clash: not found")

// Client defines the Clash of Clans API operations the bot consumes.
// Keeping it here decouples the application services from the HTTP client
// and lets tests substitute fakes.
type Client interface {
	// CurrentWar fetches the clan's normal war, if any.
	CurrentWar(ctx context.Context, clanTag string) (*War, error)
	// LeagueGroup fetches the clan's current CWL season, if any.
	LeagueGroup(ctx context.Context, clanTag string) (*LeagueGroup, error)
	// LeagueWar fetches one CWL round war by its war tag.
	LeagueWar(ctx context.Context, warTag string) (*War, error)
}
