package reminder

import (
	"fmt"
	"time"
)

// State is the durable sent-flag for one (war instance, category) pair.
// The flag flips false→true exactly once; it is cleared only by the
// administrative reset or implicitly when a new instance begins under a
// fresh war ID.
type State struct {
	Sent      bool      `json:"sent"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarID derives the stable instance identifier of a war from its end
// timestamp. Repeated polls of the same unfinished war return the same
// endTime string, so they all map onto one state row.
func WarID(endTime string) string {
	return endTime
}

// LeaguePrepID derives the instance identifier of a CWL preparation phase.
// The league season ("2024-01") keys it; when the season field is missing
// the current UTC year-month stands in, which is what the season would be.
func LeaguePrepID(season string, now time.Time) string {
	if season == "" {
		season = now.UTC().Format("2006-01")
	}
	return fmt.Sprintf("cwl_prep_%s", season)
}
