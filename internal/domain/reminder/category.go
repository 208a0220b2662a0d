package reminder

import "time"

// Category identifies one reminder kind. Each (chat, clan, war instance,
// category) pair fires at most once.
type Category string

const (
	// End-of-war reminders, one per threshold.
	CategoryRoutine Category = "END_60_MIN" // 60 minutes remaining
	CategoryUrgent  Category = "END_30_MIN" // 30 minutes remaining
	CategoryFinal   Category = "END_15_MIN" // 15 minutes remaining

	// Single preparation-phase reminder per war instance.
	CategoryPrep Category = "PREP"
)

// Poll cadence the bands are sized against.
const pollInterval = time.Minute

// Preparation reminders use a wide band because preparation length varies
// between war types; missing the single opportunity is worse than firing
// early within the hour before the war starts.
const (
	prepBandUpper = 65 * time.Minute
	prepBandLower = 25 * time.Minute
)

var endThresholds = []struct {
	at       time.Duration
	category Category
}{
	{60 * time.Minute, CategoryRoutine},
	{30 * time.Minute, CategoryUrgent},
	{15 * time.Minute, CategoryFinal},
}

// EndBand maps remaining war time onto an end-of-war reminder category.
// Each band is half-open, (threshold-1m, threshold], so with a one-minute
// poll cadence a band is normally visited exactly once. Remaining time of
// zero or less never matches: malformed timestamps collapse to zero and
// must stay silent.
func EndBand(remaining time.Duration) (Category, bool) {
	if remaining <= 0 {
		return "", false
	}
	for _, t := range endThresholds {
		if remaining <= t.at && remaining > t.at-pollInterval {
			return t.category, true
		}
	}
	return "", false
}

// InPrepBand reports whether the remaining preparation time sits inside the
// single preparation-reminder window (65 down to 25 minutes before the war
// starts). The firing itself is gated by the per-instance sent flag, so the
// width of the band cannot cause duplicates.
func InPrepBand(remaining time.Duration) bool {
	return remaining > prepBandLower && remaining <= prepBandUpper
}
