package clash

import "time"

// War state values as returned by the Clash of Clans API.
const (
	StateNotInWar    = "notInWar"
	StatePreparation = "preparation"
	StateInWar       = "inWar"
	StateWarEnded    = "warEnded"
)

// TimeLayout is the fixed timestamp format used by the Clash of Clans API,
// e.g. "20240117T061510.000Z".
const TimeLayout = "20060102T150405.000Z"

// War is the provider's view of one clan war (normal or CWL round war).
type War struct {
	State     string  `json:"state"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Clan      WarClan `json:"clan"`
	Opponent  WarClan `json:"opponent"`
	TeamSize  int     `json:"teamSize"`
}

// WarClan is one side of a war.
type WarClan struct {
	Tag                   string      `json:"tag"`
	Name                  string      `json:"name"`
	Stars                 int         `json:"stars"`
	DestructionPercentage float64     `json:"destructionPercentage"`
	Members               []WarMember `json:"members"`
}

// WarMember is a single participant on one side of a war.
type WarMember struct {
	Tag     string      `json:"tag"`
	Name    string      `json:"name"`
	Attacks []WarAttack `json:"attacks"`
}

// WarAttack is one attack made in a war. Only its presence matters here.
type WarAttack struct {
	AttackerTag string `json:"attackerTag"`
	DefenderTag string `json:"defenderTag"`
	Stars       int    `json:"stars"`
}

// ParseTime parses an API timestamp. A zero time is returned on failure;
// callers treat that as "no usable timestamp" rather than an error.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// TimeUntilEnd returns the remaining time before the war's end, measured
// from now. Malformed end timestamps yield zero, which deliberately sits
// outside every reminder band.
func (w *War) TimeUntilEnd(now time.Time) time.Duration {
	end, err := ParseTime(w.EndTime)
	if err != nil {
		return 0
	}
	return end.Sub(now)
}

// TimeUntilStart returns the remaining time before the war's active phase
// begins. During preparation the API's endTime points at the end of the
// active phase, one day after the war starts, so the start is endTime-24h.
func (w *War) TimeUntilStart(now time.Time) time.Duration {
	end, err := ParseTime(w.EndTime)
	if err != nil {
		return 0
	}
	return end.Add(-24 * time.Hour).Sub(now)
}

// SwapSides exchanges the clan and opponent entries. The resolver uses it
// so the monitored clan is always the Clan side downstream.
func (w *War) SwapSides() {
	w.Clan, w.Opponent = w.Opponent, w.Clan
}

// MissingAttacks returns, for every member of the clan side that still has
// attacks left, the number of attacks owed. maxAttacks is 2 for normal wars
// and 1 for CWL round wars.
func (w *War) MissingAttacks(maxAttacks int) map[string]int {
	missing := make(map[string]int)
	for _, m := range w.Clan.Members {
		if used := len(m.Attacks); used < maxAttacks {
			missing[m.Tag] = maxAttacks - used
		}
	}
	return missing
}
