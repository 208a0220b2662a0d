package clash

// ByeWarTag marks an empty slot in a CWL round (odd number of clans).
const ByeWarTag = "#0"

// League group state values. The API reuses "preparation" and "inWar";
// a finished group reports "ended".
const StateEnded = "ended"

// LeagueGroup is the provider's view of a clan's current CWL season.
type LeagueGroup struct {
	State  string        `json:"state"`
	Season string        `json:"season"` // "2024-01"
	Clans  []LeagueClan  `json:"clans"`
	Rounds []LeagueRound `json:"rounds"`
}

// LeagueClan is one of the (usually eight) clans in a league group.
type LeagueClan struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// LeagueRound lists the war tags of one CWL round.
type LeagueRound struct {
	WarTags []string `json:"warTags"`
}

// ClanName returns the group's display name for the given tag, or "".
func (g *LeagueGroup) ClanName(tag string) string {
	for _, c := range g.Clans {
		if c.Tag == tag {
			return c.Name
		}
	}
	return ""
}

// FirstWarTag returns the first real (non-bye) war tag of the season, or "".
// During group preparation its startTime tells when the first round begins.
func (g *LeagueGroup) FirstWarTag() string {
	for _, r := range g.Rounds {
		for _, t := range r.WarTags {
			if t != ByeWarTag {
				return t
			}
		}
	}
	return ""
}
