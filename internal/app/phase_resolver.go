package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"war_alarm_bot/internal/domain/clash"
)

// Resolution is the outcome of one poll for one clan. At most one field is
// set; the zero value means no resolvable war phase this cycle.
type Resolution struct {
	// LeaguePrep is set when the clan's CWL group is in preparation. It is
	// authoritative: no normal-war active processing happens that cycle.
	LeaguePrep *clash.LeagueGroup
	// ActiveWar is set when a war (league round or normal) is in progress.
	ActiveWar *WarSnapshot
	// PrepWar is set when a normal war is in its preparation phase.
	PrepWar *clash.War
}

// WarSnapshot is an in-progress war normalised so the monitored clan is
// always the Clan side.
type WarSnapshot struct {
	War      *clash.War
	IsLeague bool
	Round    int // 1-based round number, league wars only
}

// MaxAttacks returns the per-member attack allowance for this war type.
func (w *WarSnapshot) MaxAttacks() int {
	if w.IsLeague {
		return 1
	}
	return 2
}

// PhaseResolver turns raw provider responses into a Resolution. Provider
// hiccups and malformed payloads downgrade to "nothing resolved"; a single
// clan's bad data must never abort the polling cycle.
type PhaseResolver struct {
	client clash.Client
	logger *logrus.Entry
}

func NewPhaseResolver(client clash.Client, logger *logrus.Entry) *PhaseResolver {
	return &PhaseResolver{client: client, logger: logger}
}

// Resolve determines the clan's current war phase. The league group is
// checked first; only when it yields nothing does the normal war count.
func (r *PhaseResolver) Resolve(ctx context.Context, clanTag string) Resolution {
	log := r.logger.WithField("clan_tag", clanTag)

	group, err := r.client.LeagueGroup(ctx, clanTag)
	if err != nil && !errors.Is(err, clash.ErrNotFound) {
		log.WithError(err).Warn("Could not fetch league group, continuing with normal war")
		group = nil
	}
	if group != nil {
		switch group.State {
		case clash.StatePreparation:
			return Resolution{LeaguePrep: group}
		case clash.StateInWar:
			if snap := r.findLeagueWar(ctx, clanTag, group, log); snap != nil {
				return Resolution{ActiveWar: snap}
			}
			// Group says inWar but no round war matched; fall through to
			// the normal war rather than resolving nothing.
		}
	}

	war, err := r.client.CurrentWar(ctx, clanTag)
	if err != nil {
		if !errors.Is(err, clash.ErrNotFound) {
			log.WithError(err).Warn("Could not fetch current war")
		}
		return Resolution{}
	}
	switch war.State {
	case clash.StateInWar:
		return Resolution{ActiveWar: &WarSnapshot{War: war}}
	case clash.StatePreparation:
		return Resolution{PrepWar: war}
	}
	return Resolution{}
}

// findLeagueWar locates the one round war the clan is currently fighting.
// Bye slots ("#0") are skipped, and when the clan appears as the opponent
// the sides are swapped so downstream code sees it as Clan.
func (r *PhaseResolver) findLeagueWar(ctx context.Context, clanTag string, group *clash.LeagueGroup, log *logrus.Entry) *WarSnapshot {
	for roundIdx, round := range group.Rounds {
		for _, warTag := range round.WarTags {
			if warTag == clash.ByeWarTag {
				continue
			}
			war, err := r.client.LeagueWar(ctx, warTag)
			if err != nil {
				if !errors.Is(err, clash.ErrNotFound) {
					log.WithError(err).WithField("war_tag", warTag).Warn("Could not fetch league war")
				}
				continue
			}
			if war.State != clash.StateInWar {
				continue
			}
			switch clanTag {
			case war.Clan.Tag:
				// already on the right side
			case war.Opponent.Tag:
				war.SwapSides()
			default:
				continue
			}
			return &WarSnapshot{War: war, IsLeague: true, Round: roundIdx + 1}
		}
	}
	return nil
}
