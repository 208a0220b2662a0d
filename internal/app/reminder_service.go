package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/domain/clash"
	"war_alarm_bot/internal/domain/reminder"
	domainTelegram "war_alarm_bot/internal/domain/telegram"
	idb "war_alarm_bot/internal/infra/repository"
)

// ReminderService runs the per-minute polling cycle: resolve each monitored
// clan's war phase, decide whether a reminder threshold was entered, and
// send at most one message per (war instance, category).
type ReminderService struct {
	clanRepo     clan.Repository
	linkRepo     clan.LinkRepository
	watchRepo    clan.WatchRepository
	reminderRepo reminder.Repository
	resolver     *PhaseResolver
	telegram     domainTelegram.Client
	logger       *logrus.Entry

	now func() time.Time // injectable for tests
}

func NewReminderService(
	clanRepo clan.Repository,
	linkRepo clan.LinkRepository,
	watchRepo clan.WatchRepository,
	reminderRepo reminder.Repository,
	resolver *PhaseResolver,
	telegramClient domainTelegram.Client,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		clanRepo:     clanRepo,
		linkRepo:     linkRepo,
		watchRepo:    watchRepo,
		reminderRepo: reminderRepo,
		resolver:     resolver,
		telegram:     telegramClient,
		logger:       logger,
		now:          time.Now,
	}
}

// RunCycle performs one full pass over every monitored clan of every chat,
// in deterministic order. Each clan is processed in isolation: its failure
// is logged and the pass moves on.
func (s *ReminderService) RunCycle(ctx context.Context) {
	s.logger.Debug("Starting reminder check cycle")

	clans, err := s.clanRepo.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Could not list monitored clans, skipping cycle")
		return
	}

	for _, c := range clans {
		s.checkClanGuarded(ctx, c)
	}

	s.logger.Debug("Completed reminder check cycle")
}

// WarStatus resolves the clan's current war and renders the on-demand
// summary used by the status command.
func (s *ReminderService) WarStatus(ctx context.Context, c *clan.Clan) string {
	res := s.resolver.Resolve(ctx, c.Tag)
	switch {
	case res.ActiveWar != nil:
		snap := res.ActiveWar
		links, err := s.linkRepo.ListByChat(ctx, c.ChatID)
		if err != nil {
			s.logger.WithError(err).WithField("chat_id", c.ChatID).Warn("Could not load player links for status")
			links = nil
		}
		remaining := snap.War.TimeUntilEnd(s.now())
		return FormatWarStatus(snap, remaining, snap.War.MissingAttacks(snap.MaxAttacks()), links)
	case res.LeaguePrep != nil:
		return fmt.Sprintf("⚔️ CWL for %s (%s) is in the preparation phase.", c.Name, c.Tag)
	case res.PrepWar != nil:
		return fmt.Sprintf("⚔️ %s (%s) is preparing for war.", c.Name, c.Tag)
	}
	return fmt.Sprintf("%s (%s) is not in any active war.", c.Name, c.Tag)
}

// checkClanGuarded isolates a single clan's processing so that neither an
// error nor a panic can abort the remaining clans of the cycle.
func (s *ReminderService) checkClanGuarded(ctx context.Context, c *clan.Clan) {
	log := s.logger.WithFields(logrus.Fields{"chat_id": c.ChatID, "clan_tag": c.Tag})
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("Panic while processing clan, continuing cycle")
		}
	}()
	if err := s.checkClan(ctx, c); err != nil {
		log.WithError(err).Error("Failed to process clan, continuing cycle")
	}
}

func (s *ReminderService) checkClan(ctx context.Context, c *clan.Clan) error {
	res := s.resolver.Resolve(ctx, c.Tag)
	switch {
	case res.ActiveWar != nil:
		return s.processActiveWar(ctx, c, res.ActiveWar)
	case res.LeaguePrep != nil:
		return s.processLeaguePrep(ctx, c, res.LeaguePrep)
	case res.PrepWar != nil:
		return s.processWarPrep(ctx, c, res.PrepWar)
	}
	return nil
}

// processActiveWar fires the 60/30/15-minute end-of-war reminders.
func (s *ReminderService) processActiveWar(ctx context.Context, c *clan.Clan, snap *WarSnapshot) error {
	if _, err := clash.ParseTime(snap.War.EndTime); err != nil {
		// Remaining time collapses to zero below, which matches no band.
		s.logger.WithFields(logrus.Fields{"clan_tag": c.Tag, "end_time": snap.War.EndTime}).
			Error("Malformed war end time, no reminder will fire")
	}
	remaining := snap.War.TimeUntilEnd(s.now())
	cat, ok := reminder.EndBand(remaining)
	if !ok {
		return nil
	}

	warID := reminder.WarID(snap.War.EndTime)
	state, err := s.reminderRepo.Get(ctx, c.ChatID, c.Tag, warID, cat)
	if err != nil {
		return fmt.Errorf("failed to read reminder state: %w", err)
	}
	if state.Sent {
		return nil
	}

	missing := snap.War.MissingAttacks(snap.MaxAttacks())
	if len(missing) == 0 {
		// Everyone attacked: no message, just a note in the log.
		s.logger.WithFields(logrus.Fields{"clan_tag": c.Tag, "category": cat}).
			Info("All players have attacked, suppressing reminder")
		return nil
	}

	links, err := s.linkRepo.ListByChat(ctx, c.ChatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", c.ChatID).Warn("Could not load player links, sending reminder without mentions")
		links = nil
	}

	text := composeEndReminder(c, snap, cat, remaining, missing, links)
	if err := s.telegram.SendMessage(c.ReminderChatID, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}); err != nil {
		return fmt.Errorf("failed to send %s reminder: %w", cat, err)
	}
	if err := s.reminderRepo.MarkSent(ctx, c.ChatID, c.Tag, warID, cat); err != nil {
		return fmt.Errorf("failed to persist reminder flag: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"clan_tag": c.Tag, "category": cat, "war_id": warID}).
		Info("Sent end-of-war reminder")
	return nil
}

// processWarPrep fires the single preparation reminder of a normal war.
func (s *ReminderService) processWarPrep(ctx context.Context, c *clan.Clan, war *clash.War) error {
	remaining := war.TimeUntilStart(s.now())
	if !reminder.InPrepBand(remaining) {
		return nil
	}
	warID := reminder.WarID(war.EndTime)
	clanName := war.Clan.Name
	if war.Opponent.Tag == c.Tag {
		clanName = war.Opponent.Name
	}
	return s.sendPrepReminder(ctx, c, warID, clanName, false)
}

// processLeaguePrep fires the single preparation reminder of a CWL season.
// The group itself carries no usable timestamp; the first round war's start
// time marks the end of the preparation phase.
func (s *ReminderService) processLeaguePrep(ctx context.Context, c *clan.Clan, group *clash.LeagueGroup) error {
	warTag := group.FirstWarTag()
	if warTag == "" {
		s.logger.WithField("clan_tag", c.Tag).Warn("League group has no war tags yet")
		return nil
	}
	war, err := s.resolver.client.LeagueWar(ctx, warTag)
	if err != nil {
		return fmt.Errorf("failed to fetch first league war %s: %w", warTag, err)
	}
	start, err := clash.ParseTime(war.StartTime)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"clan_tag": c.Tag, "start_time": war.StartTime}).
			Error("Malformed league war start time, no reminder will fire")
		return nil
	}
	if !reminder.InPrepBand(start.Sub(s.now())) {
		return nil
	}

	warID := reminder.LeaguePrepID(group.Season, s.now())
	clanName := group.ClanName(c.Tag)
	if clanName == "" {
		clanName = c.Name
	}
	return s.sendPrepReminder(ctx, c, warID, clanName, true)
}

func (s *ReminderService) sendPrepReminder(ctx context.Context, c *clan.Clan, warID, clanName string, isLeague bool) error {
	watch, err := s.watchRepo.Get(ctx, c.ChatID, c.Tag)
	if err != nil {
		if errors.Is(err, idb.ErrWatchNotFound) {
			// No watch configured means nobody asked for prep reminders.
			return nil
		}
		return fmt.Errorf("failed to read prep watch: %w", err)
	}
	if watch.PrepChatID == 0 || len(watch.NotifierIDs) == 0 {
		return nil
	}

	state, err := s.reminderRepo.Get(ctx, c.ChatID, c.Tag, warID, reminder.CategoryPrep)
	if err != nil {
		return fmt.Errorf("failed to read prep reminder state: %w", err)
	}
	if state.Sent {
		return nil
	}

	text := composePrepReminder(c, clanName, watch.NotifierIDs, isLeague)
	if err := s.telegram.SendMessage(watch.PrepChatID, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}); err != nil {
		return fmt.Errorf("failed to send prep reminder: %w", err)
	}
	if err := s.reminderRepo.MarkSent(ctx, c.ChatID, c.Tag, warID, reminder.CategoryPrep); err != nil {
		return fmt.Errorf("failed to persist prep reminder flag: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"clan_tag": c.Tag, "war_id": warID}).Info("Sent preparation reminder")
	return nil
}
