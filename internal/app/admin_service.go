package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/domain/reminder"
	idb "war_alarm_bot/internal/infra/repository"
)

// Custom application-level errors for the admin service
var (
	ErrClanAlreadyMonitored = fmt.Errorf("clan is already monitored in this chat")
	ErrClanNotMonitored     = fmt.Errorf("clan is not monitored in this chat")
	ErrTagAlreadyLinked     = fmt.Errorf("player tag is already linked to this user")
	ErrTagNotLinked         = fmt.Errorf("player tag is not linked to this user")
)

// AdminService implements the command-surface operations: registering
// clans, linking player accounts, and configuring preparation watches.
// The polling engine only reads what this service writes.
type AdminService struct {
	clanRepo     clan.Repository
	linkRepo     clan.LinkRepository
	watchRepo    clan.WatchRepository
	reminderRepo reminder.Repository
	logger       *logrus.Entry
}

func NewAdminService(
	clanRepo clan.Repository,
	linkRepo clan.LinkRepository,
	watchRepo clan.WatchRepository,
	reminderRepo reminder.Repository,
	logger *logrus.Entry,
) *AdminService {
	return &AdminService{
		clanRepo:     clanRepo,
		linkRepo:     linkRepo,
		watchRepo:    watchRepo,
		reminderRepo: reminderRepo,
		logger:       logger,
	}
}

// MonitorClan registers a clan for the chat. The same tag under another
// chat is allowed but reported back as an advisory.
func (s *AdminService) MonitorClan(ctx context.Context, chatID int64, tag, name string, reminderChatID int64) (*clan.Clan, []int64, error) {
	if _, err := s.clanRepo.Get(ctx, chatID, tag); err == nil {
		return nil, nil, ErrClanAlreadyMonitored
	} else if !errors.Is(err, idb.ErrClanNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing clan: %w", err)
	}

	otherChats, err := s.clanRepo.ChatsMonitoring(ctx, tag)
	if err != nil {
		s.logger.WithError(err).WithField("clan_tag", tag).Warn("Could not check for duplicate registrations")
		otherChats = nil
	}
	if len(otherChats) > 0 {
		s.logger.WithFields(logrus.Fields{"clan_tag": tag, "chats": otherChats}).
			Warn("Clan tag is already monitored by another chat")
	}

	c := &clan.Clan{
		ChatID:         chatID,
		Tag:            tag,
		Name:           name,
		ReminderChatID: reminderChatID,
	}
	if err := s.clanRepo.Upsert(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("failed to register clan: %w", err)
	}
	return c, otherChats, nil
}

// GetClan returns the clan registered in this chat under the given tag.
func (s *AdminService) GetClan(ctx context.Context, chatID int64, tag string) (*clan.Clan, error) {
	c, err := s.clanRepo.Get(ctx, chatID, tag)
	if err != nil {
		if errors.Is(err, idb.ErrClanNotFound) {
			return nil, ErrClanNotMonitored
		}
		return nil, fmt.Errorf("failed to look up clan: %w", err)
	}
	return c, nil
}

func (s *AdminService) UnmonitorClan(ctx context.Context, chatID int64, tag string) error {
	if _, err := s.clanRepo.Get(ctx, chatID, tag); err != nil {
		if errors.Is(err, idb.ErrClanNotFound) {
			return ErrClanNotMonitored
		}
		return fmt.Errorf("failed to look up clan: %w", err)
	}
	if err := s.clanRepo.Delete(ctx, chatID, tag); err != nil {
		return fmt.Errorf("failed to unregister clan: %w", err)
	}
	return nil
}

// LinkAccount attaches a player tag to a user. One user may link several
// tags; linking the same tag twice is rejected.
func (s *AdminService) LinkAccount(ctx context.Context, chatID, userID int64, playerTag string) error {
	link, err := s.linkRepo.Get(ctx, chatID, userID)
	if err != nil {
		if !errors.Is(err, idb.ErrLinkNotFound) {
			return fmt.Errorf("failed to look up player link: %w", err)
		}
		link = &clan.PlayerLink{ChatID: chatID, UserID: userID}
	}
	for _, t := range link.PlayerTags {
		if t == playerTag {
			return ErrTagAlreadyLinked
		}
	}
	link.PlayerTags = append(link.PlayerTags, playerTag)
	if err := s.linkRepo.Upsert(ctx, link); err != nil {
		return fmt.Errorf("failed to store player link: %w", err)
	}
	return nil
}

func (s *AdminService) UnlinkAccount(ctx context.Context, chatID, userID int64, playerTag string) error {
	link, err := s.linkRepo.Get(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, idb.ErrLinkNotFound) {
			return ErrTagNotLinked
		}
		return fmt.Errorf("failed to look up player link: %w", err)
	}
	kept := link.PlayerTags[:0]
	found := false
	for _, t := range link.PlayerTags {
		if t == playerTag {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrTagNotLinked
	}
	if len(kept) == 0 {
		if err := s.linkRepo.Delete(ctx, chatID, userID); err != nil {
			return fmt.Errorf("failed to remove player link: %w", err)
		}
		return nil
	}
	link.PlayerTags = kept
	if err := s.linkRepo.Upsert(ctx, link); err != nil {
		return fmt.Errorf("failed to store player link: %w", err)
	}
	return nil
}

// AssignPrepNotifiers adds users to the clan's preparation watch, creating
// it on first use. It returns which users are newly assigned and which
// were already present.
func (s *AdminService) AssignPrepNotifiers(ctx context.Context, chatID int64, clanTag string, prepChatID int64, userIDs []int64) (newly, already []int64, err error) {
	if _, err := s.clanRepo.Get(ctx, chatID, clanTag); err != nil {
		if errors.Is(err, idb.ErrClanNotFound) {
			return nil, nil, ErrClanNotMonitored
		}
		return nil, nil, fmt.Errorf("failed to look up clan: %w", err)
	}

	watch, err := s.watchRepo.Get(ctx, chatID, clanTag)
	if err != nil {
		if !errors.Is(err, idb.ErrWatchNotFound) {
			return nil, nil, fmt.Errorf("failed to look up prep watch: %w", err)
		}
		watch = &clan.PrepWatch{ChatID: chatID, ClanTag: clanTag}
	}
	watch.PrepChatID = prepChatID

	for _, id := range userIDs {
		if watch.HasNotifier(id) {
			already = append(already, id)
			continue
		}
		watch.NotifierIDs = append(watch.NotifierIDs, id)
		newly = append(newly, id)
	}
	if err := s.watchRepo.Upsert(ctx, watch); err != nil {
		return nil, nil, fmt.Errorf("failed to store prep watch: %w", err)
	}
	return newly, already, nil
}

// ResetPrepReminder clears the current CWL preparation flag for a clan so
// the reminder can fire again. Administrative escape hatch.
func (s *AdminService) ResetPrepReminder(ctx context.Context, chatID int64, clanTag string) (string, error) {
	if _, err := s.clanRepo.Get(ctx, chatID, clanTag); err != nil {
		if errors.Is(err, idb.ErrClanNotFound) {
			return "", ErrClanNotMonitored
		}
		return "", fmt.Errorf("failed to look up clan: %w", err)
	}
	warID := reminder.LeaguePrepID("", time.Now())
	if err := s.reminderRepo.Reset(ctx, chatID, clanTag, warID, reminder.CategoryPrep); err != nil {
		return "", fmt.Errorf("failed to reset prep reminder: %w", err)
	}
	return warID, nil
}
