package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"war_alarm_bot/internal/app"
)

// normalizeTag brings a clan or player tag to the canonical form the API
// expects: uppercase with a leading '#'.
func normalizeTag(raw string) string {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	if tag == "" {
		return tag
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

// RegisterCommandHandlers registers the chat command surface. Every command
// is scoped to the chat it is issued in, so two chats can monitor the same
// clan independently.
func RegisterCommandHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, reminderService *app.ReminderService, baseLogger *logrus.Entry) {
	b.Handle("/monitor_clan", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/monitor_clan",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		// Expected format: /monitor_clan <ClanTag> <Name...>
		if len(args) < 2 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Invalid command format. Use: /monitor_clan <ClanTag> <Name>")
		}

		tag := normalizeTag(args[0])
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return c.Send("Error: clan name cannot be empty.")
		}
		handlerLogger = handlerLogger.WithField("clan_tag", tag)

		registered, otherChats, err := adminService.MonitorClan(ctx, c.Chat().ID, tag, name, c.Chat().ID)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrClanAlreadyMonitored:
				logWithError.Warn("Clan already monitored")
				return c.Send(fmt.Sprintf("Clan %s is already monitored in this chat.", tag))
			default:
				logWithError.Error("Failed to register clan")
				return c.Send(fmt.Sprintf("An error occurred while registering the clan: %s", err.Error()))
			}
		}

		handlerLogger.Info("Clan registered successfully")
		msg := fmt.Sprintf("Now monitoring %s (%s). War reminders will be posted in this chat.", registered.Name, registered.Tag)
		if len(otherChats) > 0 {
			msg += fmt.Sprintf("\nNote: this clan is also monitored in %d other chat(s).", len(otherChats))
		}
		return c.Send(msg)
	})

	b.Handle("/unmonitor_clan", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/unmonitor_clan",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Invalid command format. Use: /unmonitor_clan <ClanTag>")
		}
		tag := normalizeTag(args[0])
		handlerLogger = handlerLogger.WithField("clan_tag", tag)

		if err := adminService.UnmonitorClan(ctx, c.Chat().ID, tag); err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrClanNotMonitored:
				logWithError.Warn("Clan not monitored")
				return c.Send(fmt.Sprintf("Clan %s is not monitored in this chat.", tag))
			default:
				logWithError.Error("Failed to unregister clan")
				return c.Send(fmt.Sprintf("An error occurred while removing the clan: %s", err.Error()))
			}
		}

		handlerLogger.Info("Clan unregistered successfully")
		return c.Send(fmt.Sprintf("Stopped monitoring %s.", tag))
	})

	b.Handle("/link_account", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/link_account",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		// Expected format: /link_account <PlayerTag> [TelegramID]
		if len(args) < 1 || len(args) > 2 {
			return c.Send("Invalid command format. Use: /link_account <PlayerTag> [TelegramID]")
		}
		playerTag := normalizeTag(args[0])

		userID := c.Sender().ID
		if len(args) == 2 {
			parsed, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				handlerLogger.WithField("arg", args[1]).Warn("Invalid Telegram ID format")
				return c.Send("Error: Telegram ID must be a number.")
			}
			userID = parsed
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"player_tag": playerTag,
			"user_id":    userID,
		})

		if err := adminService.LinkAccount(ctx, c.Chat().ID, userID, playerTag); err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrTagAlreadyLinked:
				logWithError.Warn("Player tag already linked")
				return c.Send(fmt.Sprintf("Player tag %s is already linked to this user.", playerTag))
			default:
				logWithError.Error("Failed to link account")
				return c.Send(fmt.Sprintf("An error occurred while linking the account: %s", err.Error()))
			}
		}

		handlerLogger.Info("Account linked successfully")
		return c.Send(fmt.Sprintf("Linked player %s to user %d.", playerTag, userID))
	})

	b.Handle("/unlink_account", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/unlink_account",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) < 1 || len(args) > 2 {
			return c.Send("Invalid command format. Use: /unlink_account <PlayerTag> [TelegramID]")
		}
		playerTag := normalizeTag(args[0])

		userID := c.Sender().ID
		if len(args) == 2 {
			parsed, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return c.Send("Error: Telegram ID must be a number.")
			}
			userID = parsed
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"player_tag": playerTag,
			"user_id":    userID,
		})

		if err := adminService.UnlinkAccount(ctx, c.Chat().ID, userID, playerTag); err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrTagNotLinked:
				logWithError.Warn("Player tag not linked")
				return c.Send(fmt.Sprintf("Player tag %s is not linked to this user.", playerTag))
			default:
				logWithError.Error("Failed to unlink account")
				return c.Send(fmt.Sprintf("An error occurred while unlinking the account: %s", err.Error()))
			}
		}

		handlerLogger.Info("Account unlinked successfully")
		return c.Send(fmt.Sprintf("Unlinked player %s from user %d.", playerTag, userID))
	})

	b.Handle("/assign_prep_notifiers", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/assign_prep_notifiers",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		// Expected format: /assign_prep_notifiers <ClanTag> <TelegramID...>
		if len(args) < 2 {
			return c.Send("Invalid command format. Use: /assign_prep_notifiers <ClanTag> <TelegramID> [TelegramID...]")
		}
		tag := normalizeTag(args[0])

		userIDs := make([]int64, 0, len(args)-1)
		for _, arg := range args[1:] {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				handlerLogger.WithField("arg", arg).Warn("Invalid Telegram ID format")
				return c.Send(fmt.Sprintf("Error: %q is not a valid Telegram ID.", arg))
			}
			userIDs = append(userIDs, id)
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"clan_tag": tag,
			"user_ids": userIDs,
		})

		newly, already, err := adminService.AssignPrepNotifiers(ctx, c.Chat().ID, tag, c.Chat().ID, userIDs)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrClanNotMonitored:
				logWithError.Warn("Clan not monitored")
				return c.Send(fmt.Sprintf("Clan %s is not monitored in this chat. Use /monitor_clan first.", tag))
			default:
				logWithError.Error("Failed to assign prep notifiers")
				return c.Send(fmt.Sprintf("An error occurred while assigning notifiers: %s", err.Error()))
			}
		}

		handlerLogger.WithFields(logrus.Fields{
			"newly_assigned":   len(newly),
			"already_assigned": len(already),
		}).Info("Prep notifiers updated")

		var response strings.Builder
		response.WriteString(fmt.Sprintf("Preparation reminders for %s will be posted in this chat.\n", tag))
		if len(newly) > 0 {
			response.WriteString(fmt.Sprintf("Assigned %d new notifier(s).", len(newly)))
		}
		if len(already) > 0 {
			if len(newly) > 0 {
				response.WriteString(" ")
			}
			response.WriteString(fmt.Sprintf("%d user(s) were already assigned.", len(already)))
		}
		return c.Send(response.String())
	})

	b.Handle("/war_status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/war_status",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Invalid command format. Use: /war_status <ClanTag>")
		}
		tag := normalizeTag(args[0])
		handlerLogger = handlerLogger.WithField("clan_tag", tag)

		monitored, err := adminService.GetClan(ctx, c.Chat().ID, tag)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if err == app.ErrClanNotMonitored {
				logWithError.Warn("Clan not monitored")
				return c.Send(fmt.Sprintf("Clan %s is not monitored in this chat.", tag))
			}
			logWithError.Error("Failed to look up clan")
			return c.Send(fmt.Sprintf("An error occurred while looking up the clan: %s", err.Error()))
		}

		status := reminderService.WarStatus(ctx, monitored)
		handlerLogger.Info("War status reported")
		return c.Send(status, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/reset_prep_reminder", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/reset_prep_reminder",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Invalid command format. Use: /reset_prep_reminder <ClanTag>")
		}
		tag := normalizeTag(args[0])
		handlerLogger = handlerLogger.WithField("clan_tag", tag)

		warID, err := adminService.ResetPrepReminder(ctx, c.Chat().ID, tag)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch err {
			case app.ErrClanNotMonitored:
				logWithError.Warn("Clan not monitored")
				return c.Send(fmt.Sprintf("Clan %s is not monitored in this chat.", tag))
			default:
				logWithError.Error("Failed to reset prep reminder")
				return c.Send(fmt.Sprintf("An error occurred while resetting the reminder: %s", err.Error()))
			}
		}

		handlerLogger.WithField("war_id", warID).Info("Prep reminder reset")
		return c.Send(fmt.Sprintf("Preparation reminder for %s (%s) has been reset and may fire again.", tag, warID))
	})
}
