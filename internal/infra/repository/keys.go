// Package repository implements the domain repositories on top of the
// document store. Every key starts with the owning chat ID so records of
// different chats can never collide, even for identical clan tags.
package repository

import (
	"fmt"
	"strconv"
	"strings"

	"war_alarm_bot/internal/domain/reminder"
)

const keySep = "|"

func clanKey(chatID int64, tag string) string {
	return fmt.Sprintf("%d%s%s", chatID, keySep, tag)
}

func linkKey(chatID, userID int64) string {
	return fmt.Sprintf("%d%s%d", chatID, keySep, userID)
}

func watchKey(chatID int64, clanTag string) string {
	return fmt.Sprintf("%d%s%s", chatID, keySep, clanTag)
}

func reminderKey(chatID int64, clanTag, warID string, cat reminder.Category) string {
	return fmt.Sprintf("%d%s%s%s%s%s%s", chatID, keySep, clanTag, keySep, warID, keySep, cat)
}

// chatPrefix is the key prefix shared by all of a chat's records.
func chatPrefix(chatID int64) string {
	return strconv.FormatInt(chatID, 10) + keySep
}

func hasChatPrefix(key string, chatID int64) bool {
	return strings.HasPrefix(key, chatPrefix(chatID))
}
