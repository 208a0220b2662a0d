package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/domain/reminder"
)

const noLinkPlaceholder = "no Telegram link"

var endReminderHeadlines = map[reminder.Category]string{
	reminder.CategoryRoutine: "⏰ 1 hour left in the war! Remember to attack!",
	reminder.CategoryUrgent:  "⏰ 30 minutes left in the war! Attack now!",
	reminder.CategoryFinal:   "⚠️ 15 minutes left in the war! It's now or never!",
}

func mention(userID int64) string {
	return fmt.Sprintf("[user %d](tg://user?id=%d)", userID, userID)
}

// mentionsForTag lists the linked users of one player tag, or a placeholder
// when nobody linked it.
func mentionsForTag(tag string, links []*clan.PlayerLink) string {
	var mentions []string
	for _, l := range links {
		for _, t := range l.PlayerTags {
			if t == tag {
				mentions = append(mentions, mention(l.UserID))
				break
			}
		}
	}
	if len(mentions) == 0 {
		return noLinkPlaceholder
	}
	return strings.Join(mentions, ", ")
}

// missingAttackLines renders one line per player that still owes attacks,
// in stable tag order.
func missingAttackLines(missing map[string]int, links []*clan.PlayerLink) string {
	tags := make([]string, 0, len(missing))
	for tag := range missing {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	for _, tag := range tags {
		fmt.Fprintf(&b, "- %s: %d attack(s) left. Linked: %s\n", tag, missing[tag], mentionsForTag(tag, links))
	}
	return b.String()
}

func warTypeLabel(snap *WarSnapshot) string {
	if snap.IsLeague {
		if snap.Round > 0 {
			return fmt.Sprintf("CWL war (round %d)", snap.Round)
		}
		return "CWL war"
	}
	return "War"
}

func composeEndReminder(c *clan.Clan, snap *WarSnapshot, cat reminder.Category, remaining time.Duration, missing map[string]int, links []*clan.PlayerLink) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %s for %s (%s) against %s\n", warTypeLabel(snap), snap.War.Clan.Name, c.Tag, snap.War.Opponent.Name)
	b.WriteString(endReminderHeadlines[cat])
	if snap.IsLeague {
		b.WriteString(" And remember to fill the CC for the next match!")
	}
	b.WriteString("\n\nPlayers still to attack:\n")
	b.WriteString(missingAttackLines(missing, links))
	return b.String()
}

func composePrepReminder(c *clan.Clan, clanName string, notifierIDs []int64, isLeague bool) string {
	mentions := make([]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		mentions = append(mentions, mention(id))
	}
	kind := "war"
	if isLeague {
		kind = "CWL"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *%s preparation reminder for %s* (%s)\n\n", strings.ToUpper(kind[:1])+kind[1:], clanName, c.Tag)
	fmt.Fprintf(&b, "🔔 Attention: %s\n", strings.Join(mentions, ", "))
	b.WriteString("⏳ Less than an hour of the preparation phase remains!\n")
	if isLeague {
		b.WriteString("\n⚔️ Remember to set the CWL lineup and check the CC! 🏆")
	} else {
		b.WriteString("\n⚔️ Make sure the lineup and CC are ready before the war starts!")
	}
	return b.String()
}

// FormatWarStatus renders the on-demand war summary used by /war_status.
func FormatWarStatus(snap *WarSnapshot, remaining time.Duration, missing map[string]int, links []*clan.PlayerLink) string {
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60

	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %s: %s vs %s\n", warTypeLabel(snap), snap.War.Clan.Name, snap.War.Opponent.Name)
	fmt.Fprintf(&b, "⏰ Time left: %d hours, %d minutes\n\n", hours, minutes)
	fmt.Fprintf(&b, "Score:\n%s:\n⭐ %d | %.2f%%\n\n%s:\n⭐ %d | %.2f%%\n",
		snap.War.Clan.Name, snap.War.Clan.Stars, snap.War.Clan.DestructionPercentage,
		snap.War.Opponent.Name, snap.War.Opponent.Stars, snap.War.Opponent.DestructionPercentage)
	if len(missing) == 0 {
		b.WriteString("\nAll players have attacked! 💪")
		return b.String()
	}
	b.WriteString("\nPlayers still to attack:\n")
	b.WriteString(missingAttackLines(missing, links))
	return b.String()
}
