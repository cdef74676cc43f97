package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"
)

const (
	colorBlue = 0x3498db
	colorGold = 0xf1c40f

	// maxEmbedFields is the platform cap on fields per embed.
	maxEmbedFields = 25

	threadListShown   = 10
	guildReminderShow = 15
	authShown         = 15
	reauthShown       = 10
	unauthShown       = 20
)

func relative(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// andMore appends the "...and N more" tail when lines were cut.
func andMore(lines []string, total int) string {
	s := strings.Join(lines, "\n")
	if total > len(lines) {
		s += fmt.Sprintf("\n*...and %d more*", total-len(lines))
	}
	return s
}

func ThreadListEmbed(l threadsvc.Listing, requestedBy string, now time.Time) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "📋 Thread List",
		Color:     colorBlue,
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Requested by " + requestedBy},
	}

	if len(l.Active) == 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "🟢 Active Threads", Value: "*No active threads*"})
	} else {
		var lines []string
		for _, t := range l.Active[:min(threadListShown, len(l.Active))] {
			lines = append(lines, fmt.Sprintf("• %s - %d members", t.Mention(), t.MemberCount))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🟢 Active Threads (%d)", len(l.Active)),
			Value: andMore(lines, len(l.Active)),
		})
	}

	if len(l.Archived) == 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "📦 Recently Archived", Value: "*No archived threads*"})
	} else {
		var lines []string
		for _, t := range l.Archived[:min(threadListShown, len(l.Archived))] {
			lines = append(lines, fmt.Sprintf("• %s - Archived %s", t.Name, relative(t.ArchivedAt)))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("📦 Recently Archived (%d)", len(l.Archived)),
			Value: andMore(lines, len(l.Archived)),
		})
	}
	return e
}

// GuildRemindersEmbed is the Director view: the first 15 reminders in the
// guild with their owners.
func GuildRemindersEmbed(rs []domainreminder.Reminder, now time.Time) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "⏰ All Pending Reminders",
		Color:     colorGold,
		Timestamp: now.Format(time.RFC3339),
	}
	for _, r := range rs[:min(guildReminderShow, len(rs))] {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("ID: %d - <@%s>", r.ID, r.UserID),
			Value: fmt.Sprintf("%s\nDue: %s", r.Preview(), relative(r.DueAt)),
		})
	}
	if len(rs) > guildReminderShow {
		e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing %d of %d reminders", guildReminderShow, len(rs))}
	}
	return e
}

func MyRemindersEmbed(rs []domainreminder.Reminder, now time.Time) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "⏰ Your Pending Reminders",
		Color:     colorGold,
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Use /cancel-reminder <id> to cancel"},
	}
	for _, r := range rs[:min(maxEmbedFields, len(rs))] {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("ID: %d", r.ID),
			Value: fmt.Sprintf("%s\nDue: %s", r.Preview(), relative(r.DueAt)),
		})
	}
	return e
}

func StatusEmbed(rep authsvc.StatusReport, requestedBy string, now time.Time) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "🔐 Eve SSO Authentication Status",
		Color:     colorBlue,
		Timestamp: now.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Requested by " + requestedBy},
	}

	if n := len(rep.Authenticated); n > 0 {
		var lines []string
		for _, l := range rep.Authenticated[:min(authShown, n)] {
			lines = append(lines, fmt.Sprintf("✅ %s - %s", l.Member.Mention(), l.Record.Nickname()))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🟢 Authenticated (%d)", n),
			Value: strings.Join(lines, "\n"),
		})
		if n > authShown {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Value: fmt.Sprintf("*...and %d more*", n-authShown)})
		}
	}

	if n := len(rep.NeedsReauth); n > 0 {
		var lines []string
		for _, l := range rep.NeedsReauth[:min(reauthShown, n)] {
			lines = append(lines, fmt.Sprintf("⚠️ %s - %s (expired)", l.Member.Mention(), orNA(l.Record.CharacterName)))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🟡 Needs Re-authentication (%d)", n),
			Value: strings.Join(lines, "\n"),
		})
	}

	if n := len(rep.NotAuthenticated); n > 0 {
		var lines []string
		for _, m := range rep.NotAuthenticated[:min(unauthShown, n)] {
			lines = append(lines, "❌ "+m.Mention())
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🔴 Not Authenticated (%d)", n),
			Value: strings.Join(lines, "\n"),
		})
		if n > unauthShown {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Value: fmt.Sprintf("*...and %d more*", n-unauthShown)})
		}
	}
	return e
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
