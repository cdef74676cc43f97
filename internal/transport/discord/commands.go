package discord

import "github.com/bwmarrin/discordgo"

const (
	CmdRecruit        = "recruit"
	CmdOfficer        = "officer"
	CmdClose          = "close"
	CmdRemove         = "remove"
	CmdThreads        = "threads"
	CmdReopen         = "reopen"
	CmdRemind         = "remind"
	CmdListReminders  = "list-reminders"
	CmdCancelReminder = "cancel-reminder"
	CmdAuth           = "auth"
	CmdStatus         = "status"
)

// Commands is the guild command set overwritten on every Ready.
func Commands() []*discordgo.ApplicationCommand {
	zero := 0.0
	one := 1.0
	return []*discordgo.ApplicationCommand{
		{Name: CmdRecruit, Description: "Open a private recruitment thread (available to everyone)."},
		{Name: CmdOfficer, Description: "Open a private thread for officer discussion (or escalate from recruiter)."},
		{Name: CmdClose, Description: "Close the current thread. (Directors only)"},
		{
			Name:        CmdRemove,
			Description: "Remove a user from the current thread. (Recruiters and Directors only)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to remove from the thread (optional - removes command user if not specified)",
			}},
		},
		{Name: CmdThreads, Description: "List all recruitment and officer threads. (Recruiters and Directors only)"},
		{
			Name:        CmdReopen,
			Description: "Reopen an archived thread. (Directors only)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "thread_name",
				Description: "The name of the thread to reopen (e.g., Recruit-Username)",
				Required:    true,
			}},
		},
		{
			Name:        CmdRemind,
			Description: "Set a reminder. (Directors only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Days until reminder", MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "hours", Description: "Hours until reminder", MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "minutes", Description: "Minutes until reminder", MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "Reminder message"},
			},
		},
		{Name: CmdListReminders, Description: "List your pending reminders."},
		{
			Name:        CmdCancelReminder,
			Description: "Cancel a pending reminder.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "reminder_id",
				Description: "The ID of the reminder to cancel",
				Required:    true,
				MinValue:    &one,
			}},
		},
		{Name: CmdAuth, Description: "Authenticate with Eve Online SSO to update your Discord nickname."},
		{Name: CmdStatus, Description: "View Eve SSO authentication status for all users. (Directors only)"},
	}
}
