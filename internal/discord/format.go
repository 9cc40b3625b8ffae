package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"report_bot/internal/model"
)

const embedColor = 0xE74C3C

// BuildReportEmbed renders a report as a Discord embed. Deterministic
// given the report; no state, no I/O.
func BuildReportEmbed(r model.Report) *discordgo.MessageEmbed {
	var b strings.Builder

	if len(r.ReportedUsers) > 0 {
		b.WriteString("**Reported users**\n")
		mentions := make([]string, 0, len(r.ReportedUsers))
		for _, u := range r.ReportedUsers {
			mentions = append(mentions, "<@"+u.ID+">")
		}
		b.WriteString(strings.Join(mentions, " "))
	}

	if r.Reason != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("**Reason**\n")
		b.WriteString(r.Reason)
	}

	if len(r.Tags) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("**Tags**\n")
		names := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			names = append(names, t.Name)
		}
		b.WriteString(strings.Join(names, ", "))
	}

	if len(r.Links) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("**Links**\n")
		b.WriteString(strings.Join(r.Links, "\n"))
	}

	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: fmt.Sprintf("Report #%d", r.ID),
		},
		Description: b.String(),
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d confirmations | reported %s",
				len(r.ConfirmationUsers), r.InsertDate.UTC().Format("2006-01-02 15:04 UTC")),
		},
		Timestamp: r.UpdateDate.UTC().Format(time.RFC3339),
	}
}
