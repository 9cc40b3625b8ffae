package discord

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"report_bot/internal/model"
)

func TestBuildReportEmbed(t *testing.T) {
	insert := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	update := time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC)

	report := model.Report{
		ID:                42,
		Reason:            "spamming invite links",
		Tags:              []model.Tag{{ID: 5, Name: "spam"}, {ID: 9, Name: "scam"}},
		Links:             []string{"https://evidence.example.com/1", "https://evidence.example.com/2"},
		ReportedUsers:     []model.ReportedUser{{ID: "U1"}, {ID: "U2"}},
		ConfirmationUsers: []json.RawMessage{[]byte("{}"), []byte("{}"), []byte("{}")},
		InsertDate:        insert,
		UpdateDate:        update,
	}

	embed := BuildReportEmbed(report)

	if embed.Author == nil || embed.Author.Name != "Report #42" {
		t.Errorf("unexpected author: %+v", embed.Author)
	}
	for _, want := range []string{
		"**Reported users**", "<@U1> <@U2>",
		"**Reason**", "spamming invite links",
		"**Tags**", "spam, scam",
		"**Links**", "https://evidence.example.com/1\nhttps://evidence.example.com/2",
	} {
		if !strings.Contains(embed.Description, want) {
			t.Errorf("description missing %q:\n%s", want, embed.Description)
		}
	}
	if embed.Footer == nil || embed.Footer.Text != "3 confirmations | reported 2024-03-01 10:00 UTC" {
		t.Errorf("unexpected footer: %+v", embed.Footer)
	}
	if embed.Timestamp != "2024-03-02T11:30:00Z" {
		t.Errorf("unexpected timestamp: %s", embed.Timestamp)
	}
}

func TestBuildReportEmbedOmitsEmptySections(t *testing.T) {
	embed := BuildReportEmbed(model.Report{
		ID:   7,
		Tags: []model.Tag{{ID: 1, Name: "nsfw"}},
	})

	for _, absent := range []string{"**Reported users**", "**Reason**", "**Links**"} {
		if strings.Contains(embed.Description, absent) {
			t.Errorf("description must not contain %q:\n%s", absent, embed.Description)
		}
	}
	if !strings.Contains(embed.Description, "**Tags**") {
		t.Errorf("description missing tags section:\n%s", embed.Description)
	}
	if strings.HasPrefix(embed.Description, "\n") {
		t.Errorf("description starts with blank lines:\n%q", embed.Description)
	}
}
