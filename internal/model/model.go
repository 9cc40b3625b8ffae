// Package model defines the domain types used across the application.
package model

import (
	"encoding/json"
	"time"
)

// Tag is a categorical label attached to a report.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReportedUser identifies a user named in a report.
type ReportedUser struct {
	ID string `json:"id"`
}

// Report is an abuse report owned by the external report service.
// It is read-only to this application.
type Report struct {
	ID                int64             `json:"id"`
	Reason            string            `json:"reason,omitempty"`
	Tags              []Tag             `json:"tags"`
	Links             []string          `json:"links"`
	ReportedUsers     []ReportedUser    `json:"reportedUsers"`
	ConfirmationUsers []json.RawMessage `json:"confirmationUsers"`
	InsertDate        time.Time         `json:"insertDate"`
	UpdateDate        time.Time         `json:"updateDate"`
}

// TagIDs returns the ids of all tags attached to the report.
func (r Report) TagIDs() []int64 {
	ids := make([]int64, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// Subscription registers a guild channel's interest in reports
// carrying certain tags. Subscriptions are written by external admin
// tooling; this application only reads them.
type Subscription struct {
	ID              int64
	GuildID         string
	ChannelID       string
	Tags            []int64
	OnUsersInServer bool
	CreatedAt       time.Time
}

// ReportMessage links a report to the chat message currently
// representing it in one guild channel. The identity key is
// (ReportID, GuildID, ChannelID); rows are retained after deletion
// with Deleted set so the same report is never re-announced.
type ReportMessage struct {
	ReportID   int64
	GuildID    string
	ChannelID  string
	MessageID  string
	Deleted    bool
	InsertDate time.Time
	UpdateDate time.Time
}

// Action is the lifecycle transition pushed with a report.
type Action string

// Supported report actions.
const (
	ActionNew    Action = "new"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionNew, ActionEdit, ActionDelete:
		return true
	}
	return false
}
