// Package notify keeps report notification messages in line with report state.
//
// Every report pushed by the report service (or discovered on member
// join) is matched against channel subscriptions by tag; each matching
// (report, subscription) pair maps to at most one chat message, tracked
// in the report message store. The store row, not the chat platform, is
// the source of truth for whether a message exists.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"report_bot/internal/match"
	"report_bot/internal/model"
)

// ErrMessageNotFound is returned by ChatClient edits when the target
// message no longer exists on the platform.
var ErrMessageNotFound = errors.New("chat message not found")

// ChatClient is the chat platform capability set the reconciler needs.
type ChatClient interface {
	GuildExists(ctx context.Context, guildID string) error
	ChannelInGuild(ctx context.Context, guildID, channelID string) error
	IsGuildMember(ctx context.Context, guildID, userID string) (bool, error)
	SendReport(ctx context.Context, channelID string, report model.Report) (messageID string, err error)
	EditReport(ctx context.Context, channelID, messageID string, report model.Report) error
	DeleteMessage(ctx context.Context, channelID, messageID, reason string) error
}

// MessageStore is the persistence capability set for report messages.
type MessageStore interface {
	GetReportMessage(ctx context.Context, reportID int64, guildID, channelID string) (*model.ReportMessage, error)
	UpsertReportMessage(ctx context.Context, msg *model.ReportMessage) error
}

const deleteAuditReason = "report deleted"

// Reconciler decides per (report, subscription) pair whether to create,
// update or remove the corresponding chat message.
type Reconciler struct {
	store MessageStore
	chat  ChatClient
	log   *slog.Logger
}

// NewReconciler creates a Reconciler over the given collaborators.
func NewReconciler(store MessageStore, chat ChatClient, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, chat: chat, log: log}
}

// Process applies one action for one subscription. Guild, channel and
// member lookup failures are logged and swallowed: they abort this
// subscription only. Chat platform and store failures are returned.
func (r *Reconciler) Process(ctx context.Context, action model.Action, report model.Report, sub model.Subscription) error {
	if err := r.chat.GuildExists(ctx, sub.GuildID); err != nil {
		r.log.Warn("guild unreachable", "guild_id", sub.GuildID, "subscription_id", sub.ID, "error", err)
		return nil
	}
	if err := r.chat.ChannelInGuild(ctx, sub.GuildID, sub.ChannelID); err != nil {
		r.log.Warn("channel unreachable", "guild_id", sub.GuildID, "channel_id", sub.ChannelID, "subscription_id", sub.ID, "error", err)
		return nil
	}

	if !match.Match(report, sub.Tags) {
		return nil
	}

	switch action {
	case model.ActionEdit:
		return r.edit(ctx, report, sub)
	case model.ActionDelete:
		return r.delete(ctx, report, sub)
	case model.ActionNew:
		return r.create(ctx, report, sub)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (r *Reconciler) edit(ctx context.Context, report model.Report, sub model.Subscription) error {
	msg, err := r.store.GetReportMessage(ctx, report.ID, sub.GuildID, sub.ChannelID)
	if err != nil {
		return err
	}
	if msg == nil {
		return r.create(ctx, report, sub)
	}

	if !msg.Deleted {
		err = r.chat.EditReport(ctx, sub.ChannelID, msg.MessageID, report)
		if err == nil {
			msg.Deleted = false
			return r.store.UpsertReportMessage(ctx, msg)
		}
		if !errors.Is(err, ErrMessageNotFound) {
			return err
		}
		r.log.Info("message gone, recreating", "report_id", report.ID, "channel_id", sub.ChannelID)
	}

	// The tracked message no longer exists; post a fresh one under
	// the same identity key.
	messageID, err := r.chat.SendReport(ctx, sub.ChannelID, report)
	if err != nil {
		return err
	}
	msg.MessageID = messageID
	msg.Deleted = false
	return r.store.UpsertReportMessage(ctx, msg)
}

func (r *Reconciler) delete(ctx context.Context, report model.Report, sub model.Subscription) error {
	msg, err := r.store.GetReportMessage(ctx, report.ID, sub.GuildID, sub.ChannelID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	if !msg.Deleted {
		err := r.chat.DeleteMessage(ctx, sub.ChannelID, msg.MessageID, deleteAuditReason)
		if err != nil && !errors.Is(err, ErrMessageNotFound) {
			return err
		}
	}

	// The row is marked, never removed: the retained identity key is
	// what prevents the report from being announced again.
	msg.Deleted = true
	return r.store.UpsertReportMessage(ctx, msg)
}

func (r *Reconciler) create(ctx context.Context, report model.Report, sub model.Subscription) error {
	if sub.OnUsersInServer {
		present, err := r.anyReportedUserInGuild(ctx, report, sub.GuildID)
		if err != nil {
			return err
		}
		if !present {
			return nil
		}
	}

	messageID, err := r.chat.SendReport(ctx, sub.ChannelID, report)
	if err != nil {
		return err
	}
	return r.store.UpsertReportMessage(ctx, &model.ReportMessage{
		ReportID:  report.ID,
		GuildID:   sub.GuildID,
		ChannelID: sub.ChannelID,
		MessageID: messageID,
	})
}

func (r *Reconciler) anyReportedUserInGuild(ctx context.Context, report model.Report, guildID string) (bool, error) {
	for _, u := range report.ReportedUsers {
		present, err := r.chat.IsGuildMember(ctx, guildID, u.ID)
		if err != nil {
			// Member lookups are best effort; an unresolvable user
			// counts as absent.
			r.log.Warn("member lookup failed", "guild_id", guildID, "user_id", u.ID, "error", err)
			continue
		}
		if present {
			return true, nil
		}
	}
	return false, nil
}
