// Package discord implements the chat platform client over the Discord API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"report_bot/internal/model"
	"report_bot/internal/notify"
)

type session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Client implements notify.ChatClient over a Discord session.
type Client struct {
	s   session
	gw  *discordgo.Session
	log *slog.Logger
}

// New creates a Client connected with the given bot token.
func New(token string, log *slog.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return &Client{s: s, gw: s, log: log}, nil
}

// NewWithSession creates a Client over a custom session (useful for testing).
// The resulting client has no gateway connection and cannot Run.
func NewWithSession(s session, log *slog.Logger) *Client {
	return &Client{s: s, log: log}
}

// JoinHandler is called once per guild member join event.
type JoinHandler func(ctx context.Context, guildID, userID string) error

// Run opens the gateway connection and dispatches member join events
// to onJoin, blocking until ctx is cancelled.
func (c *Client) Run(ctx context.Context, onJoin JoinHandler) error {
	if c.gw == nil {
		return errors.New("client has no gateway session")
	}

	c.gw.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
		if e.User == nil {
			return
		}
		if err := onJoin(ctx, e.GuildID, e.User.ID); err != nil {
			c.log.Error("member join handling failed", "guild_id", e.GuildID, "user_id", e.User.ID, "error", err)
		}
	})

	if err := c.gw.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	<-ctx.Done()
	return c.gw.Close()
}

// GuildExists resolves the guild by id.
func (c *Client) GuildExists(ctx context.Context, guildID string) error {
	if _, err := c.s.Guild(guildID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("resolve guild %s: %w", guildID, err)
	}
	return nil
}

// ChannelInGuild resolves the channel and verifies it belongs to the guild.
func (c *Client) ChannelInGuild(ctx context.Context, guildID, channelID string) error {
	ch, err := c.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	if ch.GuildID != guildID {
		return fmt.Errorf("channel %s is not in guild %s", channelID, guildID)
	}
	return nil
}

// IsGuildMember reports whether the user is currently a member of the guild.
func (c *Client) IsGuildMember(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := c.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isRESTCode(err, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser) {
			return false, nil
		}
		return false, fmt.Errorf("resolve member %s in guild %s: %w", userID, guildID, err)
	}
	return true, nil
}

// SendReport posts the report embed to the channel and returns the new
// message id.
func (c *Client) SendReport(ctx context.Context, channelID string, report model.Report) (string, error) {
	msg, err := c.s.ChannelMessageSendEmbed(channelID, BuildReportEmbed(report), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send report %d to channel %s: %w", report.ID, channelID, err)
	}
	return msg.ID, nil
}

// EditReport replaces the message's embed with the report's current
// state. Returns notify.ErrMessageNotFound when the message is gone.
func (c *Client) EditReport(ctx context.Context, channelID, messageID string, report model.Report) error {
	_, err := c.s.ChannelMessageEditEmbed(channelID, messageID, BuildReportEmbed(report), discordgo.WithContext(ctx))
	if err != nil {
		if isRESTCode(err, discordgo.ErrCodeUnknownMessage) {
			return fmt.Errorf("edit message %s: %w", messageID, notify.ErrMessageNotFound)
		}
		return fmt.Errorf("edit message %s in channel %s: %w", messageID, channelID, err)
	}
	return nil
}

// DeleteMessage removes the message, recording reason in the audit log.
// Returns notify.ErrMessageNotFound when the message is already gone.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID, reason string) error {
	err := c.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		if isRESTCode(err, discordgo.ErrCodeUnknownMessage) {
			return fmt.Errorf("delete message %s: %w", messageID, notify.ErrMessageNotFound)
		}
		return fmt.Errorf("delete message %s in channel %s: %w", messageID, channelID, err)
	}
	return nil
}

func isRESTCode(err error, codes ...int) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) || rerr.Message == nil {
		return false
	}
	for _, code := range codes {
		if rerr.Message.Code == code {
			return true
		}
	}
	return false
}
