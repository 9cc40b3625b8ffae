// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"report_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	ListGuildSubscriptions(ctx context.Context, guildID string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error

	// GetReportMessage returns the message row for the identity key,
	// or nil when no row exists.
	GetReportMessage(ctx context.Context, reportID int64, guildID, channelID string) (*model.ReportMessage, error)
	// UpsertReportMessage inserts the row or, when the identity key
	// already exists, overwrites its message id, deleted flag and
	// update date. The insert date of an existing row is preserved.
	UpsertReportMessage(ctx context.Context, msg *model.ReportMessage) error

	Close() error
}
