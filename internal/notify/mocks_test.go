package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"report_bot/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentCall struct {
	ChannelID string
	ReportID  int64
}

type editCall struct {
	ChannelID string
	MessageID string
	ReportID  int64
}

type deleteCall struct {
	ChannelID string
	MessageID string
	Reason    string
}

type mockChat struct {
	mu              sync.Mutex
	missingGuilds   map[string]bool
	missingChannels map[string]bool
	members         map[string]bool
	sendErr         error
	editErr         error
	deleteErr       error

	sends   []sentCall
	edits   []editCall
	deletes []deleteCall
	nextID  int
}

func newMockChat() *mockChat {
	return &mockChat{
		missingGuilds:   map[string]bool{},
		missingChannels: map[string]bool{},
		members:         map[string]bool{},
	}
}

func (m *mockChat) GuildExists(_ context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missingGuilds[guildID] {
		return errors.New("unknown guild")
	}
	return nil
}

func (m *mockChat) ChannelInGuild(_ context.Context, guildID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missingChannels[guildID+"|"+channelID] {
		return errors.New("unknown channel")
	}
	return nil
}

func (m *mockChat) IsGuildMember(_ context.Context, guildID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[guildID+"|"+userID], nil
}

func (m *mockChat) SendReport(_ context.Context, channelID string, report model.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.nextID++
	m.sends = append(m.sends, sentCall{ChannelID: channelID, ReportID: report.ID})
	return "msg-" + strconv.Itoa(m.nextID), nil
}

func (m *mockChat) EditReport(_ context.Context, channelID, messageID string, report model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return m.editErr
	}
	m.edits = append(m.edits, editCall{ChannelID: channelID, MessageID: messageID, ReportID: report.ID})
	return nil
}

func (m *mockChat) DeleteMessage(_ context.Context, channelID, messageID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, deleteCall{ChannelID: channelID, MessageID: messageID, Reason: reason})
	return nil
}

func (m *mockChat) sentTo(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sends {
		if s.ChannelID == channelID {
			n++
		}
	}
	return n
}

type mockStore struct {
	mu   sync.Mutex
	rows map[string]model.ReportMessage
	subs []model.Subscription

	upserts        int
	listAllCalls   int
	listGuildCalls int
}

func newMockStore(subs ...model.Subscription) *mockStore {
	return &mockStore{rows: map[string]model.ReportMessage{}, subs: subs}
}

func rowKey(reportID int64, guildID, channelID string) string {
	return fmt.Sprintf("%d|%s|%s", reportID, guildID, channelID)
}

func (m *mockStore) GetReportMessage(_ context.Context, reportID int64, guildID, channelID string) (*model.ReportMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[rowKey(reportID, guildID, channelID)]
	if !ok {
		return nil, nil
	}
	cp := row
	return &cp, nil
}

func (m *mockStore) UpsertReportMessage(_ context.Context, msg *model.ReportMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	msg.UpdateDate = time.Now().UTC()
	if msg.InsertDate.IsZero() {
		msg.InsertDate = msg.UpdateDate
	}
	m.rows[rowKey(msg.ReportID, msg.GuildID, msg.ChannelID)] = *msg
	return nil
}

func (m *mockStore) ListSubscriptions(_ context.Context) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listAllCalls++
	return append([]model.Subscription(nil), m.subs...), nil
}

func (m *mockStore) ListGuildSubscriptions(_ context.Context, guildID string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listGuildCalls++
	var out []model.Subscription
	for _, s := range m.subs {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) row(reportID int64, guildID, channelID string) (model.ReportMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[rowKey(reportID, guildID, channelID)]
	return row, ok
}

type mockIndex struct {
	mu      sync.Mutex
	reports []model.Report
	err     error
	calls   int
}

func (m *mockIndex) ReportsFor(_ context.Context, _ string) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Report(nil), m.reports...), nil
}
