package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/utyara3/TimeTracker/internal/analytics"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/discord"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
	"github.com/utyara3/TimeTracker/internal/webhook"
)

const (
	requestTimeout = 10 * time.Second
	webhookTimeout = 15 * time.Second
)

// Tracker is the part of tracker.Service the bot drives.
type Tracker interface {
	RegisterUser(ctx context.Context, userID int64, displayName string) (*repository.User, error)
	Switch(ctx context.Context, userID int64, stateName, tag string) (*tracker.Transition, error)
	Fix(ctx context.Context, req tracker.FixRequest) (*tracker.Correction, error)
	Rate(ctx context.Context, userID, sessionID int64, mood int) error
	SetMood(ctx context.Context, userID, sessionID int64, mood int) error
	RenameState(ctx context.Context, userID, sessionID int64, stateName string) error
	ClearTag(ctx context.Context, userID, sessionID int64) error
	Session(ctx context.Context, userID, sessionID int64) (*repository.Session, error)
	History(ctx context.Context, userID int64, day time.Time) ([]repository.Session, error)
	DayStats(ctx context.Context, userID int64, day time.Time) (*analytics.DayReport, error)
	PredictNext(ctx context.Context, userID int64) (*analytics.Prediction, error)
	TopTags(ctx context.Context, userID int64) ([]analytics.TagCount, error)
	BeginTagEdit(ctx context.Context, userID, sessionID int64) (tracker.PendingEdit, error)
	ApplyPendingTag(ctx context.Context, userID int64, tag string) (int64, error)
	CancelPending(userID int64) bool
	Today() time.Time
	Location() *time.Location
	Vocabulary() config.Vocabulary
}

type Manager struct {
	guildID string
	tracker Tracker
	webhook webhook.Sender

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewManager(guildID string, t Tracker, wh webhook.Sender) *Manager {
	return &Manager{
		guildID: guildID,
		tracker: t,
		webhook: wh,
	}
}

// Wait stops new webhook deliveries and blocks until in-flight ones finish.
func (m *Manager) Wait() {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) HandleSlashCommand(event discord.SlashCommandEvent) {
	slog.Info("slash command received", "guild_id", event.GuildID, "user_id", event.UserID, "command", event.CommandName)
	if m.guildID != "" && event.GuildID != m.guildID {
		slog.Info("ignoring command for different guild", "event_guild_id", event.GuildID, "configured_guild_id", m.guildID)
		m.respond(event.Respond, discord.Reply{Content: messageErrWrongGuild, Ephemeral: true}, event.CommandName)
		return
	}
	userID, err := strconv.ParseInt(event.UserID, 10, 64)
	if err != nil {
		slog.Warn("unreadable user id", "user_id", event.UserID, "error", err)
		m.respond(event.Respond, discord.Reply{Content: messageErrUnreadableUser, Ephemeral: true}, event.CommandName)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := m.tracker.RegisterUser(ctx, userID, event.UserName); err != nil {
		m.fail(event.Respond, event.CommandName, userID, err)
		return
	}

	reply, err := m.dispatchCommand(ctx, userID, event)
	if err != nil {
		m.fail(event.Respond, event.CommandName, userID, err)
		return
	}
	m.respond(event.Respond, reply, event.CommandName)
}

func (m *Manager) dispatchCommand(ctx context.Context, userID int64, event discord.SlashCommandEvent) (discord.Reply, error) {
	vocab := m.tracker.Vocabulary()
	switch event.CommandName {
	case commandStart:
		return discord.Reply{Content: messageStart}, nil
	case commandHelp:
		return discord.Reply{Content: formatHelp(vocab)}, nil
	case commandFix:
		return m.fix(ctx, userID, event.Options[optionArgs])
	case commandStats:
		day, err := m.parseDay(event.Options[optionDate])
		if err != nil {
			return discord.Reply{}, err
		}
		return m.stats(ctx, userID, day)
	case commandHistory:
		day, err := m.parseDay(event.Options[optionDate])
		if err != nil {
			return discord.Reply{}, err
		}
		return m.history(ctx, userID, day)
	case commandPredict:
		p, err := m.tracker.PredictNext(ctx, userID)
		if err != nil {
			return discord.Reply{}, err
		}
		return discord.Reply{Content: formatPrediction(p)}, nil
	case commandTags:
		tags, err := m.tracker.TopTags(ctx, userID)
		if err != nil {
			return discord.Reply{}, err
		}
		if len(tags) == 0 {
			return discord.Reply{Content: messageNoTags}, nil
		}
		return discord.Reply{Content: formatTags(tags)}, nil
	case commandTag:
		sessionID, err := m.tracker.ApplyPendingTag(ctx, userID, event.Options[optionText])
		if err != nil {
			return discord.Reply{}, err
		}
		return m.sessionReply(ctx, userID, sessionID, messageTagUpdated)
	case commandCancel:
		if m.tracker.CancelPending(userID) {
			return discord.Reply{Content: messageCancelled, Ephemeral: true}, nil
		}
		return discord.Reply{Content: messageNothingCancel, Ephemeral: true}, nil
	}
	if _, ok := vocab.Lookup(event.CommandName); ok {
		return m.switchState(ctx, userID, event.CommandName, event.Options[optionTag])
	}
	return discord.Reply{}, errUnknownCommand
}

var (
	errUnknownCommand = errors.New("unknown command")
	errInvalidDate    = errors.New("invalid date")
	errUnknownAction  = errors.New("unknown action")
)

func (m *Manager) switchState(ctx context.Context, userID int64, state, tag string) (discord.Reply, error) {
	tr, err := m.tracker.Switch(ctx, userID, state, tag)
	if err != nil {
		return discord.Reply{}, err
	}
	m.notify(webhook.TransitionPayload{
		Kind:              webhook.KindSwitch,
		UserID:            userID,
		PreviousState:     tr.PreviousState,
		PreviousTag:       tr.PreviousTag,
		PreviousSessionID: tr.PreviousSessionID,
		ClosedSeconds:     tr.PreviousSeconds,
		NewState:          tr.NewState,
		NewTag:            tr.NewTag,
		NewSessionID:      tr.NewSessionID,
		At:                tr.At,
	})
	reply := discord.Reply{Content: formatTransition(tr)}
	if tr.HasPrevious() {
		reply.Content += "\n\n" + messageRateTitle
		reply.Buttons = rateButtons(actionRate, tr.PreviousSessionID)
	}
	return reply, nil
}

func (m *Manager) fix(ctx context.Context, userID int64, raw string) (discord.Reply, error) {
	args, err := tracker.ParseFixArgs(raw)
	if err != nil {
		return discord.Reply{}, err
	}
	c, err := m.tracker.Fix(ctx, tracker.FixRequest{UserID: userID, Spec: args.Spec, State: args.State, Tag: args.Tag})
	if err != nil {
		return discord.Reply{}, err
	}
	m.notify(webhook.TransitionPayload{
		Kind:              webhook.KindFix,
		UserID:            userID,
		PreviousState:     c.HeadState,
		PreviousSessionID: c.HeadSessionID,
		ClosedSeconds:     c.HeadSeconds,
		NewState:          c.NewState,
		NewTag:            c.NewTag,
		NewSessionID:      c.NewSessionID,
		At:                c.Boundary,
	})
	return discord.Reply{
		Content: formatCorrection(c, m.tracker.Location()) + "\n\n" + messageRateTitle,
		Buttons: rateButtons(actionRate, c.HeadSessionID),
	}, nil
}

func (m *Manager) stats(ctx context.Context, userID int64, day time.Time) (discord.Reply, error) {
	nav := [][]discord.Button{dayNavButtons(actionStats, day)}
	report, err := m.tracker.DayStats(ctx, userID, day)
	if errors.Is(err, tracker.ErrNoSessions) {
		return discord.Reply{Content: fmt.Sprintf("%s\n-# %s", messageErrNoSessions, day.Format(displayDateLayout)), Buttons: nav}, nil
	}
	if err != nil {
		return discord.Reply{}, err
	}
	return discord.Reply{Content: formatDayReport(m.tracker.Vocabulary(), report), Buttons: nav}, nil
}

func (m *Manager) history(ctx context.Context, userID int64, day time.Time) (discord.Reply, error) {
	sessions, err := m.tracker.History(ctx, userID, day)
	if errors.Is(err, tracker.ErrNoSessions) {
		return discord.Reply{
			Content: fmt.Sprintf("%s\n-# %s", messageErrNoSessions, day.Format(displayDateLayout)),
			Buttons: [][]discord.Button{dayNavButtons(actionHistory, day)},
		}, nil
	}
	if err != nil {
		return discord.Reply{}, err
	}
	vocab := m.tracker.Vocabulary()
	return discord.Reply{
		Content: formatHistory(vocab, sessions, day, m.tracker.Today(), m.tracker.Location()),
		Buttons: historyButtons(vocab, sessions, day),
	}, nil
}

func (m *Manager) sessionReply(ctx context.Context, userID, sessionID int64, header string) (discord.Reply, error) {
	s, err := m.tracker.Session(ctx, userID, sessionID)
	if err != nil {
		return discord.Reply{}, err
	}
	loc := m.tracker.Location()
	content := formatSession(m.tracker.Vocabulary(), s, m.tracker.Today(), loc)
	if header != "" {
		content = header + "\n\n" + content
	}
	return discord.Reply{Content: content, Buttons: sessionButtons(s, loc)}, nil
}

func (m *Manager) HandleComponent(event discord.ComponentEvent) {
	slog.Info("component interaction received", "guild_id", event.GuildID, "user_id", event.UserID, "custom_id", event.CustomID)
	id := parseCustomID(event.CustomID)
	if m.guildID != "" && event.GuildID != m.guildID {
		slog.Info("ignoring component for different guild", "event_guild_id", event.GuildID, "configured_guild_id", m.guildID)
		m.respond(event.Respond, discord.Reply{Content: messageErrWrongGuild, Ephemeral: true}, id.action)
		return
	}
	userID, err := strconv.ParseInt(event.UserID, 10, 64)
	if err != nil {
		slog.Warn("unreadable user id", "user_id", event.UserID, "error", err)
		m.respond(event.Respond, discord.Reply{Content: messageErrUnreadableUser, Ephemeral: true}, id.action)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	reply, err := m.dispatchComponent(ctx, userID, id)
	if err != nil {
		m.fail(event.Respond, id.action, userID, err)
		return
	}
	m.respond(event.Update, reply, id.action)
}

func (m *Manager) dispatchComponent(ctx context.Context, userID int64, id customID) (discord.Reply, error) {
	loc := m.tracker.Location()
	switch id.action {
	case actionStats, actionHistory:
		day, err := id.dateArg(0, loc)
		if err != nil {
			return discord.Reply{}, fmt.Errorf("%w: %w", errInvalidDate, err)
		}
		if id.action == actionStats {
			return m.stats(ctx, userID, day)
		}
		return m.history(ctx, userID, day)
	case actionRate, actionSetMood:
		sessionID, err := id.int64Arg(0)
		if err != nil {
			return discord.Reply{}, fmt.Errorf("%w: %w", errUnknownAction, err)
		}
		mood, err := id.intArg(1)
		if err != nil {
			return discord.Reply{}, fmt.Errorf("%w: %w", errUnknownAction, err)
		}
		if id.action == actionRate {
			if err := m.tracker.Rate(ctx, userID, sessionID, mood); err != nil {
				return discord.Reply{}, err
			}
			return discord.Reply{Content: messageRated + " " + formatMood(&mood)}, nil
		}
		if err := m.tracker.SetMood(ctx, userID, sessionID, mood); err != nil {
			return discord.Reply{}, err
		}
		return m.sessionReply(ctx, userID, sessionID, messageMoodUpdated)
	}

	sessionID, err := id.int64Arg(0)
	if err != nil {
		return discord.Reply{}, fmt.Errorf("%w: %w", errUnknownAction, err)
	}
	switch id.action {
	case actionSession:
		m.tracker.CancelPending(userID)
		return m.sessionReply(ctx, userID, sessionID, "")
	case actionEditName:
		if _, err := m.tracker.Session(ctx, userID, sessionID); err != nil {
			return discord.Reply{}, err
		}
		return discord.Reply{
			Content: messageChooseState,
			Buttons: stateChoiceButtons(m.tracker.Vocabulary(), sessionID),
		}, nil
	case actionSetName:
		state, err := id.stringArg(1)
		if err != nil {
			return discord.Reply{}, fmt.Errorf("%w: %w", errUnknownAction, err)
		}
		if err := m.tracker.RenameState(ctx, userID, sessionID, state); err != nil {
			return discord.Reply{}, err
		}
		return m.sessionReply(ctx, userID, sessionID, messageStateRenamed)
	case actionEditTag:
		if _, err := m.tracker.BeginTagEdit(ctx, userID, sessionID); err != nil {
			return discord.Reply{}, err
		}
		return discord.Reply{
			Content: messageEnterTag,
			Buttons: [][]discord.Button{{
				{Label: "❌ Отмена", CustomID: newCustomID(actionCancel, sessionID), Style: discord.ButtonDanger},
			}},
		}, nil
	case actionClearTag:
		if err := m.tracker.ClearTag(ctx, userID, sessionID); err != nil {
			return discord.Reply{}, err
		}
		return m.sessionReply(ctx, userID, sessionID, messageTagCleared)
	case actionEditMood:
		s, err := m.tracker.Session(ctx, userID, sessionID)
		if err != nil {
			return discord.Reply{}, err
		}
		if s.IsOpen() {
			return discord.Reply{}, tracker.ErrSessionOpen
		}
		buttons := rateButtons(actionSetMood, sessionID)
		return discord.Reply{Content: messageChooseMood, Buttons: append(buttons, cancelRow(sessionID))}, nil
	case actionCancel:
		m.tracker.CancelPending(userID)
		return m.sessionReply(ctx, userID, sessionID, messageCancelled)
	}
	return discord.Reply{}, errUnknownAction
}

func (m *Manager) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m.tracker.Today(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, m.tracker.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", errInvalidDate, err)
	}
	return day, nil
}

// notify delivers the transition in the background; failures are logged and
// never affect the user-visible outcome. Nothing is sent once Wait has begun.
func (m *Manager) notify(payload webhook.TransitionPayload) {
	if m.webhook == nil {
		return
	}
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		slog.Warn("dropping transition webhook during shutdown", "user_id", payload.UserID, "kind", payload.Kind)
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()
		if err := m.webhook.SendTransition(ctx, payload); err != nil {
			slog.Warn("failed to send transition webhook", "error", err, "user_id", payload.UserID, "kind", payload.Kind)
		}
	}()
}

func (m *Manager) fail(respond func(discord.Reply) error, name string, userID int64, err error) {
	msg := userMessage(err)
	if msg == messageErrUnexpected || errors.Is(err, tracker.ErrStore) {
		slog.Error("request failed", "error", err, "user_id", userID, "name", name)
	} else {
		slog.Info("request rejected", "error", err, "user_id", userID, "name", name)
	}
	m.respond(respond, discord.Reply{Content: msg, Ephemeral: true}, name)
}

func (m *Manager) respond(respond func(discord.Reply) error, reply discord.Reply, name string) {
	if respond == nil {
		return
	}
	if err := respond(reply); err != nil {
		slog.Error("failed to respond to interaction", "error", err, "name", name)
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, errUnknownCommand):
		return messageErrUnknownCommand
	case errors.Is(err, errInvalidDate):
		return messageErrInvalidDate
	case errors.Is(err, errUnknownAction):
		return messageUnknownAction
	}
	return errorMessage(err)
}
