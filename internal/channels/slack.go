package channels

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
	"github.com/openchatops/oco/internal/user"
)

const slackMaxMessageLen = 3900

// SlackAdapter talks to Slack over Socket Mode. Rooms are Slack
// conversation IDs; direct messages carry no room.
type SlackAdapter struct {
	Base
	cfg       channel.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string

	mu    sync.Mutex // guards webClient and users
	users map[string]user.User
}

func NewSlackAdapter(cfg channel.SlackConfig, logger *slog.Logger) *SlackAdapter {
	return &SlackAdapter{
		Base:  NewBase(channel.AdapterSlack, cfg.AllowFrom, logger),
		cfg:   cfg,
		users: make(map[string]user.User),
	}
}

func (s *SlackAdapter) Run(ctx context.Context) (stream.Stream[chat.IncomingMessage], error) {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		return nil, errors.New("slack: bot and app tokens are required")
	}

	api, err := s.client()
	if err != nil {
		return nil, err
	}
	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, errs.IO("slack auth test", err)
	}
	s.botUserID = resp.UserID
	s.logger.Info("connected", "bot_user_id", s.botUserID, "team", resp.Team)

	s.smClient = socketmode.New(api, socketmode.OptionDebug(s.cfg.Debug))
	pipe := newIncoming()

	go func() {
		err := s.smClient.RunContext(ctx)
		if ctx.Err() != nil {
			pipe.End()
			return
		}
		pipe.CloseWithError(errs.IO("slack socket mode", err))
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				pipe.End()
				return
			case <-pipe.Done():
				return
			case evt, ok := <-s.smClient.Events:
				if !ok {
					pipe.End()
					return
				}
				if !s.handleEvent(ctx, pipe, evt) {
					return
				}
			}
		}
	}()
	return pipe, nil
}

// client returns the Web API client, creating it on first use so messages
// can be sent without a socket mode connection.
func (s *SlackAdapter) client() (*slackgo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.webClient == nil {
		if s.cfg.BotToken == "" {
			return nil, errors.New("slack: bot token not configured")
		}
		s.webClient = slackgo.New(s.cfg.BotToken,
			slackgo.OptionAppLevelToken(s.cfg.AppToken),
			slackgo.OptionDebug(s.cfg.Debug))
	}
	return s.webClient, nil
}

func (s *SlackAdapter) handleEvent(ctx context.Context, pipe *stream.Pipe[chat.IncomingMessage], evt socketmode.Event) bool {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		s.logger.Debug("connecting to socket mode")
	case socketmode.EventTypeConnectionError:
		s.logger.Warn("socket mode connection error", "data", evt.Data)
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			s.smClient.Ack(*evt.Request)
		}
		cb, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return true
		}
		m, ok := parseSlackEvent(cb.InnerEvent, s.botUserID)
		if !ok {
			return true
		}
		var r room.Room
		if m.ChannelType != "im" {
			r = room.New(m.Channel)
		}
		msg := chat.NewIncomingMessage(m.Text, s.lookupUser(ctx, m.User), r)
		return s.HandleMessage(ctx, pipe, m.User, msg)
	}
	return true
}

// slackMessage is the subset of a message or app_mention event the
// adapter consumes.
type slackMessage struct {
	User        string
	Channel     string
	ChannelType string
	Text        string
}

// parseSlackEvent extracts a message from ev, dropping bot echoes, edits
// and other subtypes. Mentions of the bot are stripped from the text.
func parseSlackEvent(ev slackevents.EventsAPIInnerEvent, botUserID string) (slackMessage, bool) {
	var m slackMessage
	switch d := ev.Data.(type) {
	case *slackevents.MessageEvent:
		if d.SubType != "" || d.BotID != "" {
			return m, false
		}
		// app_mention carries the same message.
		if botUserID != "" && strings.Contains(d.Text, "<@"+botUserID+">") {
			return m, false
		}
		m = slackMessage{User: d.User, Channel: d.Channel, ChannelType: d.ChannelType, Text: d.Text}
	case *slackevents.AppMentionEvent:
		if d.BotID != "" {
			return m, false
		}
		m = slackMessage{User: d.User, Channel: d.Channel, ChannelType: "channel", Text: d.Text}
	default:
		return m, false
	}
	if m.User == "" || m.Channel == "" || m.User == botUserID {
		return m, false
	}
	m.Text = stripSlackMention(m.Text, botUserID)
	return m, m.Text != ""
}

func stripSlackMention(text, botUserID string) string {
	if botUserID == "" {
		return strings.TrimSpace(text)
	}
	re := regexp.MustCompile(`<@` + regexp.QuoteMeta(botUserID) + `>\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}

// lookupUser resolves a Slack user ID to a User, caching the result.
// Lookup failures fall back to the bare ID.
func (s *SlackAdapter) lookupUser(ctx context.Context, id string) user.User {
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if ok {
		return u
	}

	u = user.New(id, id)
	api, err := s.client()
	if err != nil {
		return u
	}
	info, err := api.GetUserInfoContext(ctx, id)
	if err != nil {
		s.logger.Debug("user lookup failed", "user", id, "err", err)
		return u
	}
	name := info.Profile.DisplayName
	if name == "" {
		name = info.RealName
	}
	if name == "" {
		name = info.Name
	}
	u = user.NewWithMention(id, name, info.Name)

	s.mu.Lock()
	s.users[id] = u
	s.mu.Unlock()
	return u
}

func (s *SlackAdapter) SendMessage(ctx context.Context, msg chat.OutgoingMessage) error {
	api, err := s.client()
	if err != nil {
		return errs.IO("slack send", err)
	}

	text := msg.Body()
	var channelID string
	r, hasRoom := msg.Room()
	u, hasUser := msg.User()
	switch {
	case hasRoom:
		channelID = r.ID()
		if hasUser {
			text = "<@" + u.ID() + "> " + text
		}
	case hasUser:
		ch, _, _, err := api.OpenConversationContext(ctx, &slackgo.OpenConversationParameters{
			Users: []string{u.ID()},
		})
		if err != nil {
			return errs.IO("slack open conversation", err)
		}
		channelID = ch.ID
	default:
		return errs.Generic("slack send: message has no room or user")
	}

	for _, chunk := range splitMessage(text, slackMaxMessageLen) {
		if _, _, err := api.PostMessageContext(ctx, channelID, slackgo.MsgOptionText(chunk, false)); err != nil {
			return errs.IO("slack post message", err)
		}
	}
	return nil
}

func (s *SlackAdapter) SetTopic(ctx context.Context, r room.Room, topic string) error {
	api, err := s.client()
	if err != nil {
		return errs.IO("slack set topic", err)
	}
	_, err = api.SetTopicOfConversationContext(ctx, r.ID(), topic)
	return errs.IO("slack set topic", err)
}

func (s *SlackAdapter) Join(ctx context.Context, r room.Room) error {
	api, err := s.client()
	if err != nil {
		return errs.IO("slack join", err)
	}
	_, _, _, err = api.JoinConversationContext(ctx, r.ID())
	return errs.IO("slack join", err)
}

func (s *SlackAdapter) Part(ctx context.Context, r room.Room) error {
	api, err := s.client()
	if err != nil {
		return errs.IO("slack leave", err)
	}
	_, err = api.LeaveConversationContext(ctx, r.ID())
	return errs.IO("slack leave", err)
}
