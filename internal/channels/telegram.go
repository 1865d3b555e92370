package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
	"github.com/openchatops/oco/internal/user"
)

const telegramMaxMessageLen = 4000

// TelegramAdapter talks to the Telegram Bot API via long polling. Group
// chats are rooms; private chats carry no room and are answered by user ID,
// which Telegram uses as the private chat ID.
type TelegramAdapter struct {
	Base
	chat.Unsupported
	cfg channel.TelegramConfig

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegramAdapter(cfg channel.TelegramConfig, logger *slog.Logger) *TelegramAdapter {
	return &TelegramAdapter{
		Base: NewBase(channel.AdapterTelegram, cfg.AllowFrom, logger),
		cfg:  cfg,
	}
}

func (t *TelegramAdapter) Run(ctx context.Context) (stream.Stream[chat.IncomingMessage], error) {
	bot, err := t.botAPI()
	if err != nil {
		return nil, err
	}
	t.logger.Info("connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.cfg.PollTimeout
	if u.Timeout <= 0 {
		u.Timeout = 30
	}
	updates := bot.GetUpdatesChan(u)
	pipe := newIncoming()

	go func() {
		defer bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				pipe.End()
				return
			case <-pipe.Done():
				return
			case update, ok := <-updates:
				if !ok {
					pipe.End()
					return
				}
				senderID, msg, ok := t.toIncoming(update)
				if !ok {
					continue
				}
				if !t.HandleMessage(ctx, pipe, senderID, msg) {
					return
				}
			}
		}
	}()
	return pipe, nil
}

// botAPI returns the Bot API client, connecting on first use so messages
// can be sent without polling for updates.
func (t *TelegramAdapter) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	if t.cfg.Token == "" {
		return nil, errors.New("telegram: bot token not configured")
	}
	bot, err := t.newBot()
	if err != nil {
		return nil, errs.IO("telegram connect", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *TelegramAdapter) newBot() (*tgbotapi.BotAPI, error) {
	if t.cfg.Proxy == "" {
		return tgbotapi.NewBotAPI(t.cfg.Token)
	}
	proxy, err := url.Parse(t.cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", t.cfg.Proxy, err)
	}
	client := &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxy)}}
	return tgbotapi.NewBotAPIWithClient(t.cfg.Token, tgbotapi.APIEndpoint, client)
}

// toIncoming converts a text update. The returned sender ID is
// "id|username" so the allowlist can match either form.
func (t *TelegramAdapter) toIncoming(update tgbotapi.Update) (string, chat.IncomingMessage, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return "", chat.IncomingMessage{}, false
	}
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()
	if bot != nil && msg.From.ID == bot.Self.ID {
		return "", chat.IncomingMessage{}, false
	}
	body := msg.Text
	if body == "" {
		body = msg.Caption
	}
	if body == "" {
		return "", chat.IncomingMessage{}, false
	}

	id := strconv.FormatInt(msg.From.ID, 10)
	senderID := id
	if msg.From.UserName != "" {
		senderID += "|" + msg.From.UserName
	}
	u := user.New(id, telegramDisplayName(msg.From))
	if msg.From.UserName != "" {
		u = user.NewWithMention(id, u.Name(), msg.From.UserName)
	}

	var r room.Room
	if !msg.Chat.IsPrivate() {
		r = room.New(strconv.FormatInt(msg.Chat.ID, 10))
	}
	return senderID, chat.NewIncomingMessage(body, u, r), true
}

func telegramDisplayName(from *tgbotapi.User) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return name
}

func (t *TelegramAdapter) SendMessage(_ context.Context, msg chat.OutgoingMessage) error {
	bot, err := t.botAPI()
	if err != nil {
		return err
	}
	chatID, text, err := telegramTarget(msg)
	if err != nil {
		return err
	}

	for _, chunk := range splitMessage(text, telegramMaxMessageLen) {
		m := tgbotapi.NewMessage(chatID, markdownToTelegramHTML(chunk))
		m.ParseMode = tgbotapi.ModeHTML
		if _, err := bot.Send(m); err == nil {
			continue
		}
		// Fall back to plain text when Telegram rejects the markup.
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return errs.IO("telegram send", err)
		}
	}
	return nil
}

// telegramTarget picks the chat for msg: its room, or the addressed user's
// private chat. A user addressed inside a room is mentioned by username.
func telegramTarget(msg chat.OutgoingMessage) (int64, string, error) {
	text := msg.Body()
	r, hasRoom := msg.Room()
	u, hasUser := msg.User()
	switch {
	case hasRoom:
		id, err := parseChatID(r.ID())
		if err != nil {
			return 0, "", err
		}
		if hasUser && u.MentionName() != "" {
			text = "@" + u.MentionName() + " " + text
		}
		return id, text, nil
	case hasUser:
		id, err := parseChatID(u.ID())
		return id, text, err
	default:
		return 0, "", errs.Generic("telegram send: message has no room or user")
	}
}

// SetTopic sets the chat description, the closest Telegram has to a topic.
func (t *TelegramAdapter) SetTopic(_ context.Context, r room.Room, topic string) error {
	bot, err := t.botAPI()
	if err != nil {
		return err
	}
	id, err := parseChatID(r.ID())
	if err != nil {
		return err
	}
	_, err = bot.Request(tgbotapi.SetChatDescriptionConfig{ChatID: id, Description: topic})
	return errs.IO("telegram set description", err)
}

func (t *TelegramAdapter) Part(_ context.Context, r room.Room) error {
	bot, err := t.botAPI()
	if err != nil {
		return err
	}
	id, err := parseChatID(r.ID())
	if err != nil {
		return err
	}
	_, err = bot.Request(tgbotapi.LeaveChatConfig{ChatID: id})
	return errs.IO("telegram leave chat", err)
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errs.Genericf("invalid telegram chat id %q", s)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Markdown → Telegram HTML
// ---------------------------------------------------------------------------

var (
	reTGCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?(.*?)```")
	reTGInlineCode = regexp.MustCompile("`([^`]+)`")
	reTGHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reTGBlockquote = regexp.MustCompile(`(?m)^>\s*(.*)$`)
	reTGLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reTGBold1      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reTGBold2      = regexp.MustCompile(`__(.+?)__`)
	reTGItalic     = regexp.MustCompile(`(^|[^a-zA-Z0-9])_([^_]+)_([^a-zA-Z0-9]|$)`)
	reTGStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reTGBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
)

func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	// Code is pulled out first so its contents are escaped but not styled.
	var codeBlocks []string
	text = reTGCodeBlock.ReplaceAllStringFunc(text, func(m string) string {
		codeBlocks = append(codeBlocks, reTGCodeBlock.FindStringSubmatch(m)[1])
		return fmt.Sprintf("\x00CB%d\x00", len(codeBlocks)-1)
	})
	var inlineCodes []string
	text = reTGInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		inlineCodes = append(inlineCodes, reTGInlineCode.FindStringSubmatch(m)[1])
		return fmt.Sprintf("\x00IC%d\x00", len(inlineCodes)-1)
	})

	text = reTGHeader.ReplaceAllString(text, "$1")
	text = reTGBlockquote.ReplaceAllString(text, "$1")
	text = htmlEscape(text)

	text = reTGLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reTGBold1.ReplaceAllString(text, "<b>$1</b>")
	text = reTGBold2.ReplaceAllString(text, "<b>$1</b>")
	text = reTGItalic.ReplaceAllString(text, "$1<i>$2</i>$3")
	text = reTGStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reTGBullet.ReplaceAllString(text, "• ")

	for i, code := range inlineCodes {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i), "<code>"+htmlEscape(code)+"</code>")
	}
	for i, code := range codeBlocks {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i), "<pre><code>"+htmlEscape(code)+"</code></pre>")
	}
	return text
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
