package channels

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/user"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"**bold** and __also__", "<b>bold</b> and <b>also</b>"},
		{"an _italic_ word", "an <i>italic</i> word"},
		{"snake_case_name", "snake_case_name"},
		{"~~gone~~", "<s>gone</s>"},
		{"# Title", "Title"},
		{"> quoted", "quoted"},
		{"- item", "• item"},
		{"[site](https://example.com)", `<a href="https://example.com">site</a>`},
		{"a < b & c", "a &lt; b &amp; c"},
		{"use `x<y`", "use <code>x&lt;y</code>"},
		{"```go\nif **a** {}\n```", "<pre><code>if **a** {}\n</code></pre>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markdownToTelegramHTML(tt.in), "input %q", tt.in)
	}
}

func TestTelegramTarget(t *testing.T) {
	id, text, err := telegramTarget(chat.ToRoom("hi", room.New("-100123")))
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)
	assert.Equal(t, "hi", text)

	id, text, err = telegramTarget(chat.ToUser("hi", user.New("42", "Ann")))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "hi", text)

	_, text, err = telegramTarget(chat.ToUserInRoom("hi", room.New("-1"), user.NewWithMention("42", "Ann", "ann")))
	require.NoError(t, err)
	assert.Equal(t, "@ann hi", text)

	_, _, err = telegramTarget(chat.ToRoom("hi", room.New("general")))
	assert.Error(t, err)
}

func TestTelegramToIncoming(t *testing.T) {
	a := NewTelegramAdapter(channel.TelegramConfig{}, nil)
	from := &tgbotapi.User{ID: 42, FirstName: "Ann", LastName: "Lee", UserName: "ann"}

	sender, msg, ok := a.toIncoming(tgbotapi.Update{Message: &tgbotapi.Message{
		From: from,
		Chat: &tgbotapi.Chat{ID: -100, Type: "group"},
		Text: "ping",
	}})
	require.True(t, ok)
	assert.Equal(t, "42|ann", sender)
	assert.Equal(t, "ping", msg.Body())
	assert.Equal(t, "Ann Lee", msg.User().Name())
	assert.Equal(t, "ann", msg.User().MentionName())
	r, hasRoom := msg.Room()
	require.True(t, hasRoom)
	assert.Equal(t, "-100", r.ID())

	_, msg, ok = a.toIncoming(tgbotapi.Update{Message: &tgbotapi.Message{
		From: from,
		Chat: &tgbotapi.Chat{ID: 42, Type: "private"},
		Text: "hi",
	}})
	require.True(t, ok)
	_, hasRoom = msg.Room()
	assert.False(t, hasRoom)

	_, _, ok = a.toIncoming(tgbotapi.Update{Message: &tgbotapi.Message{
		From: from,
		Chat: &tgbotapi.Chat{ID: 42, Type: "private"},
	}})
	assert.False(t, ok, "messages without text are skipped")

	_, _, ok = a.toIncoming(tgbotapi.Update{})
	assert.False(t, ok)
}
