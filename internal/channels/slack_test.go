package channels

import (
	"testing"

	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
)

func TestParseSlackEvent(t *testing.T) {
	const bot = "UBOT"
	tests := []struct {
		name string
		data interface{}
		want slackMessage
		ok   bool
	}{
		{
			name: "channel message",
			data: &slackevents.MessageEvent{User: "U1", Channel: "C1", ChannelType: "channel", Text: "ping"},
			want: slackMessage{User: "U1", Channel: "C1", ChannelType: "channel", Text: "ping"},
			ok:   true,
		},
		{
			name: "direct message",
			data: &slackevents.MessageEvent{User: "U1", Channel: "D1", ChannelType: "im", Text: " hi "},
			want: slackMessage{User: "U1", Channel: "D1", ChannelType: "im", Text: "hi"},
			ok:   true,
		},
		{
			name: "mention is stripped",
			data: &slackevents.AppMentionEvent{User: "U1", Channel: "C1", Text: "<@UBOT> ping"},
			want: slackMessage{User: "U1", Channel: "C1", ChannelType: "channel", Text: "ping"},
			ok:   true,
		},
		{
			name: "message duplicating a mention",
			data: &slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "<@UBOT> ping"},
		},
		{
			name: "own message",
			data: &slackevents.MessageEvent{User: bot, Channel: "C1", Text: "pong"},
		},
		{
			name: "bot message",
			data: &slackevents.MessageEvent{User: "U2", BotID: "B2", Channel: "C1", Text: "beep"},
		},
		{
			name: "edited message",
			data: &slackevents.MessageEvent{User: "U1", Channel: "C1", SubType: "message_changed", Text: "x"},
		},
		{
			name: "bare mention",
			data: &slackevents.AppMentionEvent{User: "U1", Channel: "C1", Text: "<@UBOT>"},
		},
		{
			name: "other event",
			data: &slackevents.ReactionAddedEvent{User: "U1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSlackEvent(slackevents.EventsAPIInnerEvent{Data: tt.data}, bot)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStripSlackMention(t *testing.T) {
	assert.Equal(t, "hello there", stripSlackMention("<@UBOT> hello there", "UBOT"))
	assert.Equal(t, "hi <@UOTHER>", stripSlackMention("hi <@UOTHER>", "UBOT"))
	assert.Equal(t, "hi", stripSlackMention("  hi ", ""))
}
