package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_DeepLink(t *testing.T) {
	m := &Message{
		ID:        "msg-3",
		ChannelID: "chan-2",
		GuildID:   "guild-1",
	}

	assert.Equal(t, "https://discord.com/channels/guild-1/chan-2/msg-3", m.DeepLink())
}

func TestClassification_String(t *testing.T) {
	assert.Equal(t, "ignored", ClassIgnored.String())
	assert.Equal(t, "mention_query", ClassMentionQuery.String())
	assert.Equal(t, "support_post", ClassSupportPost.String())
	assert.Equal(t, "ignored", Classification(99).String())
}
