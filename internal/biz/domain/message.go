package domain

import (
	"fmt"
	"time"
)

// Message is a single inbound chat message as observed from the gateway.
// Immutable once constructed; consumed exactly once by the router.
type Message struct {
	ID          string
	AuthorID    string
	AuthorName  string // display name, falling back to the account name
	AuthorIsBot bool
	ChannelID   string
	ChannelName string
	GuildID     string
	Content     string // cleaned content, raw mention tokens replaced with @Name
	CreatedAt   time.Time
	MentionsBot bool
}

// DeepLink returns the canonical URL pointing back at the original message.
func (m *Message) DeepLink() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", m.GuildID, m.ChannelID, m.ID)
}

// Classification is the router's per-message decision. Messages are classified
// statelessly, one at a time, in gateway arrival order.
type Classification int

const (
	ClassIgnored Classification = iota
	ClassMentionQuery
	ClassSupportPost
)

func (c Classification) String() string {
	switch c {
	case ClassMentionQuery:
		return "mention_query"
	case ClassSupportPost:
		return "support_post"
	default:
		return "ignored"
	}
}
