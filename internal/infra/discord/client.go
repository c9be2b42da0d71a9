package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Message mirrors the gateway fields the bridge cares about.
type Message struct {
	ID           string
	AuthorID     string
	AuthorName   string
	AuthorIsBot  bool
	ChannelID    string
	ChannelName  string
	GuildID      string
	CleanContent string
	CreatedAt    time.Time
	MentionsBot  bool
}

// Client wraps the Discord gateway session. Message events are delivered to
// the registered handler synchronously, in gateway order.
type Client struct {
	session   *discordgo.Session
	log       zerolog.Logger
	onMessage func(*Message)
}

// New creates a gateway client from a bot token. The connection is not
// opened until Start.
func New(token string, log zerolog.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	// Handlers must run on the gateway goroutine so classification sees
	// messages in delivery order.
	session.SyncEvents = true

	c := &Client{
		session: session,
		log:     log.With().Str("component", "discord").Logger(),
	}
	session.AddHandler(c.handleReady)
	session.AddHandler(c.handleMessageCreate)
	return c, nil
}

// OnMessage registers the handler invoked for every inbound guild message.
// Must be called before Start.
func (c *Client) OnMessage(fn func(*Message)) {
	c.onMessage = fn
}

// Start opens the gateway connection. Returns once the websocket is up;
// events flow on the session's goroutines afterwards.
func (c *Client) Start() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (c *Client) Stop() {
	if err := c.session.Close(); err != nil {
		c.log.Warn().Err(err).Msg("error closing gateway connection")
	}
}

// Reply sends text as a reply to the given message in its channel.
// Implements repo.ReplyRepo.
func (c *Client) Reply(ctx context.Context, channelID, messageID, text string) error {
	_, err := c.session.ChannelMessageSendReply(channelID, text, &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.log.Info().
		Str("bot_user", r.User.Username).
		Str("bot_user_id", r.User.ID).
		Msg("logged in")
}

func (c *Client) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if c.onMessage == nil || m.Author == nil {
		return
	}

	c.onMessage(&Message{
		ID:           m.ID,
		AuthorID:     m.Author.ID,
		AuthorName:   displayName(m),
		AuthorIsBot:  m.Author.Bot,
		ChannelID:    m.ChannelID,
		ChannelName:  c.channelName(s, m.ChannelID),
		GuildID:      m.GuildID,
		CleanContent: m.ContentWithMentionsReplaced(),
		CreatedAt:    m.Timestamp,
		MentionsBot:  mentionsBot(s, m),
	})
}

// mentionsBot reports whether the message @-mentions the logged-in bot user.
func mentionsBot(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if s.State == nil || s.State.User == nil {
		return false
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

// displayName prefers the guild nickname, then the global display name, then
// the account name.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// channelName resolves the channel's name from the session state cache,
// falling back to the REST API on a cold cache.
func (c *Client) channelName(s *discordgo.Session, channelID string) string {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			c.log.Debug().Err(err).Str("channel_id", channelID).Msg("could not resolve channel name")
			return ""
		}
	}
	return ch.Name
}
