package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robomo/discord-bridge/internal/biz/domain"
	"github.com/robomo/discord-bridge/internal/biz/repo"
)

// Mock implementations

type mockRelayRepo struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (m *mockRelayRepo) PostSupportMessage(ctx context.Context, channelID, text string) (*repo.RelayReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.posts = append(m.posts, text)
	return &repo.RelayReceipt{Channel: channelID, Timestamp: fmt.Sprintf("%d.0", len(m.posts))}, nil
}

func (m *mockRelayRepo) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posts...)
}

type mockAnswerRepo struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (m *mockAnswerRepo) Ask(ctx context.Context, question string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

type mockReplyRepo struct {
	mu      sync.Mutex
	replies []string
}

func (m *mockReplyRepo) Reply(ctx context.Context, channelID, messageID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

func (m *mockReplyRepo) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.replies...)
}

type routerFixture struct {
	router  *Router
	relay   *mockRelayRepo
	answer  *mockAnswerRepo
	replies *mockReplyRepo
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	relay := &mockRelayRepo{}
	answer := &mockAnswerRepo{}
	replies := &mockReplyRepo{}

	deliverer := NewDeliverer(RetryPolicy{MaxAttempts: 3, Backoff: time.Second}, zerolog.Nop())
	deliverer.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	cfg := RouterConfig{
		BotName:             "RoboMo",
		SupportChannelNames: []string{"support", "general"},
		SlackChannelID:      "C0TEST",
		FallbackReply:       "Sorry, I'm having trouble answering your question right now.",
	}

	router := NewRouter(cfg, domain.NewRateWindow(5*time.Minute), deliverer, relay, answer, replies, zerolog.Nop())
	return &routerFixture{router: router, relay: relay, answer: answer, replies: replies}
}

func supportMsg(id, authorID string, at time.Time) *domain.Message {
	return &domain.Message{
		ID:          id,
		AuthorID:    authorID,
		AuthorName:  "Alice",
		ChannelID:   "chan-support",
		ChannelName: "support",
		GuildID:     "guild-1",
		Content:     "my cache is on fire",
		CreatedAt:   at,
	}
}

func mentionMsg(id, authorID, content string) *domain.Message {
	return &domain.Message{
		ID:          id,
		AuthorID:    authorID,
		AuthorName:  "Bob",
		ChannelID:   "chan-random",
		ChannelName: "random",
		GuildID:     "guild-1",
		Content:     content,
		CreatedAt:   time.Now(),
		MentionsBot: true,
	}
}

// Tests

func TestClassify_Rules(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name string
		msg  *domain.Message
		want domain.Classification
	}{
		{
			name: "bot author always ignored",
			msg: &domain.Message{
				AuthorIsBot: true,
				MentionsBot: true,
				ChannelName: "support",
			},
			want: domain.ClassIgnored,
		},
		{
			name: "mention outranks support channel",
			msg: &domain.Message{
				MentionsBot: true,
				ChannelName: "support",
			},
			want: domain.ClassMentionQuery,
		},
		{
			name: "support channel by name substring",
			msg:  &domain.Message{ChannelName: "community-support"},
			want: domain.ClassSupportPost,
		},
		{
			name: "general channel matches",
			msg:  &domain.Message{ChannelName: "general"},
			want: domain.ClassSupportPost,
		},
		{
			name: "unrelated channel ignored",
			msg:  &domain.Message{ChannelName: "memes"},
			want: domain.ClassIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.router.Classify(tt.msg))
		})
	}
}

func TestClassify_SupportChannelByID(t *testing.T) {
	f := newRouterFixture(t)
	f.router.cfg.SupportChannelIDs = []string{"chan-42"}

	msg := &domain.Message{ChannelID: "chan-42", ChannelName: ""}
	assert.Equal(t, domain.ClassSupportPost, f.router.Classify(msg))
}

func TestDispatch_SupportPost_ForwardedOncePerWindow(t *testing.T) {
	f := newRouterFixture(t)
	t0 := time.Now()

	// t=0s forwarded, t=60s suppressed, t=301s forwarded.
	f.router.Dispatch(context.Background(), supportMsg("m1", "U1", t0))
	f.router.Dispatch(context.Background(), supportMsg("m2", "U1", t0.Add(60*time.Second)))
	f.router.Dispatch(context.Background(), supportMsg("m3", "U1", t0.Add(301*time.Second)))
	f.router.Wait()

	assert.Len(t, f.relay.sent(), 2)
}

func TestDispatch_BotMessagesNeverHandled(t *testing.T) {
	f := newRouterFixture(t)

	msg := supportMsg("m1", "U1", time.Now())
	msg.AuthorIsBot = true
	msg.MentionsBot = true

	class := f.router.Dispatch(context.Background(), msg)
	f.router.Wait()

	assert.Equal(t, domain.ClassIgnored, class)
	assert.Empty(t, f.relay.sent())
	assert.Empty(t, f.replies.sent())
	assert.Equal(t, 0, f.answer.calls)
}

func TestHandleSupportPost_TextIncludesAuthorAndDeepLink(t *testing.T) {
	f := newRouterFixture(t)

	f.router.HandleSupportPost(context.Background(), supportMsg("msg-9", "U1", time.Now()))

	sent := f.relay.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Alice requesting support: my cache is on fire")
	assert.Contains(t, sent[0], "https://discord.com/channels/guild-1/chan-support/msg-9")
}

func TestHandleSupportPost_FailureIsSilent(t *testing.T) {
	f := newRouterFixture(t)
	f.relay.err = errors.New("slack down")

	// Must not panic and must not reply to the original channel.
	f.router.HandleSupportPost(context.Background(), supportMsg("m1", "U1", time.Now()))

	assert.Empty(t, f.replies.sent())
}

func TestHandleMentionQuery_RepliesWithAnswer(t *testing.T) {
	f := newRouterFixture(t)
	f.answer.answer = "X is Y"

	f.router.HandleMentionQuery(context.Background(), mentionMsg("m1", "U2", "@RoboMo what is X?"))

	replies := f.replies.sent()
	require.Len(t, replies, 1)
	assert.Equal(t, "X is Y", replies[0])
	assert.Empty(t, f.relay.sent(), "mention queries never touch the relay channel")
}

func TestHandleMentionQuery_AllAttemptsFailYieldsFallback(t *testing.T) {
	f := newRouterFixture(t)
	f.answer.err = errors.New("backend down")

	f.router.HandleMentionQuery(context.Background(), mentionMsg("m1", "U2", "@RoboMo what is X?"))

	assert.Equal(t, 3, f.answer.calls)
	replies := f.replies.sent()
	require.Len(t, replies, 1)
	assert.Equal(t, f.router.cfg.FallbackReply, replies[0])
}

func TestHandleMentionQuery_MentionNeverConsultsRateWindow(t *testing.T) {
	f := newRouterFixture(t)
	f.answer.answer = "answered"

	// Two mentions from the same author back to back both get answered.
	f.router.Dispatch(context.Background(), mentionMsg("m1", "U2", "@RoboMo one?"))
	f.router.Dispatch(context.Background(), mentionMsg("m2", "U2", "@RoboMo two?"))
	f.router.Wait()

	assert.Len(t, f.replies.sent(), 2)
}

func TestStripMention(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, "what is X?", f.router.stripMention("@RoboMo what is X?"))
	assert.Equal(t, "what is X?", f.router.stripMention("what is X? @RoboMo"))
	assert.Equal(t, "no mention here", f.router.stripMention("no mention here"))
}
