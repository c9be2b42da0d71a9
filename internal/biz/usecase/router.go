package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/biz/domain"
	"github.com/robomo/discord-bridge/internal/biz/repo"
	"github.com/robomo/discord-bridge/internal/metrics"
)

// RouterConfig holds the classification rules and fixed destinations the
// router dispatches against.
type RouterConfig struct {
	BotName             string   // mention token stripped from questions, e.g. "RoboMo"
	SupportChannelIDs   []string // exact channel ID matches
	SupportChannelNames []string // case-insensitive substring matches on channel name
	SlackChannelID      string   // fixed support-relay destination
	FallbackReply       string   // sent when the QA backend fails every attempt
}

// Router consumes classified gateway messages and dispatches them to the
// delivery paths. Classification and the rate-window decision run
// synchronously on the caller's goroutine; network I/O runs on a goroutine
// per message so a slow delivery never delays later messages.
type Router struct {
	cfg     RouterConfig
	window  *domain.RateWindow
	deliver *Deliverer
	relay   repo.RelayRepo
	answer  repo.AnswerRepo
	replies repo.ReplyRepo
	log     zerolog.Logger

	wg sync.WaitGroup
}

// NewRouter creates a router. The rate window and deliverer are created at
// process start and live until process exit; no state is persisted.
func NewRouter(
	cfg RouterConfig,
	window *domain.RateWindow,
	deliverer *Deliverer,
	relay repo.RelayRepo,
	answer repo.AnswerRepo,
	replies repo.ReplyRepo,
	log zerolog.Logger,
) *Router {
	return &Router{
		cfg:     cfg,
		window:  window,
		deliver: deliverer,
		relay:   relay,
		answer:  answer,
		replies: replies,
		log:     log.With().Str("component", "router").Logger(),
	}
}

// Classify decides what to do with a message. Rules are evaluated in order
// and the first match wins: bot authors are never acted on, a bot mention
// outranks the support channel, everything else is ignored.
func (r *Router) Classify(msg *domain.Message) domain.Classification {
	switch {
	case msg.AuthorIsBot:
		return domain.ClassIgnored
	case msg.MentionsBot:
		return domain.ClassMentionQuery
	case r.isSupportChannel(msg):
		return domain.ClassSupportPost
	default:
		return domain.ClassIgnored
	}
}

func (r *Router) isSupportChannel(msg *domain.Message) bool {
	for _, id := range r.cfg.SupportChannelIDs {
		if msg.ChannelID == id {
			return true
		}
	}
	name := strings.ToLower(msg.ChannelName)
	if name == "" {
		return false
	}
	for _, frag := range r.cfg.SupportChannelNames {
		if frag != "" && strings.Contains(name, strings.ToLower(frag)) {
			return true
		}
	}
	return false
}

// Dispatch classifies msg and starts the matching handler on its own
// goroutine. The rate-window read-check-write happens here, before the
// goroutine hop, so two in-flight messages from the same author cannot both
// win the window.
func (r *Router) Dispatch(ctx context.Context, msg *domain.Message) domain.Classification {
	class := r.Classify(msg)
	metrics.MessagesClassified.WithLabelValues(class.String()).Inc()

	switch class {
	case domain.ClassMentionQuery:
		r.spawn(func() { r.HandleMentionQuery(ctx, msg) })

	case domain.ClassSupportPost:
		if !r.window.ShouldForward(msg.AuthorID, r.decisionTime(msg)) {
			metrics.SupportPostsSuppressed.Inc()
			r.log.Info().
				Str("message_id", msg.ID).
				Str("author_id", msg.AuthorID).
				Msg("not posting to slack, author already forwarded inside the rate window")
			return class
		}
		r.spawn(func() { r.HandleSupportPost(ctx, msg) })
	}

	return class
}

// decisionTime is the timestamp the rate window is evaluated against. The
// gateway timestamp keeps the decision deterministic per message; a zero
// value falls back to the wall clock.
func (r *Router) decisionTime(msg *domain.Message) time.Time {
	if msg.CreatedAt.IsZero() {
		return time.Now()
	}
	return msg.CreatedAt
}

// HandleMentionQuery answers a message that @-mentions the bot. Every
// mention gets either the backend's answer or the fixed fallback reply;
// errors never escape the handler.
func (r *Router) HandleMentionQuery(ctx context.Context, msg *domain.Message) {
	question := r.stripMention(msg.Content)

	var answer string
	err := r.deliver.Deliver(ctx, "qa-backend", func(ctx context.Context) error {
		var askErr error
		answer, askErr = r.answer.Ask(ctx, question)
		return askErr
	})
	if err != nil {
		metrics.FallbackReplies.Inc()
		r.log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("author_id", msg.AuthorID).
			Msg("qa backend unavailable, sending fallback reply")
		if rerr := r.replies.Reply(ctx, msg.ChannelID, msg.ID, r.cfg.FallbackReply); rerr != nil {
			r.log.Error().Err(rerr).Str("message_id", msg.ID).Msg("failed to send fallback reply")
		}
		return
	}

	metrics.QuestionsAnswered.Inc()
	if rerr := r.replies.Reply(ctx, msg.ChannelID, msg.ID, answer); rerr != nil {
		r.log.Error().Err(rerr).Str("message_id", msg.ID).Msg("failed to send answer reply")
	}
}

// HandleSupportPost cross-posts a support-channel message to Slack. Final
// failure is logged only; the relay is best effort and stays silent to the
// original channel.
func (r *Router) HandleSupportPost(ctx context.Context, msg *domain.Message) {
	text := fmt.Sprintf("%s requesting support: %s \n%s", msg.AuthorName, msg.Content, msg.DeepLink())

	err := r.deliver.Deliver(ctx, "slack-relay", func(ctx context.Context) error {
		receipt, postErr := r.relay.PostSupportMessage(ctx, r.cfg.SlackChannelID, text)
		if postErr != nil {
			return postErr
		}
		r.log.Info().
			Str("message_id", msg.ID).
			Str("slack_channel", receipt.Channel).
			Str("slack_ts", receipt.Timestamp).
			Msg("support post relayed")
		return nil
	})
	if err != nil {
		r.log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("author_id", msg.AuthorID).
			Msg("giving up on support relay")
		return
	}

	metrics.SupportPostsForwarded.Inc()
}

// stripMention removes the bot's mention token from the cleaned content.
func (r *Router) stripMention(content string) string {
	if r.cfg.BotName != "" {
		content = strings.ReplaceAll(content, "@"+r.cfg.BotName, "")
	}
	return strings.TrimSpace(content)
}

func (r *Router) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// Wait blocks until all in-flight message handlers have finished.
func (r *Router) Wait() {
	r.wg.Wait()
}
