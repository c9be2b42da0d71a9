package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/biz/domain"
	"github.com/robomo/discord-bridge/internal/biz/usecase"
	"github.com/robomo/discord-bridge/internal/infra/discord"
	"github.com/robomo/discord-bridge/internal/metrics"
)

// Gateway is the slice of the Discord client the server needs.
type Gateway interface {
	OnMessage(func(*discord.Message))
	Start() error
	Stop()
}

// DiscordServer consumes gateway message events and hands them to the
// router. Classification happens inline on the gateway goroutine; the router
// spawns a goroutine per actionable message for the network I/O.
type DiscordServer struct {
	gateway Gateway
	router  *usecase.Router
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Duplicate-event suppression: the gateway can redeliver an event after
	// a reconnect.
	seenMu sync.Mutex
	seen   map[string]time.Time
}

const seenTTL = 5 * time.Minute

// NewDiscordServer wires the gateway's message events into the router.
func NewDiscordServer(gateway Gateway, router *usecase.Router, log zerolog.Logger) *DiscordServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &DiscordServer{
		gateway: gateway,
		router:  router,
		log:     log.With().Str("component", "server").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		seen:    make(map[string]time.Time),
	}
	gateway.OnMessage(s.handleMessage)
	return s
}

// Start opens the gateway connection.
func (s *DiscordServer) Start() error {
	return s.gateway.Start()
}

// Stop closes the gateway connection and waits briefly for in-flight
// deliveries; after the grace period they are abandoned with their outcome
// unobserved.
func (s *DiscordServer) Stop() {
	s.gateway.Stop()

	done := make(chan struct{})
	go func() {
		s.router.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("grace period elapsed, abandoning in-flight deliveries")
		s.cancel()
		<-done
	}
	s.cancel()
}

func (s *DiscordServer) handleMessage(msg *discord.Message) {
	if s.isSeen(msg.ID) {
		metrics.DuplicateEventsDropped.Inc()
		s.log.Debug().Str("message_id", msg.ID).Msg("duplicate gateway event dropped")
		return
	}
	s.markSeen(msg.ID)

	class := s.router.Dispatch(s.ctx, &domain.Message{
		ID:          msg.ID,
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		AuthorIsBot: msg.AuthorIsBot,
		ChannelID:   msg.ChannelID,
		ChannelName: msg.ChannelName,
		GuildID:     msg.GuildID,
		Content:     msg.CleanContent,
		CreatedAt:   msg.CreatedAt,
		MentionsBot: msg.MentionsBot,
	})

	s.log.Debug().
		Str("message_id", msg.ID).
		Str("channel", msg.ChannelName).
		Stringer("class", class).
		Msg("message classified")
}

// isSeen checks whether a message ID was already handled.
func (s *DiscordServer) isSeen(msgID string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	_, exists := s.seen[msgID]
	return exists
}

// markSeen records a message ID and prunes expired records so the cache
// stays bounded to the rolling window.
func (s *DiscordServer) markSeen(msgID string) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.seen[msgID] = time.Now()

	cutoff := time.Now().Add(-seenTTL)
	for id, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, id)
		}
	}
}
