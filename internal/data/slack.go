package data

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/robomo/discord-bridge/internal/biz/repo"
)

// SlackRepo posts messages through the Slack Web API. Implements
// repo.RelayRepo; retries live in the deliverer, a single call here is a
// single API request.
type SlackRepo struct {
	api *slack.Client
}

// NewSlackRepo creates a repo from a bot token.
func NewSlackRepo(token string) *SlackRepo {
	return &SlackRepo{api: slack.New(token)}
}

// PostSupportMessage posts text into the given Slack channel and returns the
// accepted message's channel and timestamp.
func (r *SlackRepo) PostSupportMessage(ctx context.Context, channelID, text string) (*repo.RelayReceipt, error) {
	channel, ts, err := r.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, fmt.Errorf("post slack message: %w", err)
	}
	return &repo.RelayReceipt{Channel: channel, Timestamp: ts}, nil
}
