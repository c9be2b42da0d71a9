package repo

import "context"

// RelayReceipt identifies a message accepted by the support platform.
type RelayReceipt struct {
	Channel   string
	Timestamp string
}

// RelayRepo posts messages into the support channel on the second messaging
// platform.
type RelayRepo interface {
	PostSupportMessage(ctx context.Context, channelID, text string) (*RelayReceipt, error)
}

// ReplyRepo sends replies back into the originating chat channel.
type ReplyRepo interface {
	Reply(ctx context.Context, channelID, messageID, text string) error
}
