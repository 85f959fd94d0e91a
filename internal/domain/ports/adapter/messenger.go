package adapter

import "context"

// Messenger sends plain text to a chat principal or channel.
type Messenger interface {
	SendDirect(ctx context.Context, principalID, text string) error
	SendChannel(ctx context.Context, channelID, text string) error
}
