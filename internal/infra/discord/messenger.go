package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"discord-sales-bot/internal/domain/ports/adapter"
)

// maxMessageLen is Discord's limit for a single message body.
const maxMessageLen = 2000

// sender is the slice of *discordgo.Session used for outbound messages.
type sender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ adapter.Messenger = (*Messenger)(nil)

// Messenger delivers plain text over the bot session.
type Messenger struct {
	s sender
}

func NewMessenger(s sender) *Messenger {
	return &Messenger{s: s}
}

// NewSession creates a bot session that receives DM and guild message events.
// The connection is opened by Bot.Start.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	return s, nil
}

func (m *Messenger) SendDirect(ctx context.Context, principalID, text string) error {
	ch, err := m.s.UserChannelCreate(principalID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM channel with %s: %w", principalID, err)
	}
	return m.SendChannel(ctx, ch.ID, text)
}

func (m *Messenger) SendChannel(ctx context.Context, channelID, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := m.s.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("send to channel %s: %w", channelID, err)
		}
	}
	return nil
}

// splitMessage cuts text into pieces of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var out []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
