//go:build !integration

package discord

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/usecase"
)

const (
	ownerID = "111111111111111111"
	staffID = "222222222222222222"
	buyerID = "333333333333333333"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

// fakeSender records outbound messages. DM channels are named "dm-<user id>".
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failDM  bool
	failMsg bool
}

func (f *fakeSender) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.failDM {
		return nil, errors.New("cannot send messages to this user")
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.failMsg {
		return nil, errors.New("discord unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// echoTranslator returns the key so tests assert on which text was chosen.
type echoTranslator struct{}

func (echoTranslator) T(key string, _ ...interface{}) string { return key }

type fakeAuthz struct {
	usecase.AuthorizationRegistry
	users map[string]bool
}

func (f *fakeAuthz) IsOwner(id string) bool { return id == ownerID }

func (f *fakeAuthz) IsAuthorized(id string) bool { return id == ownerID || f.users[id] }

func (f *fakeAuthz) Remove(_ context.Context, id string) error {
	if id == ownerID {
		return domain.ErrOwnerImmutable
	}
	delete(f.users, id)
	return nil
}

type fakeDispatcher struct {
	usecase.ConfirmationDispatcher
	mu        sync.Mutex
	confirmed []string
}

func (f *fakeDispatcher) Confirm(_ context.Context, id string, _ model.ConfirmationSource, _ map[string]any) (*usecase.ConfirmationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.confirmed {
		if c == id {
			return &usecase.ConfirmationResult{Outcome: model.OutcomeAlreadyConfirmed, Payment: &model.Payment{ID: id, Status: model.PaymentStatusPaid}}, nil
		}
	}
	f.confirmed = append(f.confirmed, id)
	now := time.Now()
	return &usecase.ConfirmationResult{
		Outcome: model.OutcomeApplied,
		Payment: &model.Payment{ID: id, PrincipalID: buyerID, Status: model.PaymentStatusPaid, Amount: model.DefaultPaymentAmount, ConfirmedAt: &now},
	}, nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func dm(authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "900000000000000001",
		ChannelID: "dm-" + authorID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "user" + authorID[:3]},
	}
}
