package model

// ConfirmationOutcome classifies the result of a confirm or cancel request.
type ConfirmationOutcome string

const (
	OutcomeApplied          ConfirmationOutcome = "applied"
	OutcomeAlreadyConfirmed ConfirmationOutcome = "already_confirmed"
	OutcomeAlreadyCancelled ConfirmationOutcome = "already_cancelled"
	OutcomeAlreadyExpired   ConfirmationOutcome = "already_expired"
	OutcomeNotFound         ConfirmationOutcome = "not_found"
)

type SourceKind string

const (
	SourceCommand   SourceKind = "command"
	SourceWebhook   SourceKind = "webhook"
	SourceDashboard SourceKind = "dashboard"
	SourceScheduler SourceKind = "scheduler"
)

// ConfirmationSource identifies who triggered a status change.
// Actor is a principal id, a gateway name or "dashboard".
type ConfirmationSource struct {
	Kind  SourceKind
	Actor string
}

func (s ConfirmationSource) String() string {
	if s.Actor == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Actor
}
