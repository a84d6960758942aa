// Package session runs the conversational login flow that links an account
// to the channel address a conversation arrives from.
package session

// Phase names a conversation state.
type Phase string

const (
	PhaseIdle             Phase = "IDLE"
	PhaseAwaitingIdentity Phase = "AWAITING_IDENTITY"
	PhaseAwaitingSecret   Phase = "AWAITING_SECRET"
)

// State is one of Idle, AwaitingIdentity or AwaitingSecret. Only
// AwaitingSecret carries a pending identity.
type State interface {
	Phase() Phase
}

// Idle is the resting state.
type Idle struct{}

// AwaitingIdentity waits for the user to send an identity.
type AwaitingIdentity struct{}

// AwaitingSecret waits for the secret belonging to PendingIdentity.
type AwaitingSecret struct {
	PendingIdentity string
}

func (Idle) Phase() Phase             { return PhaseIdle }
func (AwaitingIdentity) Phase() Phase { return PhaseAwaitingIdentity }
func (AwaitingSecret) Phase() Phase   { return PhaseAwaitingSecret }
