// Package llm defines the external model-calling collaborator consumed by
// the conversation core.
//
// The core treats both operations as potentially slow, potentially failing
// calls with no built-in retry. Callers own timeouts via ctx; the core
// guarantees the user's own message is durably saved before either call is
// made.
package llm

import "context"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the plain conversation history handed to the model.
type Turn struct {
	Role    Role
	Content string
}

// Provider is the model-calling collaborator.
type Provider interface {
	// SendTurn sends the full ordered turn history plus a system context
	// and returns the model's reply text.
	SendTurn(ctx context.Context, history []Turn, systemContext string) (string, error)

	// DeriveTitle asks the model for a short title summarizing the first
	// user message of a task conversation.
	DeriveTitle(ctx context.Context, firstUserMessage string) (string, error)
}
