package conversation

import (
	"time"
)

// Type distinguishes the one-per-user onboarding interview from ordinary
// task conversations.
type Type string

const (
	TypeOnboarding Type = "onboarding"
	TypeTask       Type = "task"
)

// Status is the lifecycle state of a conversation. Onboarding moves
// in_progress -> complete; task conversations stay active until deleted.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusActive     Status = "active"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind classifies one content part of a message.
type PartKind string

const (
	PartText     PartKind = "text"
	PartImage    PartKind = "image"
	PartDocument PartKind = "document"
)

const (
	// OnboardingConversationID is the singleton document id for the
	// one-per-user onboarding conversation.
	OnboardingConversationID = "onboarding"

	// OnboardingDisplayTitle is the fixed display title for onboarding
	// conversations; their Title field stays nil.
	OnboardingDisplayTitle = "Getting to know you"

	// MaxTitleLength is the character ceiling for derived task titles.
	MaxTitleLength = 50
)

// ContentPart is either a text part or a reference to a stored attachment.
type ContentPart struct {
	Kind      PartKind `json:"kind"`
	Text      string   `json:"text,omitempty"`
	Ref       string   `json:"ref,omitempty"`
	Name      string   `json:"name,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
}

// Message is one immutable turn of a conversation. The part sequence is
// never empty.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Parts     []ContentPart `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
}

// Text concatenates the message's text parts.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == PartText {
			if out != "" {
				out += "\n"
			}
			out += p.Text
		}
	}
	return out
}

// Conversation is the central persisted document: metadata plus the ordered
// append-only message sequence. Field names are a durable-format contract;
// adding fields is safe, renaming or removing them is a breaking change.
type Conversation struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Status      Status     `json:"status"`
	Title       *string    `json:"title"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUpdated time.Time  `json:"last_updated"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Summary     *string    `json:"summary,omitempty"`
	Messages    []Message  `json:"messages"`
}

// DisplayTitle resolves what a listing shows for this conversation.
func (c *Conversation) DisplayTitle() string {
	if c.Type == TypeOnboarding {
		return OnboardingDisplayTitle
	}
	if c.Title != nil && *c.Title != "" {
		return *c.Title
	}
	return "Untitled task"
}

// FirstUserText returns the text of the first user-authored message, or ""
// when none exists yet.
func (c *Conversation) FirstUserText() string {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Text()
		}
	}
	return ""
}

// ListEntry is one row of a user's conversation listing.
type ListEntry struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	Title          string    `json:"title"`
	Status         Status    `json:"status"`
	LastUpdated    time.Time `json:"last_updated"`
	MessageCount   int       `json:"message_count"`
	HasAttachments bool      `json:"has_attachments"`
}

// AppendResult is what a message append hands back to the caller.
type AppendResult struct {
	ReplyText string

	// IsSummaryCandidate is set on onboarding appends when the reply looks
	// like a finished onboarding summary (heuristic, see IsSummaryCandidate).
	IsSummaryCandidate bool

	// DerivedTitle is set on the one task append that derives the title.
	DerivedTitle *string
}
